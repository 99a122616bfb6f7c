package asr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrUnrecognized 片段中有声音但无法识别出文字
var ErrUnrecognized = errors.New("无法识别的音频片段")

// Recognizer 语音识别能力：输入一个WAV分片，返回识别文本。
// 无法识别时返回 ErrUnrecognized，网络/配额/请求错误返回 *ServiceError。
type Recognizer interface {
	Recognize(ctx context.Context, audio []byte) (string, error)
}

// RecognizerFunc 让普通函数实现 Recognizer
type RecognizerFunc func(ctx context.Context, audio []byte) (string, error)

// Recognize 实现 Recognizer
func (f RecognizerFunc) Recognize(ctx context.Context, audio []byte) (string, error) {
	return f(ctx, audio)
}

// ServiceError 识别服务调用失败
type ServiceError struct {
	Backend    string
	StatusCode int // HTTP状态码，0表示未收到响应
	Cause      error
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s 服务错误 (HTTP %d): %v", e.Backend, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("%s 服务错误: %v", e.Backend, e.Cause)
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// Temporary 网络错误、限流和5xx可以重试
func (e *ServiceError) Temporary() bool {
	return e.StatusCode == 0 ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= http.StatusInternalServerError
}

// NewServiceError 创建服务错误
func NewServiceError(backend string, statusCode int, cause error) error {
	return &ServiceError{Backend: backend, StatusCode: statusCode, Cause: cause}
}

// IsRetryable 只有临时性的服务错误值得重试
func IsRetryable(err error) bool {
	if errors.Is(err, ErrUnrecognized) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Temporary()
	}
	return false
}
