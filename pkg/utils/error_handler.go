package utils

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// AudioToolsError 是音频工具错误的基础类型
type AudioToolsError struct {
	Message string
	Cause   error
}

// Error 实现error接口
func (e *AudioToolsError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Cause.Error())
	}
	return e.Message
}

// Unwrap 支持error chain
func (e *AudioToolsError) Unwrap() error {
	return e.Cause
}

// NewError 创建一个新的AudioToolsError
func NewError(message string, cause error) error {
	return &AudioToolsError{
		Message: message,
		Cause:   cause,
	}
}

// ErrorHandler 处理错误和重试，可被多个worker共享
type ErrorHandler struct {
	MaxRetries int
	RetryDelay float64 // 秒，第n次重试等待 RetryDelay*n

	mu         sync.Mutex
	errorStats map[string]map[string]int // 操作 -> 错误信息 -> 计数
}

// NewErrorHandler 创建新的错误处理器
func NewErrorHandler(maxRetries int, retryDelay float64) *ErrorHandler {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &ErrorHandler{
		MaxRetries: maxRetries,
		RetryDelay: retryDelay,
		errorStats: make(map[string]map[string]int),
	}
}

// Retry 执行函数并在失败时重试
func (h *ErrorHandler) Retry(operation string, fn func() error) error {
	return h.RetryIf(context.Background(), operation, nil, fn)
}

// RetryIf 执行函数，仅当retryable返回true时重试；retryable为nil表示所有错误都重试。
// 不可重试的错误原样返回，不做包装。
func (h *ErrorHandler) RetryIf(ctx context.Context, operation string, retryable func(error) bool, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < h.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		h.updateErrorStats(operation, err.Error())

		if retryable != nil && !retryable(err) {
			return err
		}

		if attempt < h.MaxRetries-1 {
			delay := time.Duration(h.RetryDelay * float64(attempt+1) * float64(time.Second))
			Warn("操作 %s 失败 (尝试 %d/%d): %s", operation, attempt+1, h.MaxRetries, err)
			Debug("等待 %.1f 秒后重试...", delay.Seconds())

			select {
			case <-ctx.Done():
				return NewError(fmt.Sprintf("操作 %s 已取消", operation), ctx.Err())
			case <-time.After(delay):
			}
		}
	}

	return NewError(fmt.Sprintf("操作 %s 重试 %d 次后仍然失败", operation, h.MaxRetries), lastErr)
}

// SafeExecute 安全地执行函数，并在失败时进行清理
func (h *ErrorHandler) SafeExecute(operation string, fn func() error, cleanup func()) error {
	err := fn()
	if err != nil {
		h.updateErrorStats(operation, err.Error())

		if cleanup != nil {
			Info("执行清理操作...")
			cleanup()
		}

		return NewError(fmt.Sprintf("操作 %s 失败", operation), err)
	}
	return nil
}

func (h *ErrorHandler) updateErrorStats(operation string, errMsg string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.errorStats[operation] == nil {
		h.errorStats[operation] = make(map[string]int)
	}
	h.errorStats[operation][errMsg]++
}

// GetErrorStats 获取错误统计信息的副本
func (h *ErrorHandler) GetErrorStats() map[string]map[string]int {
	h.mu.Lock()
	defer h.mu.Unlock()

	stats := make(map[string]map[string]int, len(h.errorStats))
	for op, errs := range h.errorStats {
		inner := make(map[string]int, len(errs))
		for msg, count := range errs {
			inner[msg] = count
		}
		stats[op] = inner
	}
	return stats
}

// PrintErrorStats 打印错误统计信息
func (h *ErrorHandler) PrintErrorStats() {
	stats := h.GetErrorStats()
	if len(stats) == 0 {
		Info("没有错误记录")
		return
	}

	ops := make([]string, 0, len(stats))
	for op := range stats {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	Info("错误统计:")
	for _, op := range ops {
		Info("操作: %s", op)
		for errMsg, count := range stats[op] {
			Info("  - %s: %d次", errMsg, count)
		}
	}
}
