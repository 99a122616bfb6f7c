package audio

import "fmt"

// StorageError 上传目录无法创建或写入
type StorageError struct {
	Path  string
	Cause error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("保存音频失败 %s: %v", e.Path, e.Cause)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// DecodeError 源音频无法读取或已损坏
type DecodeError struct {
	Path  string
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("无法解码音频 %s: %v", e.Path, e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}
