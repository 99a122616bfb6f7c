package audio

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gopxl/beep/wav"
)

// WriteWAV 将片段编码为WAV文件
func WriteWAV(path string, clip *Clip) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建WAV文件失败: %w", err)
	}
	if err := wav.Encode(f, clip.Streamer(), clip.Format()); err != nil {
		f.Close()
		return fmt.Errorf("编码WAV失败: %w", err)
	}
	return f.Close()
}

// WithTempChunk 把片段写入 dir/name 后调用fn，返回前无论成功失败都删除该文件
func WithTempChunk(dir, name string, clip *Clip, fn func(path string) error) error {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建临时目录失败: %w", err)
	}

	path := filepath.Join(dir, name)
	defer os.Remove(path)

	if err := WriteWAV(path, clip); err != nil {
		return err
	}
	return fn(path)
}
