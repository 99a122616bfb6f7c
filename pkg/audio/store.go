package audio

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/utils"
)

// Store 把上传或录制的原始音频写入上传目录
type Store struct {
	UploadFolder string
	now          func() time.Time
}

// NewStore 创建音频存储
func NewStore(uploadFolder string) *Store {
	return &Store{
		UploadFolder: uploadFolder,
		now:          time.Now,
	}
}

// Save 将字节写入 <UploadFolder>/<filename>，filename为空时生成 recording_<时间戳>.wav。
// 同名文件会被直接覆盖，不校验音频内容。
func (s *Store) Save(data []byte, filename string) (string, error) {
	name := filepath.Base(filename)
	if filename == "" || name == "." || name == string(filepath.Separator) {
		name = "recording_" + utils.RecordingTimestamp(s.now()) + ".wav"
	}
	path := filepath.Join(s.UploadFolder, name)

	if err := os.MkdirAll(s.UploadFolder, 0755); err != nil {
		return "", &StorageError{Path: s.UploadFolder, Cause: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", &StorageError{Path: path, Cause: err}
	}

	utils.Info("音频已保存: %s (%s)", path, utils.FormatFileSize(int64(len(data))))
	return path, nil
}

// SaveAudio 保存音频到指定目录
func SaveAudio(uploadFolder string, data []byte, filename string) (string, error) {
	return NewStore(uploadFolder).Save(data, filename)
}
