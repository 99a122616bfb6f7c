package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// AudioFile 表示收件目录中的一个录音文件
type AudioFile struct {
	Path    string    // 文件路径
	Name    string    // 文件名
	Ext     string    // 小写扩展名
	Size    int64     // 文件大小（字节）
	ModTime time.Time // 修改时间
}

// MediaScanner 扫描目录中的录音文件（不递归）
type MediaScanner struct {
	AudioExtensions []string
}

// NewMediaScanner 创建新的扫描器
func NewMediaScanner() *MediaScanner {
	return &MediaScanner{
		AudioExtensions: []string{".wav", ".mp3", ".flac", ".ogg", ".m4a", ".webm"},
	}
}

// IsAudio 按扩展名判断是否为支持的录音文件，隐藏文件不算
func (s *MediaScanner) IsAudio(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, audioExt := range s.AudioExtensions {
		if ext == audioExt {
			return true
		}
	}
	return false
}

// ScanDirectory 扫描目录，结果按文件名排序
func (s *MediaScanner) ScanDirectory(dir string) ([]AudioFile, error) {
	logrus.Infof("开始扫描目录: %s", dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []AudioFile
	for _, entry := range entries {
		if entry.IsDir() || !s.IsAudio(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			logrus.Warnf("获取文件信息失败: %v", err)
			continue
		}

		files = append(files, AudioFile{
			Path:    filepath.Join(dir, entry.Name()),
			Name:    entry.Name(),
			Ext:     strings.ToLower(filepath.Ext(entry.Name())),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	logrus.Infof("扫描完成，共找到 %d 个录音文件", len(files))
	return files, nil
}

// FilterNewFiles 根据已处理记录过滤出新文件
func (s *MediaScanner) FilterNewFiles(files []AudioFile, processedPaths map[string]bool) []AudioFile {
	var newFiles []AudioFile
	for _, file := range files {
		if !processedPaths[file.Path] {
			newFiles = append(newFiles, file)
		}
	}

	logrus.Infof("过滤后剩余 %d 个新文件需要处理", len(newFiles))
	return newFiles
}

// Paths 提取文件路径
func Paths(files []AudioFile) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}
