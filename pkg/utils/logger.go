package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// 日志级别常量
const (
	LogLevelVerbose = "VERBOSE"
	LogLevelNormal  = "INFO"
	LogLevelQuiet   = "WARN"
	LogLevelError   = "ERROR"
)

var (
	// Log 全局日志实例
	Log *logrus.Logger

	outputMu sync.Mutex
	// 进度条绘制期间日志只写文件，避免打乱终端
	terminalProgressEnabled bool
	currentLogFile          string
	currentFile             *os.File
)

func init() {
	// 未初始化时也保证可用，测试中直接调用包函数不会丢日志
	Log = logrus.New()
	Log.SetOutput(os.Stdout)
}

// InitLogger 初始化日志系统
// level: 日志级别 (VERBOSE/INFO/WARN/ERROR，大小写不敏感，也接受logrus的级别名)
// logFile: 日志文件路径，空字符串表示仅输出到控制台
func InitLogger(level string, logFile string) error {
	outputMu.Lock()
	defer outputMu.Unlock()

	Log = logrus.New()
	currentLogFile = logFile

	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	Log.SetLevel(parseLevel(level))

	return switchOutput()
}

// switchOutput 按当前模式重新设置输出，调用方持有 outputMu
func switchOutput() error {
	out, file, err := logOutput(currentLogFile)
	if err != nil {
		return err
	}
	Log.SetOutput(out)

	if currentFile != nil {
		currentFile.Close()
	}
	currentFile = file
	return nil
}

func logOutput(logFile string) (io.Writer, *os.File, error) {
	if terminalProgressEnabled {
		if logFile == "" {
			logFile = filepath.Join(os.TempDir(), "retrotape.log")
		}
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return io.Discard, nil, nil
		}
		return file, file, nil
	}

	if logFile == "" {
		return os.Stdout, nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		return nil, nil, fmt.Errorf("创建日志目录失败: %w", err)
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, nil, fmt.Errorf("打开日志文件失败: %w", err)
	}
	// 同时输出到文件和控制台
	return io.MultiWriter(os.Stdout, file), file, nil
}

func parseLevel(level string) logrus.Level {
	switch strings.ToUpper(level) {
	case LogLevelVerbose, "DEBUG":
		return logrus.DebugLevel
	case LogLevelNormal:
		return logrus.InfoLevel
	case LogLevelQuiet, "WARNING":
		return logrus.WarnLevel
	case LogLevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// EnableTerminalProgress 启用终端进度条模式，之后日志不再输出到终端
func EnableTerminalProgress() {
	setTerminalProgress(true)
}

// DisableTerminalProgress 禁用终端进度条模式，日志恢复到终端输出
func DisableTerminalProgress() {
	setTerminalProgress(false)
}

// TerminalProgressEnabled 当前是否处于进度条模式
func TerminalProgressEnabled() bool {
	outputMu.Lock()
	defer outputMu.Unlock()
	return terminalProgressEnabled
}

func setTerminalProgress(enabled bool) {
	outputMu.Lock()
	defer outputMu.Unlock()

	if terminalProgressEnabled == enabled {
		return
	}
	terminalProgressEnabled = enabled
	if err := switchOutput(); err != nil {
		Log.Warnf("切换日志输出失败: %v", err)
	}
}

// Debug 输出调试日志
func Debug(format string, args ...interface{}) {
	if len(args) > 0 {
		Log.Debugf(format, args...)
	} else {
		Log.Debug(format)
	}
}

// Info 输出信息日志
func Info(format string, args ...interface{}) {
	if len(args) > 0 {
		Log.Infof(format, args...)
	} else {
		Log.Info(format)
	}
}

// Warn 输出警告日志
func Warn(format string, args ...interface{}) {
	if len(args) > 0 {
		Log.Warnf(format, args...)
	} else {
		Log.Warn(format)
	}
}

// Error 输出错误日志
func Error(format string, args ...interface{}) {
	if len(args) > 0 {
		Log.Errorf(format, args...)
	} else {
		Log.Error(format)
	}
}

// Fatal 输出致命错误日志并退出
func Fatal(format string, args ...interface{}) {
	if len(args) > 0 {
		Log.Fatalf(format, args...)
	} else {
		Log.Fatal(format)
	}
}

// WithField 创建带字段的日志条目
func WithField(key string, value interface{}) *logrus.Entry {
	return Log.WithField(key, value)
}

// WithFields 创建带多个字段的日志条目
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Log.WithFields(fields)
}

// ChunkFields 分片日志的公共字段
func ChunkFields(index int, startMs, endMs int64) logrus.Fields {
	return logrus.Fields{
		"chunk":    index,
		"start_ms": startMs,
		"end_ms":   endMs,
		"timecode": FormatTimecode(startMs),
	}
}
