package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// TerminalManager 管理终端输出，确保进度条和消息不会混乱
type TerminalManager struct {
	mu     sync.Mutex
	writer io.Writer
}

var (
	globalTerminalManager *TerminalManager
	once                  sync.Once
)

// GetTerminalManager 获取全局终端管理器实例
func GetTerminalManager() *TerminalManager {
	once.Do(func() {
		globalTerminalManager = NewTerminalManager(os.Stdout)
	})
	return globalTerminalManager
}

// NewTerminalManager 创建写入指定输出的终端管理器
func NewTerminalManager(w io.Writer) *TerminalManager {
	return &TerminalManager{writer: w}
}

// PrintMsg 清除当前行后打印一行消息
func (tm *TerminalManager) PrintMsg(format string, args ...interface{}) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	fmt.Fprint(tm.writer, "\033[2K\r")
	fmt.Fprintf(tm.writer, format+"\n", args...)
}

// UpdateProgress 覆盖当前行，line 原样输出
func (tm *TerminalManager) UpdateProgress(line string, newline bool) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	fmt.Fprint(tm.writer, "\033[2K\r")
	fmt.Fprint(tm.writer, line)
	if newline {
		fmt.Fprintln(tm.writer)
	}
}
