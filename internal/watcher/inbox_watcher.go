package watcher

import (
	"sync"
	"time"

	"github.com/ccp-p/asr-media-cli/retro-transcriber/internal/adapters"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/scanner"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/utils"
)

// StatusPrinter 定期打印处理状态
type StatusPrinter interface {
	PrintStatus()
}

// processorHandler 把文件事件转交给录音处理器，同一时间只处理一个文件
type processorHandler struct {
	processor adapters.MediaProcessor
	mu        sync.Mutex
}

func (h *processorHandler) OnFileCreated(filePath string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.processor.IsRecognizedFile(filePath) {
		utils.Debug("文件已处理，跳过: %s", filePath)
		return
	}
	h.processor.ProcessFile(filePath)
}

func (h *processorHandler) OnFileDeleted(filePath string) {
	utils.Debug("文件已移除: %s", filePath)
}

// InboxWatcher 监控收件目录：启动时先处理已有的新录音，之后处理新写入的录音
type InboxWatcher struct {
	folder       string
	scanner      *scanner.MediaScanner
	handler      *processorHandler
	monitor      *FolderMonitor
	status       StatusPrinter
	statusPeriod time.Duration
	stopChan     chan struct{}
	stopOnce     sync.Once
}

// NewInboxWatcher 创建收件目录监控
func NewInboxWatcher(folder string, processor adapters.MediaProcessor, debounce time.Duration) (*InboxWatcher, error) {
	s := scanner.NewMediaScanner()
	handler := &processorHandler{processor: processor}

	monitor, err := NewFolderMonitor(folder, s.IsAudio, handler, debounce)
	if err != nil {
		return nil, err
	}

	return &InboxWatcher{
		folder:       folder,
		scanner:      s,
		handler:      handler,
		monitor:      monitor,
		statusPeriod: 30 * time.Second,
		stopChan:     make(chan struct{}),
	}, nil
}

// SetStatusPrinter 设置定期状态输出
func (w *InboxWatcher) SetStatusPrinter(status StatusPrinter, period time.Duration) {
	w.status = status
	if period > 0 {
		w.statusPeriod = period
	}
}

// Start 启动监控并处理目录中尚未转写的录音
func (w *InboxWatcher) Start() error {
	if err := w.monitor.Start(); err != nil {
		return err
	}

	go w.processExisting()
	if w.status != nil {
		go w.periodicStatusUpdate()
	}

	utils.Info("收件目录监控已启动: %s", w.folder)
	return nil
}

// Stop 停止监控
func (w *InboxWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
		w.monitor.Stop()
		utils.Info("收件目录监控已停止")
	})
}

func (w *InboxWatcher) processExisting() {
	files, err := w.scanner.ScanDirectory(w.folder)
	if err != nil {
		utils.Error("扫描收件目录失败: %v", err)
		return
	}

	for _, file := range files {
		select {
		case <-w.stopChan:
			return
		default:
		}
		w.handler.OnFileCreated(file.Path)
	}
}

func (w *InboxWatcher) periodicStatusUpdate() {
	ticker := time.NewTicker(w.statusPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.status.PrintStatus()
		}
	}
}
