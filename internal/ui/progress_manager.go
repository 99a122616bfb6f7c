package ui

import (
	"sort"
	"sync"

	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/utils"
)

// ProgressManager 管理多个进度条
type ProgressManager struct {
	progressBars map[string]*ProgressBar
	mutex        sync.Mutex
	enabled      bool
	terminal     *TerminalManager
}

// NewProgressManager 创建新的进度管理器
func NewProgressManager(enabled bool) *ProgressManager {
	return NewProgressManagerWithTerminal(enabled, GetTerminalManager())
}

// NewProgressManagerWithTerminal 使用指定终端输出创建进度管理器
func NewProgressManagerWithTerminal(enabled bool, terminal *TerminalManager) *ProgressManager {
	return &ProgressManager{
		progressBars: make(map[string]*ProgressBar),
		enabled:      enabled,
		terminal:     terminal,
	}
}

// Enabled 是否显示进度条
func (pm *ProgressManager) Enabled() bool {
	return pm.enabled
}

// CreateProgressBar 创建并注册一个新的进度条。
// 第一个进度条出现时日志切换为只写文件，避免打乱进度条显示。
func (pm *ProgressManager) CreateProgressBar(id string, total int, prefix string, suffix string) {
	if !pm.enabled {
		return
	}

	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	if bar, exists := pm.progressBars[id]; exists {
		bar.Complete("已被替换")
	}
	if len(pm.progressBars) == 0 {
		utils.EnableTerminalProgress()
	}

	bar := newProgressBar(pm.terminal, total, prefix, suffix)
	pm.progressBars[id] = bar
	bar.Update(0, "")
}

// GetProgressBar 获取已存在的进度条
func (pm *ProgressManager) GetProgressBar(id string) *ProgressBar {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	return pm.progressBars[id]
}

// UpdateProgressBar 更新进度条
func (pm *ProgressManager) UpdateProgressBar(id string, current int, suffix string) {
	if bar := pm.GetProgressBar(id); bar != nil {
		bar.Update(current, suffix)
	}
}

// CompleteProgressBar 完成进度条并移除
func (pm *ProgressManager) CompleteProgressBar(id string, suffix string) {
	if bar := pm.GetProgressBar(id); bar != nil {
		bar.Complete(suffix)
		pm.RemoveProgressBar(id)
	}
}

// RemoveProgressBar 移除进度条，全部移除后日志恢复终端输出
func (pm *ProgressManager) RemoveProgressBar(id string) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	if _, exists := pm.progressBars[id]; !exists {
		return
	}
	delete(pm.progressBars, id)
	if len(pm.progressBars) == 0 {
		utils.DisableTerminalProgress()
	}
}

// CloseAll 完成所有进度条
func (pm *ProgressManager) CloseAll(suffix string) {
	pm.mutex.Lock()
	bars := make([]*ProgressBar, 0, len(pm.progressBars))
	for _, bar := range pm.progressBars {
		bars = append(bars, bar)
	}
	pm.progressBars = make(map[string]*ProgressBar)
	pm.mutex.Unlock()

	for _, bar := range bars {
		bar.Complete(suffix)
	}
	if len(bars) > 0 {
		utils.DisableTerminalProgress()
	}
}

// PrintStatus 打印当前所有进度条的状态
func (pm *ProgressManager) PrintStatus() {
	if !pm.enabled {
		return
	}

	pm.mutex.Lock()
	ids := make([]string, 0, len(pm.progressBars))
	for id := range pm.progressBars {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	bars := make([]*ProgressBar, len(ids))
	for i, id := range ids {
		bars[i] = pm.progressBars[id]
	}
	pm.mutex.Unlock()

	if len(bars) == 0 {
		return
	}
	pm.terminal.PrintMsg("\n当前进度状态:")
	for i, bar := range bars {
		bar.mu.Lock()
		current, total, suffix := bar.Current, bar.Total, bar.Suffix
		bar.mu.Unlock()
		percent := float64(current) / float64(total) * 100
		pm.terminal.PrintMsg("- %s: %.1f%% (%d/%d) %s", ids[i], percent, current, total, suffix)
	}
}
