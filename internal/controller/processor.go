package controller

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/ccp-p/asr-media-cli/retro-transcriber/internal/adapters"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/internal/ui"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/internal/watcher"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/asr"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/audio"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/export"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/models"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/processor"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/upsot"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/utils"
)

// 各后端在自动选择时的权重
const (
	weightKuaishou = 10
	weightBcut     = 30
	weightOpenAI   = 20
	weightGemini   = 20
)

// ProcessorController 处理器控制器，协调各个组件工作
type ProcessorController struct {
	Config *models.Config

	ProgressManager *ui.ProgressManager

	Store          *audio.Store
	ASRSelector    *asr.ASRSelector
	Recognizer     asr.Recognizer
	Pipeline       *processor.Pipeline
	BatchProcessor *processor.BatchProcessor
	Exporter       *export.JSONExporter
	Controls       *upsot.ParameterControls
	Matcher        *upsot.ScriptMatcher
	Errors         *utils.ErrorHandler // 识别重试与导出共用的错误统计

	ctx        context.Context
	cancelFunc context.CancelFunc

	Stats struct {
		StartTime       time.Time
		TotalFiles      int
		SuccessfulFiles int
		FailedFiles     int
	}

	cache   *asr.ResultCache
	cleanup []func()
	mu      sync.Mutex
}

// NewProcessorController 加载配置、初始化日志并创建所有组件
func NewProcessorController(configFile string, logLevel string, logFile string) (*ProcessorController, error) {
	cfg, err := LoadConfig(configFile)
	if err != nil {
		return nil, err
	}
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	if logFile == "" {
		logFile = cfg.LogFile
	}
	if err := utils.InitLogger(logLevel, logFile); err != nil {
		return nil, fmt.Errorf("初始化日志失败: %v", err)
	}

	pc, err := newController(context.Background(), cfg, nil)
	if err != nil {
		return nil, err
	}
	pc.setupSignalHandlers()
	return pc, nil
}

// LoadConfig 读取配置文件并用环境变量补全密钥，文件不存在时使用默认配置
func LoadConfig(configFile string) (*models.Config, error) {
	cfg := models.NewDefaultConfig()
	if configFile != "" {
		if utils.CheckFileExists(configFile) {
			if err := cfg.LoadFromFile(configFile); err != nil {
				return nil, fmt.Errorf("加载配置失败: %w", err)
			}
		} else {
			utils.Warn("配置文件不存在: %s，将使用默认配置", configFile)
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newController 创建控制器；recognizer 非空时直接使用，不注册任何后端
func newController(parent context.Context, cfg *models.Config, recognizer asr.Recognizer) (*ProcessorController, error) {
	ctx, cancel := context.WithCancel(parent)

	pc := &ProcessorController{
		Config:          cfg,
		ProgressManager: ui.NewProgressManager(cfg.ShowProgress),
		Store:           audio.NewStore(cfg.UploadFolder),
		ASRSelector:     asr.NewASRSelector(),
		Exporter:        export.NewJSONExporter(cfg.OutputFolder),
		Controls:        upsot.NewParameterControls(upsot.ParamsFromConfig(cfg)),
		Matcher:         upsot.NewScriptMatcher(),
		ctx:             ctx,
		cancelFunc:      cancel,
	}
	pc.addCleanup(cancel)

	if cfg.TempDir == "" {
		tempDir, err := os.MkdirTemp("", "retrotape")
		if err != nil {
			pc.Cleanup()
			return nil, fmt.Errorf("创建临时目录失败: %v", err)
		}
		cfg.TempDir = tempDir
		pc.addCleanup(func() {
			os.RemoveAll(tempDir)
			cfg.TempDir = ""
		})
	}

	if recognizer == nil {
		if cfg.UseCache {
			cache, err := asr.OpenResultCache(cfg.CacheDir)
			if err != nil {
				utils.Warn("打开识别缓存失败，将不使用缓存: %v", err)
			} else {
				pc.cache = cache
				pc.addCleanup(func() { cache.Close() })
			}
		}

		pc.registerASRServices()
		r, err := pc.buildRecognizer()
		if err != nil {
			pc.Cleanup()
			return nil, err
		}
		recognizer = r
	}
	pc.Recognizer = recognizer

	pc.Pipeline = processor.NewPipeline(cfg, recognizer)
	pc.Pipeline.SetProgressReporter(pc.ProgressManager)
	pc.Errors = pc.Pipeline.Transcriber.Retry
	pc.BatchProcessor = processor.NewBatchProcessor(pc.Pipeline, 1, pc.batchProgressCallback)

	return pc, nil
}

// Context 控制器的上下文，收到中断信号后取消
func (pc *ProcessorController) Context() context.Context {
	return pc.ctx
}

// registerASRServices 注册所有可用的识别后端
func (pc *ProcessorController) registerASRServices() {
	client := &http.Client{Timeout: 60 * time.Second}

	pc.register("kuaishou", asr.NewKuaiShouASR(client), weightKuaishou)
	pc.register("bcut", asr.NewBcutASR(client), weightBcut)

	if pc.Config.OpenAIAPIKey != "" {
		r, err := asr.NewOpenAIASR(pc.Config.OpenAIAPIKey, pc.Config.OpenAIBaseURL, pc.Config.OpenAIModel)
		if err != nil {
			utils.Warn("初始化OpenAI识别失败: %v", err)
		} else {
			pc.register("openai", r, weightOpenAI)
		}
	}

	if pc.Config.GeminiAPIKey != "" {
		r, err := asr.NewGeminiASR(pc.ctx, pc.Config.GeminiAPIKey, pc.Config.GeminiModel)
		if err != nil {
			utils.Warn("初始化Gemini识别失败: %v", err)
		} else {
			pc.register("gemini", r, weightGemini)
		}
	}
}

func (pc *ProcessorController) register(name string, r asr.Recognizer, weight int) {
	if pc.cache != nil {
		r = asr.NewCachedRecognizer(name, r, pc.cache)
	}
	pc.ASRSelector.RegisterService(name, r, weight)
}

// buildRecognizer 按配置选择固定后端或自动选择
func (pc *ProcessorController) buildRecognizer() (asr.Recognizer, error) {
	name := pc.Config.ASRService
	if name == "auto" {
		utils.Info("使用自动选择的ASR服务 (%s): %v", pc.Config.ASRStrategy, pc.ASRSelector.ServiceNames())
		return asr.NewAutoRecognizer(pc.ASRSelector, pc.Config.ASRStrategy), nil
	}

	r, ok := pc.ASRSelector.Service(name)
	if !ok {
		return nil, fmt.Errorf("ASR服务 %s 不可用，请检查API密钥配置", name)
	}
	utils.Info("使用ASR服务: %s", name)
	return r, nil
}

// SaveRecording 保存录音到上传目录
func (pc *ProcessorController) SaveRecording(data []byte, filename string) (string, error) {
	return pc.Store.Save(data, filename)
}

// TranscribeFiles 转写文件并导出转写结果和 up-sot
func (pc *ProcessorController) TranscribeFiles(files []string) []processor.BatchResult {
	pc.Stats.StartTime = time.Now()

	results := pc.BatchProcessor.ProcessFiles(pc.ctx, files)
	for _, r := range results {
		if r.Result.Cancelled {
			utils.Warn("%s 转写被取消，未导出结果", filepath.Base(r.FilePath))
			continue
		}
		if err := pc.exportResult(r); err != nil {
			utils.Error("导出失败 %s: %v", filepath.Base(r.FilePath), err)
		}
	}

	pc.updateStats(results)
	return results
}

// exportResult 导出转写结果和 up-sot。
// up-sot 导出失败时删除已写入的转写文件，使该录音下次仍会被处理。
func (pc *ProcessorController) exportResult(r processor.BatchResult) error {
	transcriptPath := pc.Exporter.TranscriptPath(r.FilePath)
	return pc.Errors.SafeExecute("export", func() error {
		if _, err := pc.Exporter.ExportTranscript(r.Result, r.FilePath); err != nil {
			return err
		}
		if !r.Result.Success {
			return nil
		}
		_, _, err := pc.exportUpSots(r.Result.Segments, r.FilePath)
		return err
	}, func() {
		os.Remove(transcriptPath)
	})
}

// SelectFromTranscript 读取已导出的转写文件重新挑选 up-sot
func (pc *ProcessorController) SelectFromTranscript(transcriptPath string) ([]models.TranscriptSegment, string, error) {
	doc, err := export.LoadTranscript(transcriptPath)
	if err != nil {
		return nil, "", err
	}
	audioPath := filepath.Join(filepath.Dir(transcriptPath), doc.Source)
	return pc.exportUpSots(doc.Result.Segments, audioPath)
}

func (pc *ProcessorController) exportUpSots(segments []models.TranscriptSegment, audioPath string) ([]models.TranscriptSegment, string, error) {
	params := pc.Controls.Get()
	params.ReferenceScript = pc.Matcher.Script()
	upSots := upsot.Select(segments, params)

	path, err := pc.Exporter.ExportUpSots(upSots, params, audioPath)
	if err != nil {
		return nil, "", err
	}
	return upSots, path, nil
}

// StartWatchMode 监控收件目录直到收到中断信号
func (pc *ProcessorController) StartWatchMode() error {
	folder := pc.Config.EffectiveWatchFolder()
	handler := adapters.NewPipelineHandler(pc.ctx, pc.Pipeline, pc.Config.OutputFolder, pc.Controls, pc.Matcher)

	w, err := watcher.NewInboxWatcher(folder, handler, 2*time.Second)
	if err != nil {
		return err
	}
	w.SetStatusPrinter(pc.ProgressManager, 30*time.Second)
	if err := w.Start(); err != nil {
		return err
	}
	pc.addCleanup(w.Stop)

	utils.Info("监控已启动，按Ctrl+C退出...")
	return pc.waitForTermination()
}

// PrintASRStats 输出后端调用统计
func (pc *ProcessorController) PrintASRStats() {
	stats := pc.ASRSelector.GetStats()
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	utils.Info("ASR服务统计信息:")
	for _, name := range names {
		stat := stats[name]
		utils.Info("%s: 调用次数=%d, 成功率=%s, 可用=%v",
			name, stat["count"], stat["success_rate"], stat["available"])
	}
}

func (pc *ProcessorController) batchProgressCallback(current, total int, filename string, result *processor.BatchResult) {
	if pc.ProgressManager.Enabled() {
		return
	}
	if result == nil {
		fmt.Printf("\n[%d/%d] 开始处理: %s\n", current, total, filename)
		return
	}
	if result.Result.Success {
		color.Green("[%d/%d] 处理成功: %s (%d 个片段, 用时 %s)", current, total, filename,
			len(result.Result.Segments), utils.FormatTimeDuration(result.ProcessTime.Seconds()))
	} else {
		color.Red("[%d/%d] 处理失败: %s - %s", current, total, filename, result.Result.Error)
	}
}

func (pc *ProcessorController) addCleanup(cleanup func()) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.cleanup = append(pc.cleanup, cleanup)
}

// Cleanup 逆序执行所有清理函数
func (pc *ProcessorController) Cleanup() {
	pc.mu.Lock()
	cleanup := pc.cleanup
	pc.cleanup = nil
	pc.mu.Unlock()

	if pc.ProgressManager != nil {
		pc.ProgressManager.CloseAll("已中断")
	}

	if pc.Errors != nil && len(pc.Errors.GetErrorStats()) > 0 {
		pc.Errors.PrintErrorStats()
	}

	for i := len(cleanup) - 1; i >= 0; i-- {
		cleanup[i]()
	}

	utils.DisableTerminalProgress()
}

func (pc *ProcessorController) setupSignalHandlers() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-c:
			utils.Info("接收到中断信号，正在停止...")
			pc.cancelFunc()
		case <-pc.ctx.Done():
		}
		signal.Stop(c)
	}()
}

func (pc *ProcessorController) waitForTermination() error {
	<-pc.ctx.Done()
	return nil
}

func (pc *ProcessorController) updateStats(results []processor.BatchResult) {
	pc.Stats.TotalFiles = len(results)
	pc.Stats.SuccessfulFiles = 0
	pc.Stats.FailedFiles = 0
	for _, r := range results {
		if r.Result.Success {
			pc.Stats.SuccessfulFiles++
		} else {
			pc.Stats.FailedFiles++
		}
	}
}
