package adapters

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/export"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/models"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/upsot"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/utils"
)

// MediaProcessor 是处理录音文件的接口
type MediaProcessor interface {
	ProcessFile(filePath string) bool
	IsRecognizedFile(filePath string) bool
}

// Transcriber 转写单个音频文件，由 processor.Pipeline 实现
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) models.TranscriptionResult
}

// PipelineHandler 把流水线适配为 MediaProcessor：转写、导出转写结果和 up-sot
type PipelineHandler struct {
	ctx      context.Context
	pipeline Transcriber
	exporter *export.JSONExporter
	controls *upsot.ParameterControls
	matcher  *upsot.ScriptMatcher

	mu        sync.Mutex
	processed map[string]bool
}

// NewPipelineHandler 创建流水线适配器，ctx 取消后正在进行的转写会尽快结束
func NewPipelineHandler(ctx context.Context, pipeline Transcriber, outputDir string, controls *upsot.ParameterControls, matcher *upsot.ScriptMatcher) *PipelineHandler {
	if controls == nil {
		controls = upsot.NewParameterControls(upsot.DefaultParams())
	}
	if matcher == nil {
		matcher = upsot.NewScriptMatcher()
	}
	return &PipelineHandler{
		ctx:       ctx,
		pipeline:  pipeline,
		exporter:  export.NewJSONExporter(outputDir),
		controls:  controls,
		matcher:   matcher,
		processed: make(map[string]bool),
	}
}

// ProcessFile 转写文件并导出结果，返回是否成功
func (h *PipelineHandler) ProcessFile(filePath string) bool {
	name := filepath.Base(filePath)
	result := h.pipeline.Transcribe(h.ctx, filePath)
	if result.Cancelled {
		// 不导出也不标记，下次启动时重新处理
		utils.Warn("转写被取消 %s，稍后重新处理", name)
		return false
	}

	if _, err := h.exporter.ExportTranscript(result, filePath); err != nil {
		utils.Error("导出转写结果失败 %s: %v", name, err)
		return false
	}
	if !result.Success {
		utils.Warn("转写失败 %s: %s", name, result.Error)
		h.markProcessed(filePath)
		return false
	}

	params := h.controls.Get()
	params.ReferenceScript = h.matcher.Script()
	upSots := upsot.Select(result.Segments, params)
	if _, err := h.exporter.ExportUpSots(upSots, params, filePath); err != nil {
		utils.Error("导出up-sot失败 %s: %v", name, err)
		return false
	}

	h.markProcessed(filePath)
	utils.Info("%s 处理完成: %d 个片段, %d 个up-sot", name, len(result.Segments), len(upSots))
	return true
}

// IsRecognizedFile 文件本次运行已处理过，或输出目录已有对应的转写文件
func (h *PipelineHandler) IsRecognizedFile(filePath string) bool {
	h.mu.Lock()
	done := h.processed[filePath]
	h.mu.Unlock()
	if done {
		return true
	}
	return utils.CheckFileExists(h.exporter.TranscriptPath(filePath))
}

// ProcessedFiles 本次运行处理过的文件
func (h *PipelineHandler) ProcessedFiles() map[string]bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]bool, len(h.processed))
	for k, v := range h.processed {
		out[k] = v
	}
	return out
}

func (h *PipelineHandler) markProcessed(filePath string) {
	h.mu.Lock()
	h.processed[filePath] = true
	h.mu.Unlock()
}
