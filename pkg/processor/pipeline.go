package processor

import (
	"context"
	"path/filepath"
	"time"

	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/asr"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/audio"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/models"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/utils"
)

// Pipeline 录音转写流水线：解码、静音切分、逐段识别、组装
type Pipeline struct {
	Decoder     *audio.Decoder
	Silence     audio.SilenceOptions
	Transcriber *Transcriber
	Progress    ProgressReporter
}

// NewPipeline 根据配置创建流水线
func NewPipeline(cfg *models.Config, recognizer asr.Recognizer) *Pipeline {
	return &Pipeline{
		Decoder:     audio.NewDecoder(cfg.TempDir),
		Silence:     audio.SilenceOptionsFromConfig(cfg),
		Transcriber: NewTranscriber(recognizer, cfg),
	}
}

// SetProgressReporter 设置进度显示
func (p *Pipeline) SetProgressReporter(reporter ProgressReporter) {
	p.Progress = reporter
}

// Transcribe 转写一个音频文件。错误不会以error返回，而是折叠进结果中。
func (p *Pipeline) Transcribe(ctx context.Context, audioPath string) models.TranscriptionResult {
	name := filepath.Base(audioPath)
	return p.TranscribeWithProgress(ctx, audioPath, chunkProgressBar(p.Progress, "chunks_"+name, "转写 "+name))
}

// TranscribeWithProgress 与 Transcribe 相同，额外接收分片进度回调
func (p *Pipeline) TranscribeWithProgress(ctx context.Context, audioPath string, onProgress ChunkProgress) models.TranscriptionResult {
	start := time.Now()
	name := filepath.Base(audioPath)

	if err := ctx.Err(); err != nil {
		return Failure(err)
	}

	clip, err := p.Decoder.Decode(ctx, audioPath)
	if err != nil {
		utils.Error("音频解码失败: %v", err)
		return Failure(err)
	}

	ranges := audio.DetectNonSilent(clip, p.Silence)
	utils.Info("%s: 时长 %s，检测到 %d 个非静音片段", name,
		utils.FormatTimeDuration(float64(clip.DurationMs())/1000), len(ranges))

	segments := p.Transcriber.TranscribeRanges(ctx, clip, ranges, onProgress)
	if err := ctx.Err(); err != nil {
		utils.Warn("%s: 转写被取消，已完成 %d/%d 个片段，结果不保存", name, len(segments), len(ranges))
		return Failure(err)
	}
	result := Assemble(segments)

	utils.Info("%s: 转写完成，%d/%d 个片段有文本，耗时 %s", name, len(segments), len(ranges),
		utils.FormatTimeDuration(time.Since(start).Seconds()))
	return result
}
