package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/asr"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/audio"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/models"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/utils"
)

// ChunkProgress 分片进度回调，done为已处理的分片数
type ChunkProgress func(done, total int)

// chunkOutcome 单个分片的识别结果分类
type chunkOutcome int

const (
	outcomeRecognized chunkOutcome = iota
	outcomeUnrecognized
	outcomeFailed
)

// Transcriber 逐个分片调用识别服务，生成带时间码的片段
type Transcriber struct {
	Recognizer asr.Recognizer
	TempDir    string
	SampleRate int // 分片重采样率，0表示保持原采样率
	MaxWorkers int
	Retry      *utils.ErrorHandler
}

// NewTranscriber 根据配置创建分片转写器
func NewTranscriber(recognizer asr.Recognizer, cfg *models.Config) *Transcriber {
	return &Transcriber{
		Recognizer: recognizer,
		TempDir:    cfg.TempDir,
		SampleRate: cfg.ChunkSampleRate,
		MaxWorkers: cfg.MaxWorkers,
		Retry:      utils.NewErrorHandler(cfg.MaxRetries, cfg.RetryDelay),
	}
}

// TranscribeRanges 转写每个非静音区间，返回按区间顺序排列的片段。
// 无法识别的分片直接跳过，服务错误记录日志后跳过，都不会中断整体转写。
func (t *Transcriber) TranscribeRanges(ctx context.Context, clip *audio.Clip, ranges []models.SilenceRange, onProgress ChunkProgress) []models.TranscriptSegment {
	// 每次调用使用独立的分片文件名前缀，避免并发调用之间冲突
	invocation := uuid.NewString()
	retry := t.retry()
	results := make([]*models.TranscriptSegment, len(ranges))
	total := len(ranges)

	var (
		mu   sync.Mutex
		done int
	)
	report := func() {
		mu.Lock()
		done++
		current := done
		if onProgress != nil {
			onProgress(current, total)
		}
		mu.Unlock()
	}

	workers := t.MaxWorkers
	if workers > total {
		workers = total
	}

	if workers <= 1 {
		for i, r := range ranges {
			if ctx.Err() != nil {
				utils.Warn("转写已取消，剩余 %d 个分片未处理", total-i)
				break
			}
			results[i] = t.transcribeChunk(ctx, retry, invocation, i, clip, r)
			report()
		}
	} else {
		var wg sync.WaitGroup
		sem := make(chan struct{}, workers) // 信号量限制并发

	loop:
		for i, r := range ranges {
			select {
			case <-ctx.Done():
				utils.Warn("转写已取消，停止派发剩余分片")
				break loop
			case sem <- struct{}{}:
			}

			wg.Add(1)
			go func(index int, r models.SilenceRange) {
				defer wg.Done()
				defer func() { <-sem }()

				results[index] = t.transcribeChunk(ctx, retry, invocation, index, clip, r)
				report()
			}(i, r)
		}
		wg.Wait()
	}

	segments := make([]models.TranscriptSegment, 0, total)
	for _, seg := range results {
		if seg != nil {
			segments = append(segments, *seg)
		}
	}
	return segments
}

// transcribeChunk 处理单个分片，未产生片段时返回nil
func (t *Transcriber) transcribeChunk(ctx context.Context, retry *utils.ErrorHandler, invocation string, index int, clip *audio.Clip, r models.SilenceRange) *models.TranscriptSegment {
	log := utils.WithFields(utils.ChunkFields(index, r.StartMs, r.EndMs))

	chunk := clip.Slice(r.StartMs, r.EndMs)
	if t.SampleRate > 0 {
		if resampled, err := chunk.Resample(t.SampleRate); err != nil {
			log.Warnf("分片重采样失败，使用原始采样率: %v", err)
		} else {
			chunk = resampled
		}
	}

	var text string
	name := fmt.Sprintf("chunk_%s_%04d.wav", invocation, index)
	err := audio.WithTempChunk(t.TempDir, name, chunk, func(path string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("读取分片文件失败: %w", err)
		}
		return retry.RetryIf(ctx, "recognize", asr.IsRetryable, func() error {
			var rerr error
			text, rerr = t.Recognizer.Recognize(ctx, data)
			return rerr
		})
	})

	switch classify(text, err) {
	case outcomeRecognized:
		seg := newSegment(r, strings.TrimSpace(text))
		log.Debugf("分片识别成功: %s", seg.Text)
		return &seg
	case outcomeUnrecognized:
		log.Debug("分片无法识别，跳过")
	default:
		log.Warnf("分片识别失败，跳过: %v", err)
	}
	return nil
}

// retry 未配置时每个分片只尝试一次，不修改 Transcriber
func (t *Transcriber) retry() *utils.ErrorHandler {
	if t.Retry == nil {
		return utils.NewErrorHandler(1, 0)
	}
	return t.Retry
}

// classify 把识别结果归为 识别成功 / 无法识别 / 服务失败
func classify(text string, err error) chunkOutcome {
	switch {
	case err == nil && strings.TrimSpace(text) != "":
		return outcomeRecognized
	case err == nil, errors.Is(err, asr.ErrUnrecognized):
		return outcomeUnrecognized
	default:
		return outcomeFailed
	}
}

// newSegment 按原始音频偏移构造片段
func newSegment(r models.SilenceRange, text string) models.TranscriptSegment {
	return models.TranscriptSegment{
		Timecode:   utils.FormatTimecode(r.StartMs),
		Text:       text,
		StartMs:    r.StartMs,
		EndMs:      r.EndMs,
		DurationMs: r.EndMs - r.StartMs,
	}
}
