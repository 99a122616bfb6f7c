package processor

import (
	"context"
	"errors"
	"strings"

	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/models"
)

// Assemble 把片段组装为成功的转写结果
func Assemble(segments []models.TranscriptSegment) models.TranscriptionResult {
	if segments == nil {
		segments = []models.TranscriptSegment{}
	}
	return models.TranscriptionResult{
		Success:        true,
		Segments:       segments,
		FullTranscript: JoinTranscript(segments),
	}
}

// Failure 构造失败结果，不携带任何部分片段。
// 上下文取消或超时产生的失败会标记 Cancelled。
func Failure(err error) models.TranscriptionResult {
	msg := "未知错误"
	if err != nil {
		msg = err.Error()
	}
	return models.TranscriptionResult{
		Success:   false,
		Error:     msg,
		Cancelled: errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded),
	}
}

// JoinTranscript 用单个空格连接非空文本
func JoinTranscript(segments []models.TranscriptSegment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
