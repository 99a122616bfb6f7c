package adapters

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/export"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/models"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/upsot"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/utils"
)

type stubTranscriber struct {
	result models.TranscriptionResult
	calls  []string
}

func (s *stubTranscriber) Transcribe(ctx context.Context, audioPath string) models.TranscriptionResult {
	s.calls = append(s.calls, audioPath)
	return s.result
}

func TestPipelineHandlerProcessFile(t *testing.T) {
	out := t.TempDir()
	stub := &stubTranscriber{result: models.TranscriptionResult{
		Success: true,
		Segments: []models.TranscriptSegment{
			{Timecode: "00:00:00", Text: "short", StartMs: 0, EndMs: 400, DurationMs: 400},
			{Timecode: "00:00:01", Text: "hello world", StartMs: 1000, EndMs: 3000, DurationMs: 2000},
		},
		FullTranscript: "short hello world",
	}}

	matcher := upsot.NewScriptMatcher()
	matcher.SetReferenceScript("hello world today")
	controls := upsot.NewParameterControls(upsot.DefaultParams())
	h := NewPipelineHandler(context.Background(), stub, out, controls, matcher)

	audioPath := filepath.Join(t.TempDir(), "take.wav")
	assert.False(t, h.IsRecognizedFile(audioPath))
	assert.True(t, h.ProcessFile(audioPath))
	assert.True(t, h.IsRecognizedFile(audioPath))
	assert.Equal(t, []string{audioPath}, stub.calls)

	doc, err := export.LoadTranscript(filepath.Join(out, "take_transcript.json"))
	require.NoError(t, err)
	assert.Equal(t, "short hello world", doc.Result.FullTranscript)

	var upSots export.UpSotsDocument
	require.NoError(t, utils.LoadJSONFile(filepath.Join(out, "take_upsots.json"), &upSots))
	require.Len(t, upSots.UpSots, 1)
	assert.Equal(t, "hello world", upSots.UpSots[0].Text)
	assert.Equal(t, "hello world today", upSots.Script)
}

func TestPipelineHandlerFailedTranscription(t *testing.T) {
	out := t.TempDir()
	stub := &stubTranscriber{result: models.TranscriptionResult{Error: "无法解码音频"}}
	h := NewPipelineHandler(context.Background(), stub, out, nil, nil)

	audioPath := filepath.Join(t.TempDir(), "broken.wav")
	assert.False(t, h.ProcessFile(audioPath))

	assert.True(t, utils.CheckFileExists(filepath.Join(out, "broken_transcript.json")))
	assert.False(t, utils.CheckFileExists(filepath.Join(out, "broken_upsots.json")))
	assert.True(t, h.ProcessedFiles()[audioPath], "失败的文件也不再重复处理")
}

func TestPipelineHandlerRecognizesExistingOutput(t *testing.T) {
	out := t.TempDir()
	_, err := export.ExportTranscript(models.TranscriptionResult{Success: true}, "old.wav", out)
	require.NoError(t, err)

	h := NewPipelineHandler(context.Background(), &stubTranscriber{}, out, nil, nil)
	assert.True(t, h.IsRecognizedFile("/inbox/old.wav"))
	assert.False(t, h.IsRecognizedFile("/inbox/new.wav"))
}

func TestPipelineHandlerCancelledTranscriptionIsRetried(t *testing.T) {
	out := t.TempDir()
	stub := &stubTranscriber{result: models.TranscriptionResult{Error: context.Canceled.Error(), Cancelled: true}}
	h := NewPipelineHandler(context.Background(), stub, out, nil, nil)

	audioPath := filepath.Join(t.TempDir(), "take.wav")
	assert.False(t, h.ProcessFile(audioPath))

	assert.False(t, utils.CheckFileExists(filepath.Join(out, "take_transcript.json")))
	assert.False(t, utils.CheckFileExists(filepath.Join(out, "take_upsots.json")))
	assert.False(t, h.IsRecognizedFile(audioPath), "被取消的文件下次应重新处理")
}
