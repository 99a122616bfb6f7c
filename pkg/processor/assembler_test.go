package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/models"
)

func TestAssemble(t *testing.T) {
	segments := []models.TranscriptSegment{
		{Text: "first"},
		{Text: "  "},
		{Text: " second "},
	}
	result := Assemble(segments)

	assert.True(t, result.Success)
	assert.Equal(t, "first second", result.FullTranscript)
	assert.Len(t, result.Segments, 3)
}

func TestAssembleEmpty(t *testing.T) {
	result := Assemble(nil)

	assert.True(t, result.Success)
	require.NotNil(t, result.Segments)
	assert.Empty(t, result.FullTranscript)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"segments":[],"full_transcript":""}`, string(data))
}

func TestFailure(t *testing.T) {
	result := Failure(errors.New("无法解码音频"))

	assert.False(t, result.Success)
	assert.Nil(t, result.Segments)
	assert.Equal(t, "无法解码音频", result.Error)

	assert.Equal(t, "未知错误", Failure(nil).Error)
	assert.False(t, result.Cancelled)
}

func TestFailureMarksCancellation(t *testing.T) {
	assert.True(t, Failure(context.Canceled).Cancelled)
	assert.True(t, Failure(fmt.Errorf("识别: %w", context.DeadlineExceeded)).Cancelled)

	data, err := json.Marshal(Failure(context.Canceled))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":"context canceled"}`, string(data))
}
