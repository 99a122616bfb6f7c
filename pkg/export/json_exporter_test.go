package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/models"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/upsot"
)

func fixedExporter(dir string) *JSONExporter {
	e := NewJSONExporter(dir)
	e.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	return e
}

func sampleResult() models.TranscriptionResult {
	return models.TranscriptionResult{
		Success: true,
		Segments: []models.TranscriptSegment{
			{Timecode: "00:00:01", Text: "hello", StartMs: 1000, EndMs: 2500, DurationMs: 1500},
			{Timecode: "00:00:03", Text: "world", StartMs: 3000, EndMs: 3800, DurationMs: 800},
		},
		FullTranscript: "hello world",
	}
}

func TestExportTranscriptRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	e := fixedExporter(dir)

	path, err := e.ExportTranscript(sampleResult(), "/uploads/recording_20240501_100000.wav")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "recording_20240501_100000_transcript.json"), path)

	doc, err := LoadTranscript(path)
	require.NoError(t, err)
	assert.Equal(t, "recording_20240501_100000.wav", doc.Source)
	assert.Equal(t, sampleResult(), doc.Result)
}

func TestExportTranscriptEmptySegments(t *testing.T) {
	dir := t.TempDir()
	path, err := ExportTranscript(models.TranscriptionResult{Success: true}, "quiet.wav", dir)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"segments": []`)
}

func TestLoadTranscriptRejectsFailure(t *testing.T) {
	dir := t.TempDir()
	path, err := ExportTranscript(models.TranscriptionResult{Error: "无法解码音频"}, "bad.wav", dir)
	require.NoError(t, err)

	_, err = LoadTranscript(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "无法解码音频")
}

func TestLoadTranscriptMissing(t *testing.T) {
	_, err := LoadTranscript(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestExportUpSots(t *testing.T) {
	dir := t.TempDir()
	e := fixedExporter(dir)

	params := upsot.Params{MaxCount: 5, Sensitivity: 0.5, SortByRelevance: true, ReferenceScript: "hello there"}
	picked := upsot.Select(sampleResult().Segments, params)

	path, err := e.ExportUpSots(picked, params, "take1.wav")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "take1_upsots.json"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc struct {
		Source     string                     `json:"source"`
		Parameters map[string]interface{}     `json:"parameters"`
		Script     string                     `json:"reference_script"`
		UpSots     []models.TranscriptSegment `json:"up_sots"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))

	assert.Equal(t, "take1.wav", doc.Source)
	assert.Equal(t, "hello there", doc.Script)
	assert.Equal(t, float64(5), doc.Parameters["up_sots_count"])
	require.Len(t, doc.UpSots, 1)
	assert.Equal(t, "hello", doc.UpSots[0].Text)
	require.NotNil(t, doc.UpSots[0].RelevanceScore)
	assert.InDelta(t, 0.5, *doc.UpSots[0].RelevanceScore, 1e-9)
}

func TestExportUpSotsNil(t *testing.T) {
	path, err := ExportUpSots(nil, upsot.DefaultParams(), "x.wav", t.TempDir())
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"up_sots": []`)
}
