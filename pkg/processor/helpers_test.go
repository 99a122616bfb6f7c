package processor

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/asr"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/audio"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/models"
)

const testRate = 8000

func tone(ms int, amp float64) []float64 {
	out := make([]float64, ms*testRate/1000)
	for i := range out {
		if i%2 == 0 {
			out[i] = amp
		} else {
			out[i] = -amp
		}
	}
	return out
}

func silence(ms int) []float64 {
	return make([]float64, ms*testRate/1000)
}

func concat(parts ...[]float64) []float64 {
	var out []float64
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// twoUtterances 1s静音、1s语音、1s静音、0.8s语音、0.7s静音
func twoUtterances() []float64 {
	return concat(silence(1000), tone(1000, 0.5), silence(1000), tone(800, 0.5), silence(700))
}

func writeWAV(t *testing.T, dir, name string, samples []float64) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, audio.WriteWAV(path, audio.ClipFromSamples(testRate, samples)))
	return path
}

func testConfig(t *testing.T) *models.Config {
	t.Helper()
	cfg := models.NewDefaultConfig()
	cfg.TempDir = filepath.Join(t.TempDir(), "chunks")
	cfg.ChunkSampleRate = 0
	cfg.RetryDelay = 0
	return cfg
}

// pcmBytes 16位单声道WAV的采样字节数，用来区分不同长度的分片
func pcmBytes(ms int) int {
	return 44 + ms*testRate/1000*2
}

// byLength 按分片字节数返回固定文本，未命中的返回空文本
func byLength(texts map[int]string) asr.Recognizer {
	return asr.RecognizerFunc(func(ctx context.Context, data []byte) (string, error) {
		return texts[len(data)], nil
	})
}

type countingRecognizer struct {
	mu    sync.Mutex
	calls int
	fn    func(data []byte) (string, error)
}

func (c *countingRecognizer) Recognize(ctx context.Context, data []byte) (string, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.fn(data)
}

func (c *countingRecognizer) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type progressCall struct {
	kind    string
	id      string
	current int
}

type fakeReporter struct {
	mu    sync.Mutex
	calls []progressCall
}

func (f *fakeReporter) CreateProgressBar(id string, total int, prefix string, suffix string) {
	f.record(progressCall{"create", id, total})
}

func (f *fakeReporter) UpdateProgressBar(id string, current int, suffix string) {
	f.record(progressCall{"update", id, current})
}

func (f *fakeReporter) CompleteProgressBar(id string, suffix string) {
	f.record(progressCall{"complete", id, 0})
}

func (f *fakeReporter) record(c progressCall) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *fakeReporter) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.kind
	}
	return out
}

func dirEntries(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return entries
}
