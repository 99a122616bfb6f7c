package processor

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchProcessFilesOrdered(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()

	good1 := writeWAV(t, dir, "a.wav", twoUtterances())
	bad := filepath.Join(dir, "b.wav")
	require.NoError(t, os.WriteFile(bad, []byte("junk"), 0644))
	good2 := writeWAV(t, dir, "c.wav", concat(silence(600), tone(1000, 0.5)))

	pipeline := NewPipeline(cfg, byLength(map[int]string{
		pcmBytes(1000): "long",
		pcmBytes(800):  "short",
	}))

	var (
		mu       sync.Mutex
		started  int
		finished int
	)
	bp := NewBatchProcessor(pipeline, 3, func(current, total int, filename string, result *BatchResult) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 3, total)
		if result == nil {
			started++
		} else {
			finished++
		}
	})
	reporter := &fakeReporter{}
	bp.SetProgressReporter(reporter)

	results := bp.ProcessFiles(context.Background(), []string{good1, bad, good2})

	require.Len(t, results, 3)
	assert.Equal(t, good1, results[0].FilePath)
	assert.True(t, results[0].Result.Success)
	assert.Equal(t, "long short", results[0].Result.FullTranscript)

	assert.Equal(t, bad, results[1].FilePath)
	assert.False(t, results[1].Result.Success)

	assert.Equal(t, good2, results[2].FilePath)
	assert.True(t, results[2].Result.Success)
	assert.Equal(t, "long", results[2].Result.FullTranscript)

	assert.Equal(t, 3, started)
	assert.Equal(t, 3, finished)

	kinds := reporter.kinds()
	require.NotEmpty(t, kinds)
	assert.Equal(t, "create", kinds[0])
	assert.Equal(t, "complete", kinds[len(kinds)-1])
}

func TestBatchProcessEmpty(t *testing.T) {
	bp := NewBatchProcessor(NewPipeline(testConfig(t), byLength(nil)), 0, nil)
	assert.Empty(t, bp.ProcessFiles(context.Background(), nil))
	assert.Equal(t, 1, bp.MaxConcurrency)
}

func TestBatchProcessCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bp := NewBatchProcessor(NewPipeline(testConfig(t), byLength(nil)), 2, nil)
	results := bp.ProcessFiles(ctx, []string{"x.wav", "y.wav"})

	require.Len(t, results, 2)
	for _, r := range results {
		assert.False(t, r.Result.Success)
		assert.True(t, r.Result.Cancelled)
	}
}
