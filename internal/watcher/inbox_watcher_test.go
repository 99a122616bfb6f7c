package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcessor struct {
	mu   sync.Mutex
	done map[string]int
}

func (p *fakeProcessor) ProcessFile(filePath string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done[filePath]++
	return true
}

func (p *fakeProcessor) IsRecognizedFile(filePath string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done[filePath] > 0
}

func (p *fakeProcessor) count(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done[path]
}

type countingStatus struct{ n int32 }

func (s *countingStatus) PrintStatus() { atomic.AddInt32(&s.n, 1) }

func TestInboxWatcherProcessesExistingAndNewFiles(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "old.wav")
	require.NoError(t, os.WriteFile(existing, []byte("x"), 0644))

	proc := &fakeProcessor{done: map[string]int{}}
	w, err := NewInboxWatcher(dir, proc, 50*time.Millisecond)
	require.NoError(t, err)

	status := &countingStatus{}
	w.SetStatusPrinter(status, 20*time.Millisecond)
	require.NoError(t, w.Start())
	defer w.Stop()

	assert.Eventually(t, func() bool { return proc.count(existing) == 1 }, 3*time.Second, 20*time.Millisecond)

	fresh := filepath.Join(dir, "new.flac")
	require.NoError(t, os.WriteFile(fresh, []byte("y"), 0644))
	assert.Eventually(t, func() bool { return proc.count(fresh) == 1 }, 3*time.Second, 20*time.Millisecond)

	// 再次写入已处理的文件不会重复处理
	require.NoError(t, os.WriteFile(fresh, []byte("yy"), 0644))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 1, proc.count(fresh))
	assert.Equal(t, 1, proc.count(existing))

	assert.Positive(t, atomic.LoadInt32(&status.n))
}
