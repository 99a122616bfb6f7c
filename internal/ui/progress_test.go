package ui

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/utils"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestProgressBarUpdate(t *testing.T) {
	out := &syncBuffer{}
	bar := newProgressBar(NewTerminalManager(out), 4, "转写", "准备")

	assert.Equal(t, 0, bar.Current)
	bar.Update(2, "识别中")
	assert.Equal(t, 2, bar.Current)
	assert.Equal(t, "识别中", bar.Suffix)
	assert.Contains(t, out.String(), " 50% | 2/4")

	bar.Update(10, "")
	assert.Equal(t, 4, bar.Current, "超出总数时截断")
	assert.Equal(t, "识别中", bar.Suffix, "空后缀保持原值")

	bar.Update(-1, "ignored")
	assert.Equal(t, 4, bar.Current)
}

func TestProgressBarIncrementAndComplete(t *testing.T) {
	out := &syncBuffer{}
	bar := newProgressBar(NewTerminalManager(out), 3, "p", "")

	bar.Increment("")
	bar.Increment("")
	assert.Equal(t, 2, bar.Current)

	bar.Complete("完成")
	assert.Equal(t, 3, bar.Current)
	assert.True(t, strings.HasSuffix(out.String(), "\n"))
	assert.Contains(t, bar.String(), "100% | 3/3")
}

func TestProgressBarZeroTotal(t *testing.T) {
	bar := newProgressBar(NewTerminalManager(&syncBuffer{}), 0, "p", "")
	assert.Equal(t, 1, bar.Total)
	assert.NotPanics(t, func() { bar.Complete("") })
}

func TestProgressManagerLifecycle(t *testing.T) {
	require.NoError(t, utils.InitLogger(utils.LogLevelNormal, ""))
	out := &syncBuffer{}
	pm := NewProgressManagerWithTerminal(true, NewTerminalManager(out))

	pm.CreateProgressBar("chunks", 2, "转写 a.wav", "识别中")
	require.NotNil(t, pm.GetProgressBar("chunks"))
	assert.True(t, utils.TerminalProgressEnabled())

	pm.UpdateProgressBar("chunks", 1, "")
	assert.Equal(t, 1, pm.GetProgressBar("chunks").Current)

	pm.PrintStatus()
	assert.Contains(t, out.String(), "- chunks: 50.0% (1/2)")

	pm.CompleteProgressBar("chunks", "识别完成")
	assert.Nil(t, pm.GetProgressBar("chunks"))
	assert.False(t, utils.TerminalProgressEnabled())
	assert.Contains(t, out.String(), "识别完成")

	pm.UpdateProgressBar("missing", 1, "")
}

func TestProgressManagerDisabled(t *testing.T) {
	out := &syncBuffer{}
	pm := NewProgressManagerWithTerminal(false, NewTerminalManager(out))

	pm.CreateProgressBar("x", 10, "p", "s")
	pm.UpdateProgressBar("x", 5, "")
	pm.CompleteProgressBar("x", "")
	pm.PrintStatus()

	assert.Nil(t, pm.GetProgressBar("x"))
	assert.Empty(t, out.String())
}

func TestProgressManagerCloseAll(t *testing.T) {
	require.NoError(t, utils.InitLogger(utils.LogLevelNormal, ""))
	pm := NewProgressManagerWithTerminal(true, NewTerminalManager(&syncBuffer{}))

	pm.CreateProgressBar("a", 3, "a", "")
	pm.CreateProgressBar("b", 3, "b", "")
	pm.CloseAll("中断")

	assert.Nil(t, pm.GetProgressBar("a"))
	assert.Nil(t, pm.GetProgressBar("b"))
	assert.False(t, utils.TerminalProgressEnabled())
}

func TestProgressManagerConcurrentUpdates(t *testing.T) {
	require.NoError(t, utils.InitLogger(utils.LogLevelNormal, ""))
	pm := NewProgressManagerWithTerminal(true, NewTerminalManager(&syncBuffer{}))
	pm.CreateProgressBar("batch", 50, "批量", "")

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			pm.UpdateProgressBar("batch", n, "")
		}(i)
	}
	wg.Wait()
	pm.CompleteProgressBar("batch", "")
}
