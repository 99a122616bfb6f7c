package asr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T) *ResultCache {
	t.Helper()
	cache, err := OpenResultCache("")
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestResultCacheGetSet(t *testing.T) {
	cache := openTestCache(t)

	_, ok, err := cache.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set("k", "文本"))
	text, ok, err := cache.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "文本", text)
}

func TestResultCacheOnDisk(t *testing.T) {
	dir := t.TempDir()

	cache, err := OpenResultCache(dir)
	require.NoError(t, err)
	require.NoError(t, cache.Set("persist", "hello"))
	require.NoError(t, cache.Close())

	cache, err = OpenResultCache(dir)
	require.NoError(t, err)
	defer cache.Close()

	text, ok, err := cache.Get("persist")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello", text)
}

func TestCachedRecognizer(t *testing.T) {
	cache := openTestCache(t)

	calls := 0
	inner := RecognizerFunc(func(ctx context.Context, audio []byte) (string, error) {
		calls++
		if string(audio) == "noise" {
			return "", ErrUnrecognized
		}
		return "识别:" + string(audio), nil
	})
	cached := NewCachedRecognizer("fake", inner, cache)

	for i := 0; i < 3; i++ {
		text, err := cached.Recognize(context.Background(), []byte("speech"))
		require.NoError(t, err)
		assert.Equal(t, "识别:speech", text)
	}
	assert.Equal(t, 1, calls)

	// 失败结果不缓存
	for i := 0; i < 2; i++ {
		_, err := cached.Recognize(context.Background(), []byte("noise"))
		assert.True(t, errors.Is(err, ErrUnrecognized))
	}
	assert.Equal(t, 3, calls)

	// 不同后端不共享缓存
	other := NewCachedRecognizer("other", inner, cache)
	_, err := other.Recognize(context.Background(), []byte("speech"))
	require.NoError(t, err)
	assert.Equal(t, 4, calls)
}
