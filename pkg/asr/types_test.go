package asr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServiceErrorWrapping(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("chunk 3: %w", NewServiceError("kuaishou", 0, cause))

	var svcErr *ServiceError
	assert.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "kuaishou", svcErr.Backend)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "kuaishou")
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewServiceError("x", 0, errors.New("timeout"))))
	assert.True(t, IsRetryable(NewServiceError("x", http.StatusTooManyRequests, errors.New("quota"))))
	assert.True(t, IsRetryable(NewServiceError("x", http.StatusBadGateway, errors.New("bad gateway"))))
	assert.False(t, IsRetryable(NewServiceError("x", http.StatusBadRequest, errors.New("malformed"))))
	assert.False(t, IsRetryable(ErrUnrecognized))
	assert.False(t, IsRetryable(context.Canceled))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestRecognized(t *testing.T) {
	text, err := recognized("  hello  ")
	assert.NoError(t, err)
	assert.Equal(t, "hello", text)

	_, err = recognized(" \n ")
	assert.ErrorIs(t, err, ErrUnrecognized)
}

func TestCacheKey(t *testing.T) {
	a := CacheKey("openai", []byte("chunk-a"))
	b := CacheKey("openai", []byte("chunk-b"))
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, CacheKey("openai", []byte("chunk-a")))
	assert.Regexp(t, `^openai-[0-9a-f]{8}$`, a)
}
