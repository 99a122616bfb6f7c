package asr

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWhisperServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/audio/transcriptions"), r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))

		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "chunk.wav", header.Filename)
		assert.Equal(t, "RIFF", string(data))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIRecognize(t *testing.T) {
	srv := newWhisperServer(t, http.StatusOK, `{"text":" hello world "}`)

	o, err := NewOpenAIASR("sk-test", srv.URL+"/v1", "")
	require.NoError(t, err)

	text, err := o.Recognize(context.Background(), []byte("RIFF"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestOpenAIEmptyText(t *testing.T) {
	srv := newWhisperServer(t, http.StatusOK, `{"text":""}`)

	o, err := NewOpenAIASR("sk-test", srv.URL+"/v1", "whisper-1")
	require.NoError(t, err)

	_, err = o.Recognize(context.Background(), []byte("RIFF"))
	assert.ErrorIs(t, err, ErrUnrecognized)
}

func TestOpenAIServiceError(t *testing.T) {
	srv := newWhisperServer(t, http.StatusTooManyRequests, `{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`)

	o, err := NewOpenAIASR("sk-test", srv.URL+"/v1", "whisper-1")
	require.NoError(t, err)

	_, err = o.Recognize(context.Background(), []byte("RIFF"))
	var svcErr *ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, http.StatusTooManyRequests, svcErr.StatusCode)
}

func TestOpenAIRequiresKey(t *testing.T) {
	_, err := NewOpenAIASR("", "", "")
	assert.Error(t, err)
}
