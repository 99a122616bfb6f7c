package asr

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIASR 基于 OpenAI 音频转写接口（whisper-1 或兼容服务）
type OpenAIASR struct {
	client openai.Client
	model  string
}

// NewOpenAIASR 创建OpenAI识别后端，baseURL为空时使用官方地址
func NewOpenAIASR(apiKey, baseURL, model string, extra ...option.RequestOption) (*OpenAIASR, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai 缺少 api key")
	}
	if model == "" {
		model = string(openai.AudioModelWhisper1)
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	opts = append(opts, extra...)

	return &OpenAIASR{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

// Recognize 实现 Recognizer
func (o *OpenAIASR) Recognize(ctx context.Context, audio []byte) (string, error) {
	resp, err := o.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(audio), "chunk.wav", "audio/wav"),
		Model: openai.AudioModel(o.model),
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", NewServiceError("openai", apiErr.StatusCode, err)
		}
		return "", NewServiceError("openai", 0, err)
	}
	return recognized(resp.Text)
}
