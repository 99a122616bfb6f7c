package asr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// geminiUnrecognized 提示词中约定的无法识别标记
const geminiUnrecognized = "[UNRECOGNIZED]"

const geminiPrompt = "Transcribe the speech in this audio clip verbatim, in its original language. " +
	"Reply with the transcript only, no timestamps or commentary. " +
	"If the clip contains sound but no intelligible speech, reply exactly " + geminiUnrecognized + "."

// GeminiASR 通过 Gemini 多模态接口转写音频
type GeminiASR struct {
	client *genai.Client
	model  string
}

// NewGeminiASR 创建Gemini识别后端
func NewGeminiASR(ctx context.Context, apiKey, model string) (*GeminiASR, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini 缺少 api key")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("创建genai客户端失败: %w", err)
	}

	return &GeminiASR{client: client, model: model}, nil
}

// Recognize 实现 Recognizer
func (g *GeminiASR) Recognize(ctx context.Context, audio []byte) (string, error) {
	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			genai.NewPartFromText(geminiPrompt),
			genai.NewPartFromBytes(audio, "audio/wav"),
		},
	}}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", geminiServiceError(err)
	}

	return parseGeminiText(resp)
}

// geminiServiceError 保留接口返回的HTTP状态码，4xx不会被重试
func geminiServiceError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return NewServiceError("gemini", apiErr.Code, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return NewServiceError("gemini", apiErrPtr.Code, err)
	}
	return NewServiceError("gemini", 0, err)
}

func parseGeminiText(resp *genai.GenerateContentResponse) (string, error) {
	var sb strings.Builder
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part != nil && !part.Thought {
				sb.WriteString(part.Text)
			}
		}
	}

	text := strings.TrimSpace(sb.String())
	if strings.EqualFold(text, geminiUnrecognized) {
		return "", ErrUnrecognized
	}
	return recognized(text)
}
