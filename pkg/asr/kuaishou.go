package asr

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/utils"
)

// KuaiShouEndpoint 快手字幕生成接口
const KuaiShouEndpoint = "https://ai.kuaishou.com/api/effects/subtitle_generate"

// KuaiShouASR 快手语音识别实现
type KuaiShouASR struct {
	*BaseASR
	Endpoint string
}

// NewKuaiShouASR 创建快手ASR实例
func NewKuaiShouASR(client *http.Client) *KuaiShouASR {
	return &KuaiShouASR{
		BaseASR:  NewBaseASR("kuaishou", client),
		Endpoint: KuaiShouEndpoint,
	}
}

// KuaiShouResponse 响应结构
type KuaiShouResponse struct {
	Data struct {
		Text []struct {
			Text      string  `json:"text"`
			StartTime float64 `json:"start_time"`
			EndTime   float64 `json:"end_time"`
		} `json:"text"`
	} `json:"data"`
}

// Recognize 实现 Recognizer
func (k *KuaiShouASR) Recognize(ctx context.Context, audio []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("typeId", "1"); err != nil {
		return "", fmt.Errorf("写入表单字段失败: %w", err)
	}
	part, err := writer.CreateFormFile("file", "chunk.wav")
	if err != nil {
		return "", fmt.Errorf("创建表单文件失败: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("写入文件数据失败: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("关闭表单写入器失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.Endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var result KuaiShouResponse
	if _, err := k.do(req, &result); err != nil {
		return "", err
	}

	texts := make([]string, 0, len(result.Data.Text))
	for _, item := range result.Data.Text {
		if t := strings.TrimSpace(item.Text); t != "" {
			texts = append(texts, t)
		}
	}
	utils.Debug("快手ASR返回 %d 段文本", len(texts))

	return recognized(strings.Join(texts, " "))
}
