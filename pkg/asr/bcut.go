package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/utils"
)

// BcutBaseURL 必剪API基础URL
const BcutBaseURL = "https://member.bilibili.com/x/bcut/rubick-interface"

const (
	bcutUserAgent = "Bilibili/1.0.0 (https://www.bilibili.com)"
	bcutModelID   = "8"

	bcutStateFailed   = 3
	bcutStateComplete = 4
)

// BcutASR 必剪语音识别实现：申请上传 -> 分片上传 -> 提交 -> 创建任务 -> 轮询结果
type BcutASR struct {
	*BaseASR
	BaseURL      string
	PollInterval time.Duration
	MaxPolls     int
}

// NewBcutASR 创建必剪ASR实例
func NewBcutASR(client *http.Client) *BcutASR {
	return &BcutASR{
		BaseASR:      NewBaseASR("bcut", client),
		BaseURL:      BcutBaseURL,
		PollInterval: time.Second,
		MaxPolls:     500,
	}
}

type bcutEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type bcutUploadSession struct {
	InBossKey  string   `json:"in_boss_key"`
	ResourceID string   `json:"resource_id"`
	UploadID   string   `json:"upload_id"`
	PerSize    int      `json:"per_size"`
	UploadURLs []string `json:"upload_urls"`
}

type bcutTaskResult struct {
	State  int    `json:"state"`
	Result string `json:"result"`
}

type bcutUtterances struct {
	Utterances []struct {
		Transcript string  `json:"transcript"`
		StartTime  float64 `json:"start_time"`
		EndTime    float64 `json:"end_time"`
	} `json:"utterances"`
}

// Recognize 实现 Recognizer
func (b *BcutASR) Recognize(ctx context.Context, audio []byte) (string, error) {
	session, err := b.requestUpload(ctx, len(audio))
	if err != nil {
		return "", err
	}

	etags, err := b.uploadParts(ctx, session, audio)
	if err != nil {
		return "", err
	}

	downloadURL, err := b.commitUpload(ctx, session, etags)
	if err != nil {
		return "", err
	}

	taskID, err := b.createTask(ctx, downloadURL)
	if err != nil {
		return "", err
	}

	result, err := b.queryResult(ctx, taskID)
	if err != nil {
		return "", err
	}

	texts := make([]string, 0, len(result.Utterances))
	for _, u := range result.Utterances {
		if t := strings.TrimSpace(u.Transcript); t != "" {
			texts = append(texts, t)
		}
	}
	return recognized(strings.Join(texts, " "))
}

// call 发送请求并解开外层 {code, message, data}
func (b *BcutASR) call(ctx context.Context, method, url string, payload interface{}, data interface{}) error {
	var env bcutEnvelope
	if method == http.MethodPost {
		if err := b.postJSON(ctx, url, payload, map[string]string{"User-Agent": bcutUserAgent}, &env); err != nil {
			return err
		}
	} else {
		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return fmt.Errorf("创建HTTP请求失败: %w", err)
		}
		req.Header.Set("User-Agent", bcutUserAgent)
		if _, err := b.do(req, &env); err != nil {
			return err
		}
	}

	if env.Code != 0 {
		return NewServiceError(b.Name, 0, fmt.Errorf("接口返回错误 %d: %s", env.Code, env.Message))
	}
	if len(env.Data) == 0 {
		return NewServiceError(b.Name, 0, fmt.Errorf("响应格式错误"))
	}
	if err := json.Unmarshal(env.Data, data); err != nil {
		return NewServiceError(b.Name, 0, fmt.Errorf("解析响应数据失败: %w", err))
	}
	return nil
}

func (b *BcutASR) requestUpload(ctx context.Context, size int) (*bcutUploadSession, error) {
	payload := map[string]interface{}{
		"type":             2,
		"name":             "chunk.wav",
		"size":             size,
		"ResourceFileType": "wav",
		"model_id":         bcutModelID,
	}

	var session bcutUploadSession
	if err := b.call(ctx, http.MethodPost, b.BaseURL+"/resource/create", payload, &session); err != nil {
		return nil, err
	}
	if len(session.UploadURLs) == 0 || session.PerSize <= 0 {
		return nil, NewServiceError(b.Name, 0, fmt.Errorf("申请上传返回的分片信息无效"))
	}

	utils.Debug("必剪申请上传成功, 大小%dKB, %d分片", size/1024, len(session.UploadURLs))
	return &session, nil
}

func (b *BcutASR) uploadParts(ctx context.Context, session *bcutUploadSession, audio []byte) ([]string, error) {
	etags := make([]string, len(session.UploadURLs))

	for i, url := range session.UploadURLs {
		start := i * session.PerSize
		end := start + session.PerSize
		if start > len(audio) {
			start = len(audio)
		}
		if end > len(audio) {
			end = len(audio)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(audio[start:end]))
		if err != nil {
			return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
		}
		req.Header.Set("User-Agent", bcutUserAgent)
		req.Header.Set("Content-Type", "application/octet-stream")

		header, body, err := b.doRaw(req)
		if err != nil {
			return nil, err
		}

		etag := header.Get("Etag")
		if etag == "" {
			// 没有Etag头时尝试从响应体获取
			var parsed struct {
				Etag string `json:"etag"`
			}
			if json.Unmarshal(body, &parsed) == nil {
				etag = parsed.Etag
			}
		}
		if etag == "" {
			return nil, NewServiceError(b.Name, 0, fmt.Errorf("分片%d上传失败: 未获取到Etag", i))
		}
		etags[i] = etag
	}

	return etags, nil
}

func (b *BcutASR) commitUpload(ctx context.Context, session *bcutUploadSession, etags []string) (string, error) {
	payload := map[string]interface{}{
		"InBossKey":  session.InBossKey,
		"ResourceId": session.ResourceID,
		"Etags":      strings.Join(etags, ","),
		"UploadId":   session.UploadID,
		"model_id":   bcutModelID,
	}

	var data struct {
		DownloadURL string `json:"download_url"`
	}
	if err := b.call(ctx, http.MethodPost, b.BaseURL+"/resource/create/complete", payload, &data); err != nil {
		return "", err
	}
	return data.DownloadURL, nil
}

func (b *BcutASR) createTask(ctx context.Context, downloadURL string) (string, error) {
	payload := map[string]interface{}{
		"resource": downloadURL,
		"model_id": bcutModelID,
	}

	var data struct {
		TaskID string `json:"task_id"`
	}
	if err := b.call(ctx, http.MethodPost, b.BaseURL+"/task", payload, &data); err != nil {
		return "", err
	}
	utils.Debug("必剪任务已创建: %s", data.TaskID)
	return data.TaskID, nil
}

func (b *BcutASR) queryResult(ctx context.Context, taskID string) (*bcutUtterances, error) {
	url := fmt.Sprintf("%s/task/result?model_id=%s&task_id=%s", b.BaseURL, bcutModelID, taskID)

	for i := 0; i < b.MaxPolls; i++ {
		var task bcutTaskResult
		if err := b.call(ctx, http.MethodGet, url, nil, &task); err != nil {
			return nil, err
		}

		switch task.State {
		case bcutStateComplete:
			var result bcutUtterances
			if err := json.Unmarshal([]byte(task.Result), &result); err != nil {
				return nil, NewServiceError(b.Name, 0, fmt.Errorf("解析结果失败: %w", err))
			}
			return &result, nil
		case bcutStateFailed:
			return nil, NewServiceError(b.Name, 0, fmt.Errorf("任务 %s 识别失败", taskID))
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(b.PollInterval):
		}
	}

	return nil, NewServiceError(b.Name, 0, fmt.Errorf("任务 %s 超时未完成", taskID))
}
