package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"net/http"
	"strings"
	"time"
)

// 默认HTTP超时
const defaultHTTPTimeout = 60 * time.Second

// BaseASR HTTP类后端的公共部分
type BaseASR struct {
	Name   string
	Client *http.Client
}

// NewBaseASR 创建公共部分，client为nil时使用默认超时的客户端
func NewBaseASR(name string, client *http.Client) *BaseASR {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &BaseASR{Name: name, Client: client}
}

// ChunkCRC32 分片内容的CRC32（十六进制）
func ChunkCRC32(audio []byte) string {
	return fmt.Sprintf("%08x", crc32.ChecksumIEEE(audio))
}

// CacheKey 缓存键：<后端名>-<crc32>
func CacheKey(backend string, audio []byte) string {
	return fmt.Sprintf("%s-%s", backend, ChunkCRC32(audio))
}

// doRaw 发送请求并返回响应头和响应体；传输失败和非2xx转为 *ServiceError
func (b *BaseASR) doRaw(req *http.Request) (http.Header, []byte, error) {
	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, nil, NewServiceError(b.Name, 0, fmt.Errorf("发送HTTP请求失败: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, NewServiceError(b.Name, resp.StatusCode, fmt.Errorf("读取响应失败: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, NewServiceError(b.Name, resp.StatusCode, fmt.Errorf("响应异常: %s", truncate(string(body), 200)))
	}
	return resp.Header, body, nil
}

// do 同 doRaw，并把响应JSON解码到out；解析失败也是 *ServiceError
func (b *BaseASR) do(req *http.Request, out interface{}) (http.Header, error) {
	header, body, err := b.doRaw(req)
	if err != nil {
		return nil, err
	}

	if out != nil && len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return nil, NewServiceError(b.Name, http.StatusOK, fmt.Errorf("解析JSON响应失败: %w", err))
		}
	}
	return header, nil
}

// postJSON POST一个JSON请求
func (b *BaseASR) postJSON(ctx context.Context, url string, payload interface{}, headers map[string]string, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("JSON编码失败: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	_, err = b.do(req, out)
	return err
}

// recognized 空文本视为无法识别
func recognized(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrUnrecognized
	}
	return text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
