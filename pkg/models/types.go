package models

import "encoding/json"

// SilenceRange 表示检测到的一个非静音区间（毫秒），左闭右开
type SilenceRange struct {
	StartMs int64 `json:"start_ms"`
	EndMs   int64 `json:"end_ms"`
}

// DurationMs 区间时长
func (r SilenceRange) DurationMs() int64 {
	return r.EndMs - r.StartMs
}

// TranscriptSegment 表示一个带时间码的转写片段
// StartMs/EndMs 始终是相对原始音频的偏移，而不是分片文件内的偏移
type TranscriptSegment struct {
	Timecode       string   `json:"timecode"`
	Text           string   `json:"text"`
	StartMs        int64    `json:"start_ms"`
	EndMs          int64    `json:"end_ms"`
	DurationMs     int64    `json:"duration_ms"`
	RelevanceScore *float64 `json:"relevance_score,omitempty"`
}

// WithRelevance 返回带相关度分数的副本
func (s TranscriptSegment) WithRelevance(score float64) TranscriptSegment {
	s.RelevanceScore = &score
	return s
}

// TranscriptionResult 一次转写调用的结果
type TranscriptionResult struct {
	Success        bool                `json:"success"`
	Segments       []TranscriptSegment `json:"segments"`
	FullTranscript string              `json:"full_transcript"`
	Error          string              `json:"error,omitempty"`

	// Cancelled 转写被取消，结果不完整，不应导出
	Cancelled bool `json:"-"`
}

// MarshalJSON 失败结果只输出 success 和 error
func (r TranscriptionResult) MarshalJSON() ([]byte, error) {
	if !r.Success {
		return json.Marshal(struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
		}{false, r.Error})
	}
	type plain TranscriptionResult
	p := plain(r)
	if p.Segments == nil {
		p.Segments = []TranscriptSegment{}
	}
	return json.Marshal(p)
}
