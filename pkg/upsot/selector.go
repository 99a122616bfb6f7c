package upsot

import (
	"sort"
	"strings"

	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/models"
)

// Params up-sot 选择参数
type Params struct {
	MaxCount        int     `json:"up_sots_count" validate:"min=0,max=30"` // 0表示不限数量
	Sensitivity     float64 `json:"sensitivity" validate:"min=0,max=1"`
	SortByRelevance bool    `json:"sort_by_relevance"`
	ReferenceScript string  `json:"-"`
}

// DefaultParams 默认参数：最多10个，灵敏度0.5，按时间排序
func DefaultParams() Params {
	return Params{MaxCount: 10, Sensitivity: 0.5}
}

// ParamsFromConfig 从配置读取默认参数
func ParamsFromConfig(cfg *models.Config) Params {
	return Params{
		MaxCount:        cfg.UpSotsCount,
		Sensitivity:     cfg.Sensitivity,
		SortByRelevance: cfg.SortByRelevance,
	}
}

// MinDurationMs 灵敏度越高，最短时长门槛越低：1.0 → 500ms，0.0 → 1500ms
func MinDurationMs(sensitivity float64) float64 {
	return 1000 * (1.5 - sensitivity)
}

// Select 从片段中挑选 up-sot。输入切片不会被修改。
func Select(segments []models.TranscriptSegment, p Params) []models.TranscriptSegment {
	floor := MinDurationMs(p.Sensitivity)

	picked := make([]models.TranscriptSegment, 0, len(segments))
	for _, seg := range segments {
		if float64(seg.DurationMs) >= floor {
			picked = append(picked, seg)
		}
	}

	if p.SortByRelevance && strings.TrimSpace(p.ReferenceScript) != "" {
		picked = scoreAgainst(Tokenize(p.ReferenceScript), picked)
		sort.SliceStable(picked, func(i, j int) bool {
			return *picked[i].RelevanceScore > *picked[j].RelevanceScore
		})
	} else {
		sort.SliceStable(picked, func(i, j int) bool {
			return picked[i].StartMs < picked[j].StartMs
		})
	}

	if p.MaxCount > 0 && len(picked) > p.MaxCount {
		picked = picked[:p.MaxCount]
	}
	return picked
}

// SelectUpSots 按位置参数调用 Select
func SelectUpSots(segments []models.TranscriptSegment, maxCount int, sensitivity float64, sortByRelevance bool, referenceScript string) []models.TranscriptSegment {
	return Select(segments, Params{
		MaxCount:        maxCount,
		Sensitivity:     sensitivity,
		SortByRelevance: sortByRelevance,
		ReferenceScript: referenceScript,
	})
}
