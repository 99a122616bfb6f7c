package upsot

import (
	"strings"
	"sync"
	"unicode"

	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/models"
)

// Tokenize 把文本切分为小写的字母数字串集合
func Tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, f := range fields {
		tokens[f] = struct{}{}
	}
	return tokens
}

// Jaccard 交集大小除以并集大小，任一集合为空时为0
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for tok := range small {
		if _, ok := large[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// ScriptInfo 参考稿的统计信息
type ScriptInfo struct {
	Characters   int `json:"characters"`
	UniqueTokens int `json:"unique_tokens"`
}

// ScriptMatcher 保存参考稿，并按词汇重合度给片段打分
type ScriptMatcher struct {
	mu     sync.RWMutex
	script string
	tokens map[string]struct{}
}

// NewScriptMatcher 创建空的匹配器
func NewScriptMatcher() *ScriptMatcher {
	return &ScriptMatcher{tokens: map[string]struct{}{}}
}

// SetReferenceScript 设置参考稿
func (m *ScriptMatcher) SetReferenceScript(text string) ScriptInfo {
	tokens := Tokenize(text)

	m.mu.Lock()
	m.script = text
	m.tokens = tokens
	m.mu.Unlock()

	return ScriptInfo{Characters: len([]rune(text)), UniqueTokens: len(tokens)}
}

// Script 当前参考稿
func (m *ScriptMatcher) Script() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.script
}

// HasScript 参考稿是否非空
func (m *ScriptMatcher) HasScript() bool {
	return strings.TrimSpace(m.Script()) != ""
}

// ScoreSegments 返回带相关度分数的片段副本，顺序不变
func (m *ScriptMatcher) ScoreSegments(segments []models.TranscriptSegment) []models.TranscriptSegment {
	m.mu.RLock()
	ref := m.tokens
	m.mu.RUnlock()
	return scoreAgainst(ref, segments)
}

func scoreAgainst(ref map[string]struct{}, segments []models.TranscriptSegment) []models.TranscriptSegment {
	scored := make([]models.TranscriptSegment, len(segments))
	for i, seg := range segments {
		scored[i] = seg.WithRelevance(Jaccard(Tokenize(seg.Text), ref))
	}
	return scored
}
