package asr

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/utils"
)

// 选择策略
const (
	StrategyRoundRobin = "round_robin"
	StrategyWeighted   = "weighted"
)

// ServiceStats 服务统计数据
type ServiceStats struct {
	SuccessCount int
	TotalCount   int
	Available    bool
}

// ASRSelector 语音服务选择器，负责在多个识别后端之间进行负载均衡
type ASRSelector struct {
	mu              sync.RWMutex
	services        map[string]Recognizer
	weights         map[string]int
	counters        map[string]int
	stats           map[string]*ServiceStats
	roundRobinIndex int
	serviceList     []string // 注册顺序，用于轮询和加权选择
	rng             *rand.Rand
}

// NewASRSelector 创建新的ASR服务选择器
func NewASRSelector() *ASRSelector {
	return &ASRSelector{
		services:        make(map[string]Recognizer),
		weights:         make(map[string]int),
		counters:        make(map[string]int),
		stats:           make(map[string]*ServiceStats),
		roundRobinIndex: -1,
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// RegisterService 注册识别后端，同名注册会替换之前的实例
func (s *ASRSelector) RegisterService(name string, recognizer Recognizer, weight int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.services[name]; !exists {
		s.serviceList = append(s.serviceList, name)
	}
	s.services[name] = recognizer
	s.weights[name] = weight
	s.counters[name] = 0
	s.stats[name] = &ServiceStats{Available: true}

	utils.Info("注册ASR服务: %s, 权重: %d", name, weight)
}

// Service 按名称获取后端
func (s *ASRSelector) Service(name string) (Recognizer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.services[name]
	return r, ok
}

// ServiceNames 已注册的后端名称
func (s *ASRSelector) ServiceNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.serviceList...)
}

// ReportResult 报告服务调用结果，调用超过5次且成功率低于20%的服务会被临时禁用
func (s *ASRSelector) ReportResult(serviceName string, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stat, exists := s.stats[serviceName]
	if !exists {
		return
	}
	if success {
		stat.SuccessCount++
	}
	stat.TotalCount++

	if !success && stat.Available && stat.TotalCount > 5 && float64(stat.SuccessCount)/float64(stat.TotalCount) < 0.2 {
		stat.Available = false
		utils.Warn("ASR服务 %s 成功率过低，临时禁用", serviceName)
	} else if success && !stat.Available {
		stat.Available = true
		utils.Info("ASR服务 %s 恢复可用", serviceName)
	}
}

// SelectService 根据策略选择一个可用且不在exclude中的服务。
// 没有可用服务时退回到被禁用的服务，让它们有机会通过一次成功调用恢复。
func (s *ASRSelector) SelectService(strategy string, exclude map[string]bool) (string, Recognizer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidates := s.candidates(exclude, true)
	if len(candidates) == 0 {
		candidates = s.candidates(exclude, false)
		if len(candidates) == 0 {
			return "", nil, false
		}
		utils.Debug("没有可用的ASR服务，尝试已禁用的服务: %v", candidates)
	}

	var selected string
	switch strategy {
	case StrategyRoundRobin:
		s.roundRobinIndex = (s.roundRobinIndex + 1) % len(candidates)
		selected = candidates[s.roundRobinIndex]
	default:
		selected = s.selectWeighted(candidates)
	}

	s.counters[selected]++
	return selected, s.services[selected], true
}

func (s *ASRSelector) candidates(exclude map[string]bool, available bool) []string {
	names := make([]string, 0, len(s.serviceList))
	for _, name := range s.serviceList {
		if s.stats[name].Available == available && !exclude[name] {
			names = append(names, name)
		}
	}
	return names
}

// selectWeighted 加权随机；权重全为0时取第一个候选
func (s *ASRSelector) selectWeighted(candidates []string) string {
	totalWeight := 0
	for _, name := range candidates {
		totalWeight += s.weights[name]
	}
	if totalWeight <= 0 {
		return candidates[0]
	}

	r := s.rng.Intn(totalWeight)
	cumWeight := 0
	for _, name := range candidates {
		cumWeight += s.weights[name]
		if r < cumWeight {
			return name
		}
	}
	return candidates[0]
}

// GetStats 获取服务使用统计信息
func (s *ASRSelector) GetStats() map[string]map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]map[string]interface{})
	for name, stat := range s.stats {
		successRate := 0.0
		if stat.TotalCount > 0 {
			successRate = float64(stat.SuccessCount) / float64(stat.TotalCount) * 100
		}

		result[name] = map[string]interface{}{
			"count":        s.counters[name],
			"success_rate": fmt.Sprintf("%.1f%%", successRate),
			"available":    stat.Available,
			"weight":       s.weights[name],
		}
	}

	return result
}

// AutoRecognizer 按策略选择后端识别；服务错误时换下一个可用后端，
// 无法识别是确定结果，不再尝试其他后端
type AutoRecognizer struct {
	selector *ASRSelector
	strategy string
}

// NewAutoRecognizer 创建自动选择的识别器
func NewAutoRecognizer(selector *ASRSelector, strategy string) *AutoRecognizer {
	return &AutoRecognizer{selector: selector, strategy: strategy}
}

// Recognize 实现 Recognizer
func (a *AutoRecognizer) Recognize(ctx context.Context, audio []byte) (string, error) {
	tried := make(map[string]bool)
	var lastErr error

	for {
		name, recognizer, ok := a.selector.SelectService(a.strategy, tried)
		if !ok {
			break
		}
		tried[name] = true

		text, err := recognizer.Recognize(ctx, audio)
		switch {
		case err == nil:
			a.selector.ReportResult(name, true)
			return text, nil
		case errors.Is(err, ErrUnrecognized):
			a.selector.ReportResult(name, true)
			return "", err
		case ctx.Err() != nil:
			return "", ctx.Err()
		default:
			a.selector.ReportResult(name, false)
			utils.Warn("ASR服务 %s 调用失败，尝试其他服务: %v", name, err)
			lastErr = err
		}
	}

	if lastErr != nil {
		return "", lastErr
	}
	return "", NewServiceError("auto", 0, fmt.Errorf("没有可用的ASR服务"))
}
