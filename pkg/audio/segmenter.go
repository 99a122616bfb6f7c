package audio

import (
	"math"

	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/models"
)

// SilenceOptions 静音检测参数
type SilenceOptions struct {
	MinSilenceMs    int     // 最短静音长度
	SilenceThreshDB float64 // 静音阈值，相对满幅的dBFS
	SeekStepMs      int     // 扫描步长
}

// DefaultSilenceOptions 默认参数：500ms / -40dBFS / 1ms
func DefaultSilenceOptions() SilenceOptions {
	return SilenceOptions{
		MinSilenceMs:    500,
		SilenceThreshDB: -40,
		SeekStepMs:      1,
	}
}

// SilenceOptionsFromConfig 从配置读取检测参数
func SilenceOptionsFromConfig(cfg *models.Config) SilenceOptions {
	return SilenceOptions{
		MinSilenceMs:    cfg.MinSilenceMs,
		SilenceThreshDB: cfg.SilenceThreshDB,
		SeekStepMs:      cfg.SeekStepMs,
	}
}

func (o SilenceOptions) normalized() SilenceOptions {
	def := DefaultSilenceOptions()
	if o.MinSilenceMs <= 0 {
		o.MinSilenceMs = def.MinSilenceMs
	}
	if o.SeekStepMs <= 0 {
		o.SeekStepMs = def.SeekStepMs
	}
	return o
}

// dbToAmplitude 满幅为1.0
func dbToAmplitude(db float64) float64 {
	return math.Pow(10, db/20)
}

type rmsMeter struct {
	clip   *Clip
	prefix []float64
}

// rms 计算 [startMs, endMs) 的均方根
func (m *rmsMeter) rms(startMs, endMs int64) float64 {
	from, to := m.clip.frameAt(startMs), m.clip.frameAt(endMs)
	if to <= from {
		return 0
	}
	energy := m.prefix[endMs] - m.prefix[startMs]
	if energy < 0 {
		energy = 0
	}
	return math.Sqrt(energy / float64(to-from))
}

// DetectSilence 返回静音区间，每个区间至少 MinSilenceMs 长
func DetectSilence(clip *Clip, opts SilenceOptions) []models.SilenceRange {
	opts = opts.normalized()
	segLen := clip.DurationMs()
	minLen := int64(opts.MinSilenceMs)
	step := int64(opts.SeekStepMs)

	if segLen < minLen {
		return nil
	}

	meter := &rmsMeter{clip: clip, prefix: clip.energyPrefix()}
	thresh := dbToAmplitude(opts.SilenceThreshDB)

	lastSliceStart := segLen - minLen
	var silenceStarts []int64
	check := func(i int64) {
		if meter.rms(i, i+minLen) <= thresh {
			silenceStarts = append(silenceStarts, i)
		}
	}
	for i := int64(0); i <= lastSliceStart; i += step {
		check(i)
	}
	// 步长不整除时补上最后一个窗口
	if lastSliceStart%step != 0 {
		check(lastSliceStart)
	}

	if len(silenceStarts) == 0 {
		return nil
	}

	var ranges []models.SilenceRange
	prev := silenceStarts[0]
	rangeStart := prev
	for _, start := range silenceStarts[1:] {
		continuous := start == prev+step
		hasGap := start > prev+minLen
		if !continuous && hasGap {
			ranges = append(ranges, models.SilenceRange{StartMs: rangeStart, EndMs: prev + minLen})
			rangeStart = start
		}
		prev = start
	}
	ranges = append(ranges, models.SilenceRange{StartMs: rangeStart, EndMs: prev + minLen})
	return ranges
}

// DetectNonSilent 返回按时间排序、互不重叠的非静音区间。
// 全静音返回空列表；短于 MinSilenceMs 的片段整体判断。
func DetectNonSilent(clip *Clip, opts SilenceOptions) []models.SilenceRange {
	opts = opts.normalized()
	segLen := clip.DurationMs()
	if segLen <= 0 {
		return []models.SilenceRange{}
	}

	if segLen < int64(opts.MinSilenceMs) {
		meter := &rmsMeter{clip: clip, prefix: clip.energyPrefix()}
		if meter.rms(0, segLen) <= dbToAmplitude(opts.SilenceThreshDB) {
			return []models.SilenceRange{}
		}
		return []models.SilenceRange{{StartMs: 0, EndMs: segLen}}
	}

	silent := DetectSilence(clip, opts)
	if len(silent) == 0 {
		return []models.SilenceRange{{StartMs: 0, EndMs: segLen}}
	}
	if silent[0].StartMs == 0 && silent[0].EndMs == segLen {
		return []models.SilenceRange{}
	}

	var candidates []models.SilenceRange
	prevEnd := int64(0)
	for _, r := range silent {
		candidates = append(candidates, models.SilenceRange{StartMs: prevEnd, EndMs: r.StartMs})
		prevEnd = r.EndMs
	}
	if silent[len(silent)-1].EndMs != segLen {
		candidates = append(candidates, models.SilenceRange{StartMs: prevEnd, EndMs: segLen})
	}

	ranges := make([]models.SilenceRange, 0, len(candidates))
	for _, r := range candidates {
		if r.EndMs > r.StartMs {
			ranges = append(ranges, r)
		}
	}
	return ranges
}
