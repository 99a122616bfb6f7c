package audio

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// ToMono 下混为单声道
func (c *Clip) ToMono() *Clip {
	if c.Format().NumChannels == 1 {
		return c
	}
	return ClipFromSamples(c.SampleRate(), c.MonoSamples())
}

// Resample 转换为目标采样率的单声道片段；rate<=0 或与原采样率相同时只做下混
func (c *Clip) Resample(rate int) (*Clip, error) {
	if rate <= 0 || rate == c.SampleRate() {
		return c.ToMono(), nil
	}
	if c.Len() == 0 {
		return ClipFromSamples(rate, nil), nil
	}

	r, err := resampling.New(&resampling.Config{
		InputRate:  float64(c.SampleRate()),
		OutputRate: float64(rate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("创建重采样器失败: %w", err)
	}

	out, err := r.Process(c.MonoSamples())
	if err != nil {
		return nil, fmt.Errorf("重采样失败: %w", err)
	}
	for i, s := range out {
		if s > 1 {
			out[i] = 1
		} else if s < -1 {
			out[i] = -1
		}
	}
	return ClipFromSamples(rate, out), nil
}
