package audio

import (
	"fmt"

	"github.com/gopxl/beep"
)

// 流式读取时每次处理的帧数
const streamBlock = 512

// Clip 是已解码到内存的音频，底层为 beep.Buffer
type Clip struct {
	buf *beep.Buffer
}

// NewClip 读取streamer的全部内容到内存
func NewClip(format beep.Format, s beep.Streamer) (*Clip, error) {
	if format.Precision < 1 || format.Precision > 3 {
		format.Precision = 2
	}
	buf := beep.NewBuffer(format)
	buf.Append(s)
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("读取音频流失败: %w", err)
	}
	return &Clip{buf: buf}, nil
}

// ClipFromSamples 用单声道采样（-1..1）构造片段
func ClipFromSamples(sampleRate int, samples []float64) *Clip {
	format := beep.Format{
		SampleRate:  beep.SampleRate(sampleRate),
		NumChannels: 1,
		Precision:   2,
	}
	pos := 0
	s := beep.StreamerFunc(func(out [][2]float64) (int, bool) {
		if pos >= len(samples) {
			return 0, false
		}
		n := 0
		for n < len(out) && pos < len(samples) {
			out[n][0] = samples[pos]
			out[n][1] = samples[pos]
			n++
			pos++
		}
		return n, true
	})
	buf := beep.NewBuffer(format)
	buf.Append(s)
	return &Clip{buf: buf}
}

// Format 音频格式
func (c *Clip) Format() beep.Format {
	return c.buf.Format()
}

// SampleRate 采样率
func (c *Clip) SampleRate() int {
	return int(c.buf.Format().SampleRate)
}

// Len 帧数
func (c *Clip) Len() int {
	return c.buf.Len()
}

// DurationMs 时长（毫秒，向下取整）
func (c *Clip) DurationMs() int64 {
	sr := int64(c.SampleRate())
	if sr == 0 {
		return 0
	}
	return int64(c.Len()) * 1000 / sr
}

// frameAt 毫秒偏移对应的帧下标
func (c *Clip) frameAt(ms int64) int {
	if ms <= 0 {
		return 0
	}
	n := int(ms * int64(c.SampleRate()) / 1000)
	if n > c.Len() {
		n = c.Len()
	}
	return n
}

// Streamer 从头播放整个片段
func (c *Clip) Streamer() beep.StreamSeeker {
	return c.buf.Streamer(0, c.buf.Len())
}

// Slice 截取 [startMs, endMs) 为新片段，偏移越界时自动截断
func (c *Clip) Slice(startMs, endMs int64) *Clip {
	from, to := c.frameAt(startMs), c.frameAt(endMs)
	if to < from {
		to = from
	}
	buf := beep.NewBuffer(c.buf.Format())
	buf.Append(c.buf.Streamer(from, to))
	return &Clip{buf: buf}
}

// eachBlock 按块遍历所有帧
func (c *Clip) eachBlock(fn func(frames [][2]float64)) {
	s := c.Streamer()
	block := make([][2]float64, streamBlock)
	for {
		n, ok := s.Stream(block)
		if n > 0 {
			fn(block[:n])
		}
		if !ok {
			return
		}
	}
}

// MonoSamples 下混为单声道采样
func (c *Clip) MonoSamples() []float64 {
	out := make([]float64, 0, c.Len())
	mono := c.Format().NumChannels == 1
	c.eachBlock(func(frames [][2]float64) {
		for _, f := range frames {
			if mono {
				out = append(out, f[0])
			} else {
				out = append(out, (f[0]+f[1])/2)
			}
		}
	})
	return out
}

// energyPrefix 返回按毫秒边界累计的能量：prefix[k] 为帧 [0, frameAt(k)) 的平方和，
// 多声道时取各声道平方的均值
func (c *Clip) energyPrefix() []float64 {
	total := c.DurationMs()
	prefix := make([]float64, total+1)
	stereo := c.Format().NumChannels > 1

	next := int64(1)
	nextFrame := c.frameAt(next)
	acc := 0.0
	n := 0
	c.eachBlock(func(frames [][2]float64) {
		for _, f := range frames {
			for next <= total && n == nextFrame {
				prefix[next] = acc
				next++
				nextFrame = c.frameAt(next)
			}
			if stereo {
				acc += (f[0]*f[0] + f[1]*f[1]) / 2
			} else {
				acc += f[0] * f[0]
			}
			n++
		}
	})
	for ; next <= total; next++ {
		prefix[next] = acc
	}
	return prefix
}
