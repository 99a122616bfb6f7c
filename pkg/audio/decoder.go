package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"

	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/utils"
)

// 容器类型
const (
	formatUnknown = "unknown"
	formatWAV     = "wav"
	formatMP3     = "mp3"
	formatFLAC    = "flac"
	formatOgg     = "ogg"
)

var errEmptyAudio = errors.New("音频文件为空")

// Decoder 把音频文件解码为 Clip。
// beep 无法处理的格式（如浏览器录制的webm/opus）在ffmpeg可用时先转码为WAV。
type Decoder struct {
	TempDir   string
	UseFFmpeg bool
}

// NewDecoder 创建解码器，ffmpeg是否可用在创建时检测
func NewDecoder(tempDir string) *Decoder {
	return &Decoder{
		TempDir:   tempDir,
		UseFFmpeg: utils.CheckFFmpeg(),
	}
}

// DecodeFile 使用默认解码器解码文件
func DecodeFile(path string) (*Clip, error) {
	return NewDecoder("").Decode(context.Background(), path)
}

// Decode 解码音频文件，失败时返回 *DecodeError
func (d *Decoder) Decode(ctx context.Context, path string) (*Clip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Cause: err}
	}
	if len(data) == 0 {
		return nil, &DecodeError{Path: path, Cause: errEmptyAudio}
	}

	kind := sniffFormat(data)
	clip, err := decodeBytes(kind, data)
	if err == nil {
		utils.Debug("解码完成: %s (%s, %dHz, %d声道, %dms)", filepath.Base(path), kind,
			clip.SampleRate(), clip.Format().NumChannels, clip.DurationMs())
		return clip, nil
	}

	if !d.UseFFmpeg {
		return nil, &DecodeError{Path: path, Cause: err}
	}

	utils.Debug("beep无法解码 %s (%v)，尝试ffmpeg转码", filepath.Base(path), err)
	clip, ffErr := d.transcode(ctx, path)
	if ffErr != nil {
		return nil, &DecodeError{Path: path, Cause: fmt.Errorf("%v; ffmpeg: %w", err, ffErr)}
	}
	return clip, nil
}

// sniffFormat 按文件头判断容器类型
func sniffFormat(data []byte) string {
	switch {
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return formatWAV
	case len(data) >= 4 && string(data[0:4]) == "fLaC":
		return formatFLAC
	case len(data) >= 4 && string(data[0:4]) == "OggS":
		return formatOgg
	case len(data) >= 3 && string(data[0:3]) == "ID3":
		return formatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return formatMP3
	default:
		return formatUnknown
	}
}

func decodeBytes(kind string, data []byte) (clip *Clip, err error) {
	// 部分解码器遇到损坏数据会panic
	defer func() {
		if r := recover(); r != nil {
			clip, err = nil, fmt.Errorf("解码器异常: %v", r)
		}
	}()

	var (
		s      beep.StreamSeekCloser
		format beep.Format
	)
	switch kind {
	case formatWAV:
		s, format, err = wav.Decode(bytes.NewReader(data))
	case formatFLAC:
		s, format, err = flac.Decode(bytes.NewReader(data))
	case formatOgg:
		s, format, err = vorbis.Decode(io.NopCloser(bytes.NewReader(data)))
	case formatMP3:
		s, format, err = mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	default:
		return nil, fmt.Errorf("不支持的音频格式")
	}
	if err != nil {
		return nil, err
	}
	defer s.Close()

	return NewClip(format, s)
}

// transcode 用ffmpeg转为16位PCM WAV后再解码
func (d *Decoder) transcode(ctx context.Context, path string) (*Clip, error) {
	dir := d.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建临时目录失败: %w", err)
	}
	out := filepath.Join(dir, "decode_"+uuid.NewString()+".wav")
	defer os.Remove(out)

	cmd := exec.CommandContext(ctx,
		"ffmpeg",
		"-v", "error",
		"-i", path,
		"-vn",
		"-acodec", "pcm_s16le",
		out,
		"-y",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("转码失败: %w %s", err, bytes.TrimSpace(stderr.Bytes()))
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("读取转码结果失败: %w", err)
	}
	return decodeBytes(formatWAV, data)
}
