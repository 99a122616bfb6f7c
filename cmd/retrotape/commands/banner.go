package commands

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/utils"
)

func printWelcome(w io.Writer) {
	cyan := color.New(color.FgCyan).SprintFunc()
	fmt.Fprintln(w, cyan("======================================"))
	fmt.Fprintln(w, cyan("        RetroTape 录音转写工具"))
	fmt.Fprintln(w, cyan("======================================"))
}

// checkDependencies ffmpeg 缺失时只能解码 WAV/MP3/FLAC/OGG
func checkDependencies(w io.Writer) {
	if utils.CheckFFmpeg() {
		fmt.Fprintln(w, color.GreenString("✓ FFmpeg 已安装"))
		return
	}
	fmt.Fprintln(w, color.YellowString("! 未找到 FFmpeg，webm 等格式将无法解码"))
}
