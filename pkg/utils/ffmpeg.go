package utils

import "os/exec"

// CheckFFmpeg 检查ffmpeg是否可用
func CheckFFmpeg() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}
