// Package main 是复古录音转写工具 retrotape 的命令行入口。
//
// 用法:
//
//	retrotape [flags] <command> [args]
//
// 命令:
//
//	save        保存录音到上传目录
//	transcribe  转写录音并导出转写结果与 up-sot
//	upsots      从已导出的转写文件重新挑选 up-sot
//	watch       监控收件目录，自动转写新录音
//	config      查看或修改配置
package main

import (
	"fmt"
	"os"

	"github.com/ccp-p/asr-media-cli/retro-transcriber/cmd/retrotape/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "错误:", err)
		os.Exit(1)
	}
}
