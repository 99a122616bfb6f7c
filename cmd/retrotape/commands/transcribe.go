package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/scanner"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/utils"
)

var (
	transcribeUpsots upsotFlags
	transcribeInbox  bool
	transcribeQuiet  bool
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [files...]",
	Short: "转写录音并导出结果",
	Long: `把录音按静音切分后逐段识别，导出 <名称>_transcript.json 和 <名称>_upsots.json。

不指定文件时配合 --inbox 转写上传目录中尚未处理的全部录音。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		printWelcome(cmd.OutOrStdout())
		checkDependencies(cmd.OutOrStdout())

		pc, err := newController()
		if err != nil {
			return err
		}
		defer pc.Cleanup()

		if err := transcribeUpsots.apply(cmd, pc); err != nil {
			return err
		}

		files := args
		if transcribeInbox {
			s := scanner.NewMediaScanner()
			found, err := s.ScanDirectory(pc.Config.UploadFolder)
			if err != nil {
				return fmt.Errorf("扫描上传目录失败: %w", err)
			}
			processed := make(map[string]bool)
			for _, f := range found {
				if utils.CheckFileExists(pc.Exporter.TranscriptPath(f.Path)) {
					processed[f.Path] = true
				}
			}
			files = append(files, scanner.Paths(s.FilterNewFiles(found, processed))...)
		}
		if len(files) == 0 {
			return fmt.Errorf("没有需要转写的文件")
		}

		results := pc.TranscribeFiles(files)

		out := cmd.OutOrStdout()
		for _, r := range results {
			if !r.Result.Success {
				fmt.Fprintln(out, color.RedString("✗ %s: %s", r.FilePath, r.Result.Error))
				continue
			}
			fmt.Fprintln(out, color.GreenString("✓ %s", r.FilePath))
			if !transcribeQuiet {
				fmt.Fprintln(out, renderReadout(r.FilePath, scoreForDisplay(pc.Matcher, pc.Controls.Get(), r.Result.Segments)))
			}
		}

		fmt.Fprintf(out, "完成: 成功 %d, 失败 %d, 输出目录 %s\n",
			pc.Stats.SuccessfulFiles, pc.Stats.FailedFiles, pc.Config.OutputFolder)
		pc.PrintASRStats()
		return nil
	},
}

func init() {
	transcribeUpsots.register(transcribeCmd)
	transcribeCmd.Flags().BoolVar(&transcribeInbox, "inbox", false, "转写上传目录中尚未处理的录音")
	transcribeCmd.Flags().BoolVarP(&transcribeQuiet, "quiet", "q", false, "不显示片段列表")
	rootCmd.AddCommand(transcribeCmd)
}
