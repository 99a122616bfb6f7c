package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var upsotsFlags upsotFlags

var upsotsCmd = &cobra.Command{
	Use:   "upsots <transcript.json>",
	Short: "从转写文件重新挑选 up-sot",
	Long: `读取 transcribe 导出的转写文件，按新的参数重新挑选 up-sot 并覆盖 <名称>_upsots.json。

示例:
  retrotape upsots output/take1_transcript.json --count 5 --sensitivity 0.8
  retrotape upsots output/take1_transcript.json --relevance --script script.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pc, err := newController()
		if err != nil {
			return err
		}
		defer pc.Cleanup()

		if err := upsotsFlags.apply(cmd, pc); err != nil {
			return err
		}

		upSots, path, err := pc.SelectFromTranscript(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, renderReadout("UP-SOTS", scoreForDisplay(pc.Matcher, pc.Controls.Get(), upSots)))
		fmt.Fprintln(out, color.GreenString("已导出 %d 个 up-sot: %s", len(upSots), path))
		return nil
	},
}

func init() {
	upsotsFlags.register(upsotsCmd)
	rootCmd.AddCommand(upsotsCmd)
}
