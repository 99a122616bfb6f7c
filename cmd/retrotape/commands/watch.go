package commands

import (
	"github.com/spf13/cobra"
)

var watchUpsots upsotFlags

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "监控收件目录并自动转写",
	Long: `监控 watch_folder（未配置时为 upload_folder），启动时先转写目录中尚未处理的录音，
之后每当有新录音写入完成就自动转写并导出结果。按 Ctrl+C 退出。`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printWelcome(cmd.OutOrStdout())
		checkDependencies(cmd.OutOrStdout())

		pc, err := newController()
		if err != nil {
			return err
		}
		defer pc.Cleanup()

		if err := watchUpsots.apply(cmd, pc); err != nil {
			return err
		}
		return pc.StartWatchMode()
	},
}

func init() {
	watchUpsots.register(watchCmd)
	rootCmd.AddCommand(watchCmd)
}
