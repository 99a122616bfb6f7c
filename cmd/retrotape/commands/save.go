package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/audio"
)

var saveName string

var saveCmd = &cobra.Command{
	Use:   "save <file|->",
	Short: "保存录音到上传目录",
	Long: `读取音频文件（"-" 表示标准输入）并保存到配置的上传目录。

未指定 --name 时文件名为 recording_<YYYYMMDD_HHMMSS>.wav，同名文件会被覆盖。`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		data, err := readInput(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}

		path, err := audio.SaveAudio(cfg.UploadFolder, data, saveName)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("已保存: %s", path))
		return nil
	},
}

func readInput(arg string, stdin io.Reader) ([]byte, error) {
	if arg == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return nil, fmt.Errorf("读取音频失败: %w", err)
	}
	return data, nil
}

func init() {
	saveCmd.Flags().StringVarP(&saveName, "name", "n", "", "保存的文件名")
	rootCmd.AddCommand(saveCmd)
}
