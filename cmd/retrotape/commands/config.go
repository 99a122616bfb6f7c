package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/models"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/utils"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "查看或修改配置",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "显示当前配置（API密钥已遮蔽）",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.PrintConfig()
		return nil
	},
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "写入默认配置文件",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if utils.CheckFileExists(configFile) && !configInitForce {
			return fmt.Errorf("配置文件已存在: %s（使用 --force 覆盖）", configFile)
		}
		if err := models.NewDefaultConfig().SaveToFile(configFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("已写入默认配置: %s", configFile))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key=value>...",
	Short: "修改配置项并保存",
	Long: `按 JSON 字段名修改配置，例如:

  retrotape config set min_silence_ms=700 silence_thresh_db=-45 asr_service=bcut`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		updates, err := parseAssignments(args)
		if err != nil {
			return err
		}
		if err := cfg.Update(updates); err != nil {
			return err
		}
		if err := cfg.SaveToFile(configFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("已更新 %d 项配置: %s", len(updates), configFile))
		return nil
	},
}

// parseAssignments 解析 key=value，值按 bool、数字、字符串的顺序推断类型
func parseAssignments(args []string) (map[string]interface{}, error) {
	updates := make(map[string]interface{}, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("无效的配置项: %q，格式应为 key=value", arg)
		}
		updates[key] = inferValue(strings.TrimSpace(value))
	}
	return updates, nil
}

func inferValue(v string) interface{} {
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	if i, err := strconv.ParseInt(v, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "覆盖已存在的配置文件")
	configCmd.AddCommand(configShowCmd, configInitCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
