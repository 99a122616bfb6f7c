package commands

import (
	"github.com/spf13/cobra"

	"github.com/ccp-p/asr-media-cli/retro-transcriber/internal/controller"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/models"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/upsot"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/utils"
)

var (
	configFile string
	logLevel   string
	logFile    string
)

var rootCmd = &cobra.Command{
	Use:   "retrotape",
	Short: "复古录音转写工具",
	Long: `retrotape 把录音按静音切分，逐段调用语音识别服务，
生成带时间码的转写结果，并从中挑选 up-sot（适合引用的片段）。

配置文件支持 JSON 和 YAML，API 密钥也可以通过
OPENAI_API_KEY / GEMINI_API_KEY 环境变量提供。`,
	SilenceUsage: true,
}

// Execute 执行根命令
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.json", "配置文件路径 (.json/.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (VERBOSE/INFO/WARN/ERROR)，默认使用配置中的值")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "日志文件路径")
}

// newController 创建控制器，调用方负责 Cleanup
func newController() (*controller.ProcessorController, error) {
	return controller.NewProcessorController(configFile, logLevel, logFile)
}

// loadConfig 只加载配置，不创建识别后端
func loadConfig() (*models.Config, error) {
	cfg, err := controller.LoadConfig(configFile)
	if err != nil {
		return nil, err
	}
	level := logLevel
	if level == "" {
		level = cfg.LogLevel
	}
	if err := utils.InitLogger(level, logFile); err != nil {
		return nil, err
	}
	return cfg, nil
}

// 各子命令共享的 up-sot 参数
type upsotFlags struct {
	count       int
	sensitivity float64
	relevance   bool
	scriptFile  string
	scriptText  string
}

func (f *upsotFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.count, "count", 10, "最多挑选的 up-sot 数量 (0-30，0表示不限)")
	cmd.Flags().Float64Var(&f.sensitivity, "sensitivity", 0.5, "灵敏度 (0-1)，越高门槛越低")
	cmd.Flags().BoolVar(&f.relevance, "relevance", false, "按与参考稿的相关度排序")
	cmd.Flags().StringVar(&f.scriptFile, "script", "", "参考稿文件")
	cmd.Flags().StringVar(&f.scriptText, "script-text", "", "参考稿文本")
}

// apply 把命令行中显式指定的参数写入控制器
func (f *upsotFlags) apply(cmd *cobra.Command, pc *controller.ProcessorController) error {
	var update upsot.ParamsUpdate
	if cmd.Flags().Changed("count") {
		update.MaxCount = &f.count
	}
	if cmd.Flags().Changed("sensitivity") {
		update.Sensitivity = &f.sensitivity
	}
	if cmd.Flags().Changed("relevance") {
		update.SortByRelevance = &f.relevance
	}
	if _, err := pc.Controls.Set(update); err != nil {
		return err
	}

	script, err := f.script()
	if err != nil {
		return err
	}
	if script != "" {
		info := pc.Matcher.SetReferenceScript(script)
		utils.Info("已设置参考稿: %d 字, %d 个不同词", info.Characters, info.UniqueTokens)
	}
	return nil
}

func (f *upsotFlags) script() (string, error) {
	if f.scriptText != "" {
		return f.scriptText, nil
	}
	if f.scriptFile == "" {
		return "", nil
	}
	return readScript(f.scriptFile)
}
