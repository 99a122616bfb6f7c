package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// 支持的ASR服务
var supportedASRServices = map[string]bool{
	"auto":     true,
	"kuaishou": true,
	"bcut":     true,
	"openai":   true,
	"gemini":   true,
}

// Config 表示应用程序的配置
type Config struct {
	UploadFolder string `json:"upload_folder" yaml:"upload_folder"` // 录音/上传文件保存目录
	OutputFolder string `json:"output_folder" yaml:"output_folder"` // 转写结果输出目录
	TempDir      string `json:"temp_dir" yaml:"temp_dir"`           // 临时分片目录，空表示系统临时目录
	WatchFolder  string `json:"watch_folder" yaml:"watch_folder"`   // 监听目录，空表示使用上传目录

	// 静音检测
	MinSilenceMs    int     `json:"min_silence_ms" yaml:"min_silence_ms"`       // 最短静音长度（毫秒）
	SilenceThreshDB float64 `json:"silence_thresh_db" yaml:"silence_thresh_db"` // 静音阈值（dBFS）
	SeekStepMs      int     `json:"seek_step_ms" yaml:"seek_step_ms"`           // 扫描步长（毫秒）
	ChunkSampleRate int     `json:"chunk_sample_rate" yaml:"chunk_sample_rate"` // 分片重采样率，0表示保持原采样率

	// asr-service
	ASRService  string  `json:"asr_service" yaml:"asr_service"`   // ASR服务选择 (auto, kuaishou, bcut, openai, gemini)
	ASRStrategy string  `json:"asr_strategy" yaml:"asr_strategy"` // auto模式下的选择策略 (round_robin, weighted)
	MaxRetries  int     `json:"max_retries" yaml:"max_retries"`   // 单个分片最大重试次数
	RetryDelay  float64 `json:"retry_delay" yaml:"retry_delay"`   // 重试延迟（秒）
	MaxWorkers  int     `json:"max_workers" yaml:"max_workers"`   // 并发识别的分片数
	UseCache    bool    `json:"use_cache" yaml:"use_cache"`       // 是否缓存识别结果
	CacheDir    string  `json:"cache_dir" yaml:"cache_dir"`       // 缓存目录

	OpenAIAPIKey  string `json:"openai_api_key" yaml:"openai_api_key"`
	OpenAIBaseURL string `json:"openai_base_url" yaml:"openai_base_url"`
	OpenAIModel   string `json:"openai_model" yaml:"openai_model"`
	GeminiAPIKey  string `json:"gemini_api_key" yaml:"gemini_api_key"`
	GeminiModel   string `json:"gemini_model" yaml:"gemini_model"`

	// up-sot 默认参数
	UpSotsCount     int     `json:"up_sots_count" yaml:"up_sots_count"`
	Sensitivity     float64 `json:"sensitivity" yaml:"sensitivity"`
	SortByRelevance bool    `json:"sort_by_relevance" yaml:"sort_by_relevance"`

	LogLevel     string `json:"log_level" yaml:"log_level"`         // 日志级别
	LogFile      string `json:"log_file" yaml:"log_file"`           // 日志文件
	ShowProgress bool   `json:"show_progress" yaml:"show_progress"` // 显示进度条
}

// ConfigValidationError 表示配置验证错误
type ConfigValidationError struct {
	Field   string
	Message string
}

func (e ConfigValidationError) Error() string {
	msg := fmt.Sprintf("配置验证错误: %s - %s", e.Field, e.Message)
	logrus.Error(msg)
	return msg
}

// NewDefaultConfig 创建默认配置
func NewDefaultConfig() *Config {
	return &Config{
		UploadFolder:    "./uploads",
		OutputFolder:    "./output",
		TempDir:         "",
		WatchFolder:     "",
		MinSilenceMs:    500,
		SilenceThreshDB: -40,
		SeekStepMs:      1,
		ChunkSampleRate: 16000,
		ASRService:      "auto",
		ASRStrategy:     "weighted",
		MaxRetries:      3,
		RetryDelay:      1.0,
		MaxWorkers:      1,
		UseCache:        true,
		CacheDir:        "./cache",
		OpenAIModel:     "whisper-1",
		GeminiModel:     "gemini-2.5-flash",
		UpSotsCount:     10,
		Sensitivity:     0.5,
		SortByRelevance: false,
		LogLevel:        "INFO",
		LogFile:         "",
		ShowProgress:    true,
	}
}

// Validate 验证配置是否有效
func (c *Config) Validate() error {
	if c.UploadFolder == "" {
		return &ConfigValidationError{"UploadFolder", "不能为空"}
	}

	if c.MinSilenceMs < 1 || c.MinSilenceMs > 10000 {
		return &ConfigValidationError{"MinSilenceMs", "必须在1-10000毫秒之间"}
	}

	if c.SilenceThreshDB > 0 || c.SilenceThreshDB < -120 {
		return &ConfigValidationError{"SilenceThreshDB", "必须在-120到0 dBFS之间"}
	}

	if c.SeekStepMs < 1 || c.SeekStepMs > c.MinSilenceMs {
		return &ConfigValidationError{"SeekStepMs", "必须在1到MinSilenceMs之间"}
	}

	if c.ChunkSampleRate != 0 && (c.ChunkSampleRate < 8000 || c.ChunkSampleRate > 48000) {
		return &ConfigValidationError{"ChunkSampleRate", "必须为0或在8000-48000之间"}
	}

	if !supportedASRServices[c.ASRService] {
		return &ConfigValidationError{"ASRService", fmt.Sprintf("不支持的服务: %s", c.ASRService)}
	}

	if c.ASRStrategy != "round_robin" && c.ASRStrategy != "weighted" {
		return &ConfigValidationError{"ASRStrategy", "必须为round_robin或weighted"}
	}

	if c.MaxRetries < 1 || c.MaxRetries > 10 {
		return &ConfigValidationError{"MaxRetries", "必须在1-10之间"}
	}

	if c.MaxWorkers < 1 || c.MaxWorkers > 16 {
		return &ConfigValidationError{"MaxWorkers", "必须在1-16之间"}
	}

	if c.RetryDelay < 0 || c.RetryDelay > 10.0 {
		return &ConfigValidationError{"RetryDelay", "必须在0-10.0秒之间"}
	}

	if c.UpSotsCount < 0 || c.UpSotsCount > 30 {
		return &ConfigValidationError{"UpSotsCount", "必须在0-30之间"}
	}

	if c.Sensitivity < 0 || c.Sensitivity > 1 {
		return &ConfigValidationError{"Sensitivity", "必须在0-1之间"}
	}

	return nil
}

// LoadFromFile 从文件加载配置，.yaml/.yml 按YAML解析，其余按JSON解析
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("读取配置文件失败: %v", err)
		return err
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, c)
	} else {
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		logrus.Errorf("解析配置文件失败: %v", err)
		return err
	}

	if err := c.Validate(); err != nil {
		logrus.Errorf("配置验证失败: %v", err)
		return err
	}

	return nil
}

// SaveToFile 保存配置到文件
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logrus.Errorf("创建目录失败: %v", err)
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		logrus.Errorf("序列化配置失败: %v", err)
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		logrus.Errorf("写入配置文件失败: %v", err)
		return err
	}

	return nil
}

// ApplyEnv 用环境变量补全未配置的API密钥
func (c *Config) ApplyEnv() {
	if c.OpenAIAPIKey == "" {
		c.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.OpenAIBaseURL == "" {
		c.OpenAIBaseURL = os.Getenv("OPENAI_BASE_URL")
	}
	if c.GeminiAPIKey == "" {
		c.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
}

// Update 批量更新配置
func (c *Config) Update(updates map[string]interface{}) error {
	// 保存当前配置用于回滚
	tempConfig := *c

	// map -> JSON -> struct
	updateBytes, err := json.Marshal(updates)
	if err != nil {
		logrus.Errorf("序列化更新数据失败: %v", err)
		return err
	}

	if err := json.Unmarshal(updateBytes, c); err != nil {
		*c = tempConfig
		logrus.Errorf("应用配置更新失败: %v", err)
		return err
	}

	if err := c.Validate(); err != nil {
		*c = tempConfig
		logrus.Errorf("配置验证失败: %v", err)
		return err
	}

	return nil
}

// Reset 重置为默认配置
func (c *Config) Reset() {
	*c = *NewDefaultConfig()
}

// EffectiveWatchFolder 返回实际监听的目录
func (c *Config) EffectiveWatchFolder() string {
	if c.WatchFolder != "" {
		return c.WatchFolder
	}
	return c.UploadFolder
}

// PrintConfig 打印当前配置，API密钥会被遮蔽
func (c *Config) PrintConfig() {
	masked := *c
	masked.OpenAIAPIKey = maskSecret(c.OpenAIAPIKey)
	masked.GeminiAPIKey = maskSecret(c.GeminiAPIKey)

	logrus.Info("\n当前配置:")
	bytes, err := json.MarshalIndent(masked, "", "  ")
	if err != nil {
		logrus.Errorf("序列化配置失败: %v", err)
		return
	}
	logrus.Info(string(bytes))
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-4)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
