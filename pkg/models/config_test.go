package models

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	// 验证默认值是否正确设置
	assert.Equal(t, "./uploads", config.UploadFolder)
	assert.Equal(t, 500, config.MinSilenceMs)
	assert.Equal(t, -40.0, config.SilenceThreshDB)
	assert.Equal(t, 1, config.SeekStepMs)
	assert.Equal(t, 3, config.MaxRetries)
	assert.Equal(t, 1, config.MaxWorkers)
	assert.Equal(t, "auto", config.ASRService)
	assert.Equal(t, 10, config.UpSotsCount)
	assert.Equal(t, 0.5, config.Sensitivity)
	assert.False(t, config.SortByRelevance)
	assert.NoError(t, config.Validate())
}

func TestConfigValidate(t *testing.T) {
	config := NewDefaultConfig()

	config.MaxRetries = 0
	err := config.Validate()
	assert.Error(t, err)
	configErr, ok := err.(*ConfigValidationError)
	assert.True(t, ok)
	assert.Equal(t, "MaxRetries", configErr.Field)

	config.MaxRetries = 3
	config.UpSotsCount = 31
	err = config.Validate()
	configErr, ok = err.(*ConfigValidationError)
	assert.True(t, ok)
	assert.Equal(t, "UpSotsCount", configErr.Field)

	config.UpSotsCount = 0
	config.ASRService = "jianying"
	err = config.Validate()
	configErr, ok = err.(*ConfigValidationError)
	assert.True(t, ok)
	assert.Equal(t, "ASRService", configErr.Field)

	config.ASRService = "openai"
	config.SilenceThreshDB = 3
	err = config.Validate()
	configErr, ok = err.(*ConfigValidationError)
	assert.True(t, ok)
	assert.Equal(t, "SilenceThreshDB", configErr.Field)
}

func TestConfigSaveAndLoad(t *testing.T) {
	for _, name := range []string{"config.json", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			original := NewDefaultConfig()
			original.UploadFolder = "./test_uploads"
			original.MaxRetries = 5
			original.SortByRelevance = true

			require.NoError(t, original.SaveToFile(path))

			loaded := NewDefaultConfig()
			require.NoError(t, loaded.LoadFromFile(path))

			assert.Equal(t, original.UploadFolder, loaded.UploadFolder)
			assert.Equal(t, original.MaxRetries, loaded.MaxRetries)
			assert.True(t, loaded.SortByRelevance)
		})
	}
}

func TestConfigUpdate(t *testing.T) {
	config := NewDefaultConfig()

	err := config.Update(map[string]interface{}{
		"upload_folder": "./updated",
		"max_retries":   5,
		"sensitivity":   0.8,
	})
	assert.NoError(t, err)
	assert.Equal(t, "./updated", config.UploadFolder)
	assert.Equal(t, 5, config.MaxRetries)
	assert.Equal(t, 0.8, config.Sensitivity)

	// 无效更新应回滚
	err = config.Update(map[string]interface{}{
		"max_retries": 20,
	})
	assert.Error(t, err)
	assert.Equal(t, 5, config.MaxRetries)
}

func TestConfigReset(t *testing.T) {
	config := NewDefaultConfig()
	config.UploadFolder = "./custom"
	config.MaxRetries = 5

	config.Reset()

	assert.Equal(t, "./uploads", config.UploadFolder)
	assert.Equal(t, 3, config.MaxRetries)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("GEMINI_API_KEY", "")

	config := NewDefaultConfig()
	config.GeminiAPIKey = "from-file"
	config.ApplyEnv()

	assert.Equal(t, "sk-env", config.OpenAIAPIKey)
	assert.Equal(t, "from-file", config.GeminiAPIKey)
}

func TestTranscriptionResultJSON(t *testing.T) {
	data, err := json.Marshal(TranscriptionResult{Success: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"segments":[],"full_transcript":""}`, string(data))

	data, err = json.Marshal(TranscriptionResult{Success: false, Error: "解码失败"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":"解码失败"}`, string(data))

	seg := TranscriptSegment{Timecode: "00:00:01", Text: "hi", StartMs: 1000, EndMs: 2000, DurationMs: 1000}
	data, err = json.Marshal(seg)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "relevance_score")

	data, err = json.Marshal(seg.WithRelevance(0.5))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"relevance_score":0.5`)
	assert.Nil(t, seg.RelevanceScore)
}

func TestSampleConfigMatchesDefaults(t *testing.T) {
	config := &Config{}
	require.NoError(t, config.LoadFromFile(filepath.Join("..", "..", "configs", "retrotape.yaml")))

	assert.Equal(t, *NewDefaultConfig(), *config)
}
