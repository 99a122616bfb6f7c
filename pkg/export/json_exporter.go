package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/models"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/upsot"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/utils"
)

// TranscriptDocument 导出的转写文件内容
type TranscriptDocument struct {
	Source     string                     `json:"source"`      // 源音频文件名
	ExportedAt time.Time                  `json:"exported_at"` // 导出时间
	Result     models.TranscriptionResult `json:"result"`
}

// UpSotsDocument 导出的 up-sot 列表
type UpSotsDocument struct {
	Source     string                     `json:"source"`
	ExportedAt time.Time                  `json:"exported_at"`
	Parameters upsot.Params               `json:"parameters"`
	Script     string                     `json:"reference_script,omitempty"`
	UpSots     []models.TranscriptSegment `json:"up_sots"`
}

// JSONExporter 负责将转写结果导出为JSON文件
type JSONExporter struct {
	OutputFolder string
	now          func() time.Time
}

// NewJSONExporter 创建一个新的JSON导出器
func NewJSONExporter(outputFolder string) *JSONExporter {
	return &JSONExporter{
		OutputFolder: outputFolder,
		now:          time.Now,
	}
}

// TranscriptPath 转写文件路径：<输出目录>/<音频名>_transcript.json
func (e *JSONExporter) TranscriptPath(audioPath string) string {
	return filepath.Join(e.OutputFolder, utils.BaseNameWithoutExt(audioPath)+"_transcript.json")
}

// UpSotsPath up-sot 文件路径：<输出目录>/<音频名>_upsots.json
func (e *JSONExporter) UpSotsPath(audioPath string) string {
	return filepath.Join(e.OutputFolder, utils.BaseNameWithoutExt(audioPath)+"_upsots.json")
}

// ExportTranscript 导出转写结果
func (e *JSONExporter) ExportTranscript(result models.TranscriptionResult, audioPath string) (string, error) {
	doc := TranscriptDocument{
		Source:     filepath.Base(audioPath),
		ExportedAt: e.now(),
		Result:     result,
	}
	return e.write(e.TranscriptPath(audioPath), doc)
}

// ExportUpSots 导出 up-sot 列表及其选择参数
func (e *JSONExporter) ExportUpSots(upSots []models.TranscriptSegment, params upsot.Params, audioPath string) (string, error) {
	if upSots == nil {
		upSots = []models.TranscriptSegment{}
	}
	doc := UpSotsDocument{
		Source:     filepath.Base(audioPath),
		ExportedAt: e.now(),
		Parameters: params,
		Script:     params.ReferenceScript,
		UpSots:     upSots,
	}
	return e.write(e.UpSotsPath(audioPath), doc)
}

func (e *JSONExporter) write(outputFile string, doc interface{}) (string, error) {
	if err := os.MkdirAll(e.OutputFolder, 0755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}

	jsonData, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("JSON编码失败: %w", err)
	}

	if err := os.WriteFile(outputFile, jsonData, 0644); err != nil {
		return "", fmt.Errorf("写入JSON文件失败: %w", err)
	}

	utils.Info("已导出JSON文件: %s", outputFile)
	return outputFile, nil
}

// ExportTranscript 使用默认导出器导出转写结果
func ExportTranscript(result models.TranscriptionResult, audioPath, outputDir string) (string, error) {
	return NewJSONExporter(outputDir).ExportTranscript(result, audioPath)
}

// ExportUpSots 使用默认导出器导出 up-sot 列表
func ExportUpSots(upSots []models.TranscriptSegment, params upsot.Params, audioPath, outputDir string) (string, error) {
	return NewJSONExporter(outputDir).ExportUpSots(upSots, params, audioPath)
}

// LoadTranscript 读取之前导出的转写文件
func LoadTranscript(path string) (*TranscriptDocument, error) {
	var doc TranscriptDocument
	if err := utils.LoadJSONFile(path, &doc); err != nil {
		return nil, fmt.Errorf("读取转写文件失败: %w", err)
	}
	if !doc.Result.Success {
		return nil, fmt.Errorf("转写文件记录的是失败结果: %s", doc.Result.Error)
	}
	return &doc, nil
}
