package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/models"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/upsot"
	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/utils"
)

// 磁带机风格的配色
var (
	amber = lipgloss.Color("#ffb000")
	dim   = lipgloss.Color("#6e7681")

	deckStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(amber).
			Padding(0, 1)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(amber)
	timecodeStyle = lipgloss.NewStyle().Foreground(amber)
	metaStyle     = lipgloss.NewStyle().Foreground(dim)
)

const textWidth = 60

// renderReadout 渲染片段列表
func renderReadout(title string, segments []models.TranscriptSegment) string {
	var lines []string
	lines = append(lines, titleStyle.Render("▶ "+filepath.Base(title)))

	if len(segments) == 0 {
		lines = append(lines, metaStyle.Render("（没有片段）"))
		return deckStyle.Render(strings.Join(lines, "\n"))
	}

	for _, seg := range segments {
		meta := fmt.Sprintf("%5.1fs", float64(seg.DurationMs)/1000)
		if seg.RelevanceScore != nil {
			meta += fmt.Sprintf("  相关度 %.2f", *seg.RelevanceScore)
		}
		lines = append(lines, fmt.Sprintf("%s %s  %s",
			timecodeStyle.Render("["+seg.Timecode+"]"),
			metaStyle.Render(meta),
			truncateText(seg.Text, textWidth)))
	}
	return deckStyle.Render(strings.Join(lines, "\n"))
}

// scoreForDisplay 有参考稿但未按相关度排序时，仍在列表中显示相关度
func scoreForDisplay(matcher *upsot.ScriptMatcher, params upsot.Params, segments []models.TranscriptSegment) []models.TranscriptSegment {
	if params.SortByRelevance || !matcher.HasScript() {
		return segments
	}
	return matcher.ScoreSegments(segments)
}

func truncateText(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func readScript(path string) (string, error) {
	if !utils.CheckFileExists(path) {
		return "", fmt.Errorf("参考稿文件不存在: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("读取参考稿失败: %w", err)
	}
	return string(data), nil
}
