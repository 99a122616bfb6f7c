package processor

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/models"
)

// BatchResult 存储单个文件的批处理结果
type BatchResult struct {
	FilePath    string
	Result      models.TranscriptionResult
	ProcessTime time.Duration
}

// BatchProgressCallback 批处理进度回调，result为nil表示文件开始处理
type BatchProgressCallback func(current, total int, filename string, result *BatchResult)

// BatchProcessor 批量转写多个录音文件
type BatchProcessor struct {
	Pipeline         *Pipeline
	MaxConcurrency   int
	ProgressCallback BatchProgressCallback
	Progress         ProgressReporter
}

// NewBatchProcessor 创建批处理器
func NewBatchProcessor(pipeline *Pipeline, maxConcurrency int, callback BatchProgressCallback) *BatchProcessor {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &BatchProcessor{
		Pipeline:         pipeline,
		MaxConcurrency:   maxConcurrency,
		ProgressCallback: callback,
	}
}

// SetProgressReporter 设置总体进度显示
func (b *BatchProcessor) SetProgressReporter(reporter ProgressReporter) {
	b.Progress = reporter
}

// ProcessFiles 并发转写文件，结果顺序与输入顺序一致
func (b *BatchProcessor) ProcessFiles(ctx context.Context, files []string) []BatchResult {
	results := make([]BatchResult, len(files))
	if len(files) == 0 {
		return results
	}

	if b.Progress != nil {
		b.Progress.CreateProgressBar("batch_overall", len(files),
			"总体进度", fmt.Sprintf("0/%d 文件已处理", len(files)))
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		finished int
	)
	sem := make(chan struct{}, b.MaxConcurrency) // 信号量限制并发

	for i, filePath := range files {
		if ctx.Err() != nil {
			results[i] = BatchResult{FilePath: filePath, Result: Failure(ctx.Err())}
			continue
		}

		wg.Add(1)
		sem <- struct{}{}

		go func(index int, path string) {
			defer wg.Done()
			defer func() { <-sem }()

			filename := filepath.Base(path)
			if b.ProgressCallback != nil {
				b.ProgressCallback(index+1, len(files), filename, nil)
			}

			startTime := time.Now()
			result := BatchResult{
				FilePath: path,
				Result:   b.Pipeline.Transcribe(ctx, path),
			}
			result.ProcessTime = time.Since(startTime)
			results[index] = result

			if b.ProgressCallback != nil {
				b.ProgressCallback(index+1, len(files), filename, &result)
			}

			mu.Lock()
			finished++
			if b.Progress != nil {
				b.Progress.UpdateProgressBar("batch_overall", finished,
					fmt.Sprintf("%d/%d 文件已处理", finished, len(files)))
			}
			mu.Unlock()
		}(i, filePath)
	}

	wg.Wait()

	if b.Progress != nil {
		b.Progress.CompleteProgressBar("batch_overall", "所有文件处理完成")
	}
	return results
}
