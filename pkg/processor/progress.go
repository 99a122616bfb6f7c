package processor

// ProgressReporter 进度条显示，由 internal/ui 的进度管理器实现
type ProgressReporter interface {
	CreateProgressBar(id string, total int, prefix string, suffix string)
	UpdateProgressBar(id string, current int, suffix string)
	CompleteProgressBar(id string, suffix string)
}

// chunkProgressBar 把分片进度转发到指定进度条
func chunkProgressBar(reporter ProgressReporter, id, label string) ChunkProgress {
	if reporter == nil {
		return nil
	}
	created := false
	return func(done, total int) {
		if !created {
			reporter.CreateProgressBar(id, total, label, "识别中")
			created = true
		}
		if done >= total {
			reporter.CompleteProgressBar(id, "识别完成")
			return
		}
		reporter.UpdateProgressBar(id, done, "识别中")
	}
}
