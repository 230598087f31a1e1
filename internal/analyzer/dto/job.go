package dto

import "time"

// StreamDataAnalysisJob is the payload of one pair x strategy job on the stream.
type StreamDataAnalysisJob struct {
	Pair       string       `json:"pair" validate:"required"`
	Strategy   StrategyName `json:"strategy" validate:"required,oneof=swing scalping"`
	NotifyUser bool         `json:"notify_user"`
	TelegramID int64        `json:"telegram_id" validate:"required_if=NotifyUser true"`
}

// BuildJobs expands pairs x strategies into jobs.
func BuildJobs(pairs []string, strategies []StrategyName) []StreamDataAnalysisJob {
	jobs := make([]StreamDataAnalysisJob, 0, len(pairs)*len(strategies))
	for _, pair := range pairs {
		for _, strategy := range strategies {
			jobs = append(jobs, StreamDataAnalysisJob{Pair: pair, Strategy: strategy})
		}
	}
	return jobs
}

// ChartCapture is a captured chart image plus the scale metadata reported by the capture service.
type ChartCapture struct {
	Pair        string      `json:"pair"`
	Timeframe   string      `json:"timeframe"`
	Image       []byte      `json:"-"`
	ContentType string      `json:"content_type"`
	Scale       *PriceScale `json:"scale,omitempty"`
}

// RenderedImage is an annotated chart ready to be stored.
type RenderedImage struct {
	Timeframe string `json:"timeframe"`
	Role      Role   `json:"role"`
	PNG       []byte `json:"-"`
}

// StoredReport tells where a decision and its images were written.
type StoredReport struct {
	Key        string            `json:"key"`
	ReportPath string            `json:"report_path"`
	ImagePaths map[string]string `json:"image_paths,omitempty"`
}

// JobResult is what the pipeline returns for one job.
type JobResult struct {
	Decision *CombinedDecision `json:"decision"`
	Report   *StoredReport     `json:"report,omitempty"`
	Duration time.Duration     `json:"duration"`
}

// ExecutorSummaryResult is one line of a batch summary.
type ExecutorSummaryResult struct {
	Pair      string         `json:"pair"`
	Strategy  StrategyName   `json:"strategy"`
	IsSuccess bool           `json:"is_success"`
	Status    DecisionStatus `json:"status,omitempty"`
	ReportKey string         `json:"report_key,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// BatchSummary aggregates a continue-on-error batch run.
type BatchSummary struct {
	Total     int                     `json:"total"`
	Succeeded int                     `json:"succeeded"`
	Failed    int                     `json:"failed"`
	Results   []ExecutorSummaryResult `json:"results"`
}
