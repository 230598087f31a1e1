package repository

import (
	"context"

	"golang-zone-analyzer/internal/analyzer/dto"
	"golang-zone-analyzer/internal/entity"
)

// VisionRepository sends one chart image and prompt to a multimodal model and returns its raw text reply.
type VisionRepository interface {
	Analyze(ctx context.Context, image []byte, mimeType, prompt string) (string, error)
}

// CaptureSessionProvider hands out capture sessions. Callers must Release every session they acquire.
type CaptureSessionProvider interface {
	Acquire(ctx context.Context) (CaptureSession, error)
}

// CaptureSession is one live browser session on the capture service.
type CaptureSession interface {
	ID() string
	Healthy(ctx context.Context) error
	Capture(ctx context.Context, pair, timeframe string) (*dto.ChartCapture, error)
	Release(ctx context.Context) error
}

// ReportStore persists a decision together with its annotated images.
type ReportStore interface {
	Save(ctx context.Context, decision *dto.CombinedDecision, images []dto.RenderedImage) (*dto.StoredReport, error)
}

// AnalysisReportRepository stores decision rows in postgres.
type AnalysisReportRepository interface {
	Create(ctx context.Context, report *entity.AnalysisReport) error
	GetLatest(ctx context.Context, pair string, strategy string) (*entity.AnalysisReport, error)
}

// DecisionCacheRepository keeps the latest decision per pair and strategy.
type DecisionCacheRepository interface {
	Set(ctx context.Context, decision *dto.CombinedDecision) error
	Get(ctx context.Context, pair string, strategy dto.StrategyName) (*dto.CombinedDecision, error)
}
