package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"golang-zone-analyzer/internal/analyzer/apperror"
	"golang-zone-analyzer/internal/analyzer/config"
	"golang-zone-analyzer/internal/analyzer/dto"
	"golang-zone-analyzer/internal/analyzer/geometry"
	"golang-zone-analyzer/internal/analyzer/render"
	"golang-zone-analyzer/internal/analyzer/repository"
	"golang-zone-analyzer/internal/analyzer/sop"
	"golang-zone-analyzer/pkg/logger"
	"golang-zone-analyzer/pkg/metrics"
	"golang-zone-analyzer/pkg/telegram"
	"golang-zone-analyzer/pkg/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

// Pipeline runs one pair x strategy analysis from capture to persisted report.
type Pipeline interface {
	Run(ctx context.Context, job dto.StreamDataAnalysisJob) (*dto.JobResult, error)
}

type pipeline struct {
	cfg        *config.Config
	log        *logger.Logger
	strategies *sop.Registry
	captures   repository.CaptureSessionProvider
	vision     repository.VisionRepository
	reports    repository.ReportStore
	decisions  repository.DecisionCacheRepository
	geometry   *geometry.Engine
	renderer   *render.Renderer
	notifier   telegram.Notifier
	metrics    *metrics.Recorder
	now        func() time.Time
}

// NewPipeline creates a new Pipeline. decisions may be nil when no cache is configured.
func NewPipeline(cfg *config.Config, log *logger.Logger,
	strategies *sop.Registry,
	captures repository.CaptureSessionProvider,
	vision repository.VisionRepository,
	reports repository.ReportStore,
	decisions repository.DecisionCacheRepository,
	engine *geometry.Engine,
	renderer *render.Renderer,
	notifier telegram.Notifier,
	recorder *metrics.Recorder) Pipeline {
	return &pipeline{
		cfg:        cfg,
		log:        log,
		strategies: strategies,
		captures:   captures,
		vision:     vision,
		reports:    reports,
		decisions:  decisions,
		geometry:   engine,
		renderer:   renderer,
		notifier:   notifier,
		metrics:    recorder,
		now:        time.Now,
	}
}

func (p *pipeline) Run(ctx context.Context, job dto.StreamDataAnalysisJob) (result *dto.JobResult, err error) {
	start := time.Now()
	strategy, err := p.strategies.Get(job.Strategy)
	if err != nil {
		return nil, err
	}
	settings := strategy.Settings()
	pair := utils.NormalizePair(job.Pair)

	runID := uuid.NewString()
	ctx = context.WithValue(ctx, logger.RunIDKey, runID)

	defer func() {
		status := "failed"
		if err == nil {
			status = string(result.Decision.Status)
		}
		p.metrics.RecordJob(string(strategy.Name()), status)
	}()

	p.log.InfoContext(ctx, "Starting analysis",
		logger.StringField("pair", pair),
		logger.StringField("strategy", string(strategy.Name())))

	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}
	session, err := p.acquireSession(ctx)
	if err != nil {
		return nil, err
	}
	defer p.releaseSession(ctx, session)

	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}
	primaryCapture, err := p.capture(ctx, session, pair, settings.PrimaryTimeframe)
	if err != nil {
		return nil, err
	}
	primary, err := p.analyzeTimeframe(ctx, strategy, pair, dto.RolePrimary, primaryCapture, nil)
	if err != nil {
		return nil, err
	}
	primaryOutcome := strategy.Validate(pair, primary, nil)

	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}
	var (
		entry        *dto.TimeframeResult
		entryOutcome *dto.ValidationOutcome
		entryFailure string
	)
	entryCapture, err := p.capture(ctx, session, pair, settings.EntryTimeframe)
	if err == nil {
		entry, err = p.analyzeTimeframe(ctx, strategy, pair, dto.RoleEntry, entryCapture, primary)
	}
	if err != nil {
		entryCapture = nil
		entryFailure = err.Error()
		p.log.WarnContext(ctx, "Entry timeframe failed, continuing with primary only",
			logger.StringField("pair", pair),
			logger.StringField("timeframe", settings.EntryTimeframe),
			logger.ErrorField(err))
	} else {
		outcome := strategy.Validate(pair, entry, primary)
		entryOutcome = &outcome
	}

	decision := strategy.Combine(primary, entry, primaryOutcome, entryOutcome)
	decision.RunID = runID
	decision.Pair = pair
	decision.EntryFailure = entryFailure
	decision.CreatedAt = p.now().UTC()

	var images []dto.RenderedImage
	if decision.Valid {
		images = p.renderImages(ctx, &decision, primaryCapture, entryCapture)
	}

	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}
	stored, err := p.persist(ctx, &decision, images)
	if err != nil {
		return nil, err
	}
	p.cacheDecision(ctx, &decision)

	if job.NotifyUser {
		p.notify(ctx, job.TelegramID, &decision, stored, images)
	}

	p.log.InfoContext(ctx, "Analysis finished",
		logger.StringField("pair", pair),
		logger.StringField("strategy", string(strategy.Name())),
		logger.StringField("status", string(decision.Status)),
		logger.FloatField("confidence", decision.Confidence),
		logger.StringField("report_key", stored.Key))

	return &dto.JobResult{Decision: &decision, Report: stored, Duration: time.Since(start)}, nil
}

// runStage runs fn on a context that ignores the caller's cancellation but
// keeps its values, bounded by timeout.
func (p *pipeline) runStage(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	stageCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	return fn(stageCtx)
}

func checkCancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrCancelled, err)
	}
	return nil
}

func (p *pipeline) acquireSession(ctx context.Context) (repository.CaptureSession, error) {
	defer p.metrics.ObserveStage("acquire", time.Now())

	var session repository.CaptureSession
	err := p.runStage(ctx, p.cfg.Analyzer.CaptureTimeout, func(stageCtx context.Context) error {
		s, err := p.captures.Acquire(stageCtx)
		if err != nil {
			return err
		}
		if err := s.Healthy(stageCtx); err != nil {
			if relErr := s.Release(stageCtx); relErr != nil {
				p.log.WarnContext(ctx, "Failed to release unhealthy capture session", logger.ErrorField(relErr))
			}
			return err
		}
		session = s
		return nil
	})
	if err != nil {
		p.log.ErrorContext(ctx, "Failed to acquire capture session", logger.ErrorField(err))
		return nil, apperror.NewInfrastructureError(apperror.StageCapture, "", apperror.ErrCaptureFailed, err)
	}
	return session, nil
}

func (p *pipeline) releaseSession(ctx context.Context, session repository.CaptureSession) {
	err := p.runStage(ctx, p.cfg.Analyzer.CaptureTimeout, session.Release)
	if err != nil {
		p.log.WarnContext(ctx, "Failed to release capture session",
			logger.StringField("session_id", session.ID()),
			logger.ErrorField(err))
	}
}

func (p *pipeline) capture(ctx context.Context, session repository.CaptureSession, pair, timeframe string) (*dto.ChartCapture, error) {
	defer p.metrics.ObserveStage("capture", time.Now())

	var capture *dto.ChartCapture
	err := p.runStage(ctx, p.cfg.Analyzer.CaptureTimeout, func(stageCtx context.Context) error {
		c, err := session.Capture(stageCtx, pair, timeframe)
		capture = c
		return err
	})
	if err != nil {
		p.log.ErrorContext(ctx, "Failed to capture chart",
			logger.StringField("pair", pair),
			logger.StringField("timeframe", timeframe),
			logger.ErrorField(err))
		return nil, apperror.NewInfrastructureError(apperror.StageCapture, timeframe, apperror.ErrCaptureFailed, err)
	}
	if capture.Timeframe == "" {
		capture.Timeframe = timeframe
	}
	return capture, nil
}

// analyzeTimeframe asks the vision model first, then the text extractor on a
// malformed reply, then the local image heuristic.
func (p *pipeline) analyzeTimeframe(ctx context.Context, strategy sop.Strategy, pair string, role dto.Role, capture *dto.ChartCapture, prior *dto.TimeframeResult) (*dto.TimeframeResult, error) {
	defer p.metrics.ObserveStage("vision", time.Now())
	timeframe := capture.Timeframe

	prompt, err := strategy.BuildPrompt(sop.PromptInput{Pair: pair, Role: role, Prior: prior})
	if err != nil {
		return nil, apperror.NewInfrastructureError(apperror.StagePrompt, timeframe, err, nil)
	}

	var raw string
	visionErr := p.runStage(ctx, p.cfg.Analyzer.VisionTimeout, func(stageCtx context.Context) error {
		text, err := p.vision.Analyze(stageCtx, capture.Image, capture.ContentType, prompt)
		raw = text
		return err
	})
	if visionErr == nil {
		result, parseErr := sop.ParseVisionResponse(raw, role, timeframe)
		if parseErr == nil {
			return result, nil
		}
		p.log.WarnContext(ctx, "Vision reply is not valid JSON",
			logger.StringField("timeframe", timeframe),
			logger.ErrorField(parseErr))

		if extracted, ok := sop.ExtractResult(raw, role, timeframe, strategy.Settings().Patterns); ok {
			p.metrics.RecordFallback(string(strategy.Name()), string(role), string(dto.SourceExtracted))
			return extracted, nil
		}
		visionErr = parseErr
	}

	p.log.WarnContext(ctx, "Vision analysis unusable, using rule-based fallback",
		logger.StringField("timeframe", timeframe),
		logger.StringField("role", string(role)),
		logger.ErrorField(visionErr))

	result, err := sop.AnalyzeFallback(sop.FallbackInput{
		Image:     capture.Image,
		Role:      role,
		Timeframe: timeframe,
		Scale:     capture.Scale,
		Prior:     prior,
	})
	if err != nil {
		return nil, apperror.NewInfrastructureError(apperror.StageVision, timeframe, apperror.ErrVisionFailed, errors.Join(visionErr, err))
	}
	p.metrics.RecordFallback(string(strategy.Name()), string(role), string(dto.SourceFallback))
	return result, nil
}

// renderImages annotates each captured chart with its own zone. Failures
// only drop the affected image.
func (p *pipeline) renderImages(ctx context.Context, decision *dto.CombinedDecision, primary, entry *dto.ChartCapture) []dto.RenderedImage {
	defer p.metrics.ObserveStage(apperror.StageRender, time.Now())

	targets := []struct {
		role    dto.Role
		capture *dto.ChartCapture
		zone    *dto.ZoneCandidate
	}{
		{dto.RolePrimary, primary, &decision.PrimaryZone},
		{dto.RoleEntry, entry, decision.EntryZone},
	}

	var images []dto.RenderedImage
	for _, t := range targets {
		if t.capture == nil || t.zone == nil {
			continue
		}
		cfg, _, err := image.DecodeConfig(bytes.NewReader(t.capture.Image))
		if err != nil {
			p.log.WarnContext(ctx, "Failed to read chart dimensions", logger.StringField("timeframe", t.capture.Timeframe), logger.ErrorField(err))
			continue
		}
		canvas := dto.Canvas{Width: cfg.Width, Height: cfg.Height}

		label := geometry.ZoneLabel(decision.Signal, *t.zone)
		instruction, ok := p.geometry.Instruction(*t.zone, decision.Signal, label, t.capture.Scale, canvas)
		if !ok {
			p.log.WarnContext(ctx, "Zone cannot be placed on chart", logger.StringField("timeframe", t.capture.Timeframe))
			continue
		}

		png, err := p.renderer.Render(t.capture.Image, []dto.DrawingInstruction{instruction})
		if err != nil {
			p.log.WarnContext(ctx, "Failed to render chart", logger.StringField("timeframe", t.capture.Timeframe), logger.ErrorField(err))
			continue
		}
		images = append(images, dto.RenderedImage{Timeframe: t.capture.Timeframe, Role: t.role, PNG: png})
	}
	return images
}

func (p *pipeline) persist(ctx context.Context, decision *dto.CombinedDecision, images []dto.RenderedImage) (*dto.StoredReport, error) {
	defer p.metrics.ObserveStage(apperror.StagePersist, time.Now())

	var stored *dto.StoredReport
	err := p.runStage(ctx, p.cfg.Analyzer.PersistTimeout, func(stageCtx context.Context) error {
		s, err := p.reports.Save(stageCtx, decision, images)
		stored = s
		return err
	})
	if err != nil {
		p.log.ErrorContext(ctx, "Failed to persist report", logger.ErrorField(err))
		return nil, apperror.NewInfrastructureError(apperror.StagePersist, "", apperror.ErrPersistFailed, err)
	}
	return stored, nil
}

func (p *pipeline) cacheDecision(ctx context.Context, decision *dto.CombinedDecision) {
	if p.decisions == nil {
		return
	}
	err := p.runStage(ctx, p.cfg.Analyzer.PersistTimeout, func(stageCtx context.Context) error {
		return p.decisions.Set(stageCtx, decision)
	})
	if err != nil {
		p.log.WarnContext(ctx, "Failed to cache latest decision", logger.ErrorField(err))
	}
}

func (p *pipeline) notify(ctx context.Context, chatID int64, decision *dto.CombinedDecision, stored *dto.StoredReport, images []dto.RenderedImage) {
	msgCfg := tgbotapi.MessageConfig{
		ParseMode: tgbotapi.ModeHTML,
	}
	if err := p.notifier.SendMessageUser(telegram.FormatDecisionMessage(decision), chatID, msgCfg); err != nil {
		p.log.ErrorContext(ctx, "Failed to send notification", logger.ErrorField(err))
		return
	}
	for _, img := range images {
		name := fmt.Sprintf("%s_%s.png", stored.Key, img.Role)
		caption := fmt.Sprintf("%s %s (%s)", decision.Pair, img.Timeframe, img.Role)
		if err := p.notifier.SendPhotoUser(img.PNG, name, caption, chatID); err != nil {
			p.log.ErrorContext(ctx, "Failed to send chart", logger.StringField("name", name), logger.ErrorField(err))
		}
	}
}
