package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang-zone-analyzer/internal/analyzer/apperror"
	"golang-zone-analyzer/internal/analyzer/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func swingJob() dto.StreamDataAnalysisJob {
	return dto.StreamDataAnalysisJob{Pair: "eur/usd", Strategy: dto.StrategySwing}
}

func TestPipelineRunConfirmed(t *testing.T) {
	f := newPipelineFixture(t)
	job := swingJob()
	job.NotifyUser = true
	job.TelegramID = 42

	result, err := f.pipeline.Run(context.Background(), job)
	require.NoError(t, err)

	d := result.Decision
	assert.Equal(t, "EURUSD", d.Pair)
	assert.Equal(t, dto.StatusConfirmed, d.Status)
	assert.True(t, d.Valid)
	assert.Equal(t, dto.SignalBuy, d.Signal)
	assert.Equal(t, 0.775, d.Confidence)
	assert.NotEmpty(t, d.RunID)
	assert.Empty(t, d.EntryFailure)
	require.NotNil(t, d.EntryZone)
	assert.Equal(t, 1.103, d.EntryZone.PriceHigh)

	assert.Equal(t, []string{"D1", "H4"}, f.session.captured)
	assert.Equal(t, 1, f.session.released)

	require.Len(t, f.store.images, 2)
	assert.Equal(t, dto.RolePrimary, f.store.images[0].Role)
	assert.Equal(t, dto.RoleEntry, f.store.images[1].Role)
	assert.Equal(t, result.Report.Key, "EURUSD_swing_"+d.CreatedAt.Format("20060102T150405"))

	require.Len(t, f.cache.set, 1)
	assert.Len(t, f.notifier.messages, 1)
	assert.Len(t, f.notifier.photos, 2)
}

func TestPipelineEntryFailureKeepsPrimary(t *testing.T) {
	f := newPipelineFixture(t)
	// the blank chart has no candles, so the local fallback cannot help either
	f.vision.errs["H4"] = errors.New("deadline exceeded")

	result, err := f.pipeline.Run(context.Background(), swingJob())
	require.NoError(t, err)

	d := result.Decision
	assert.Equal(t, dto.StatusForming, d.Status)
	assert.False(t, d.Valid)
	assert.Equal(t, dto.SignalBuy, d.Signal)
	assert.Equal(t, 0.85, d.Confidence)
	assert.Contains(t, d.EntryFailure, "vision failed on H4")
	assert.Nil(t, d.Validation.Entry)
	assert.Empty(t, f.store.images)
	assert.Equal(t, 1, f.session.released)
}

func TestPipelineEntryCaptureFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.session.captureErrs["H4"] = errors.New("symbol not loaded")

	result, err := f.pipeline.Run(context.Background(), swingJob())
	require.NoError(t, err)
	assert.Equal(t, dto.StatusForming, result.Decision.Status)
	assert.Contains(t, result.Decision.EntryFailure, "capture failed on H4")
}

func TestPipelinePromptFailureIsTyped(t *testing.T) {
	f := newPipelineFixture(t)

	_, err := f.pipeline.Run(context.Background(), dto.StreamDataAnalysisJob{Pair: " / ", Strategy: dto.StrategySwing})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrMissingPromptInput)

	var infra *apperror.InfrastructureError
	require.ErrorAs(t, err, &infra)
	assert.Equal(t, apperror.StagePrompt, infra.Stage)
	assert.Equal(t, "D1", infra.Timeframe)
	assert.Equal(t, []string{"D1"}, f.session.captured)
	assert.Nil(t, f.store.decision)
}

func TestPipelinePrimaryCaptureFailsFast(t *testing.T) {
	f := newPipelineFixture(t)
	f.session.captureErrs["D1"] = errors.New("browser crashed")

	_, err := f.pipeline.Run(context.Background(), swingJob())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrCaptureFailed)

	var infra *apperror.InfrastructureError
	require.ErrorAs(t, err, &infra)
	assert.Equal(t, apperror.StageCapture, infra.Stage)
	assert.Equal(t, "D1", infra.Timeframe)

	assert.Equal(t, []string{"D1"}, f.session.captured, "entry is never attempted")
	assert.Equal(t, 1, f.session.released)
	assert.Nil(t, f.store.decision)
}

func TestPipelinePrimaryVisionAndFallbackFail(t *testing.T) {
	f := newPipelineFixture(t)
	f.vision.errs["D1"] = errors.New("quota exceeded")

	_, err := f.pipeline.Run(context.Background(), swingJob())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrVisionFailed)
	assert.ErrorIs(t, err, apperror.ErrFallbackFailed)
	assert.Equal(t, 1, f.session.released)
}

func TestPipelineMalformedReplyUsesExtractor(t *testing.T) {
	f := newPipelineFixture(t)
	f.vision.replies["D1"] = "The chart is in an uptrend. Signal: BUY near support 1.1000 - 1.1050, bullish_engulfing."

	result, err := f.pipeline.Run(context.Background(), swingJob())
	require.NoError(t, err)

	d := result.Decision
	assert.Equal(t, dto.StatusForming, d.Status)
	assert.False(t, d.Valid)
	assert.Contains(t, d.Validation.Primary.Errors, "LOW CONFIDENCE: 0.50 is below threshold 0.70")
}

func TestPipelineUnhealthySession(t *testing.T) {
	f := newPipelineFixture(t)
	f.session.healthErr = errors.New("page not responding")

	_, err := f.pipeline.Run(context.Background(), swingJob())
	assert.ErrorIs(t, err, apperror.ErrCaptureFailed)
	assert.Equal(t, 1, f.session.released)
	assert.Empty(t, f.session.captured)
}

func TestPipelineCancelledBeforeStart(t *testing.T) {
	f := newPipelineFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.pipeline.Run(ctx, swingJob())
	assert.ErrorIs(t, err, apperror.ErrCancelled)
	assert.Equal(t, 0, f.provider.calls)
}

func TestPipelinePersistFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.store.err = errors.New("disk full")

	_, err := f.pipeline.Run(context.Background(), swingJob())
	assert.ErrorIs(t, err, apperror.ErrPersistFailed)
	assert.Empty(t, f.cache.set)
}

func TestPipelineUnknownStrategy(t *testing.T) {
	f := newPipelineFixture(t)

	_, err := f.pipeline.Run(context.Background(), dto.StreamDataAnalysisJob{Pair: "EURUSD", Strategy: "position"})
	assert.ErrorIs(t, err, apperror.ErrUnknownStrategy)
}

func TestPipelineCancelledDuringStage(t *testing.T) {
	f := newPipelineFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stageErr error
	f.vision.before["D1"] = func(stageCtx context.Context) error {
		cancel()
		stageErr = stageCtx.Err()
		return nil
	}

	_, err := f.pipeline.Run(ctx, swingJob())

	assert.ErrorIs(t, err, apperror.ErrCancelled)
	assert.NoError(t, stageErr, "a started stage runs to completion")
	assert.Equal(t, []string{"D1"}, f.session.captured, "no stage starts after cancellation")
	assert.Equal(t, 1, f.session.released)
	assert.Nil(t, f.store.decision)
}

func TestPipelineVisionTimeout(t *testing.T) {
	f := newPipelineFixture(t)
	f.cfg.Analyzer.VisionTimeout = 100 * time.Millisecond
	f.pipeline = f.build()
	f.vision.before["H4"] = func(stageCtx context.Context) error {
		<-stageCtx.Done()
		return stageCtx.Err()
	}

	start := time.Now()
	result, err := f.pipeline.Run(context.Background(), swingJob())
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Less(t, elapsed, 3*time.Second)
	assert.Equal(t, dto.StatusForming, result.Decision.Status)
	assert.Contains(t, result.Decision.EntryFailure, "vision failed on H4")
	assert.Contains(t, result.Decision.EntryFailure, context.DeadlineExceeded.Error())
}

func TestPipelineEntryFallbackCannotConfirm(t *testing.T) {
	f := newPipelineFixture(t)
	f.session.chart = candleChart(t)
	f.vision.errs["H4"] = errors.New("quota exceeded")

	result, err := f.pipeline.Run(context.Background(), swingJob())
	require.NoError(t, err)

	d := result.Decision
	assert.Empty(t, d.EntryFailure, "the image heuristic answered for H4")
	require.NotNil(t, d.Validation.Entry)
	assert.Equal(t, dto.StatusForming, d.Status)
	assert.False(t, d.Valid)
	assert.Equal(t, dto.SignalBuy, d.Signal)
	assert.Equal(t, 0.85, d.Confidence)
	assert.Empty(t, f.store.images)
}

func TestPipelinePrimaryFallbackSucceeds(t *testing.T) {
	f := newPipelineFixture(t)
	f.session.chart = candleChart(t)
	f.vision.errs["D1"] = errors.New("quota exceeded")

	result, err := f.pipeline.Run(context.Background(), swingJob())
	require.NoError(t, err)

	d := result.Decision
	assert.Equal(t, dto.StatusForming, d.Status)
	assert.False(t, d.Valid)
	assert.Equal(t, dto.SignalBuy, d.Signal)
	assert.GreaterOrEqual(t, d.Confidence, 0.2)
	assert.LessOrEqual(t, d.Confidence, 0.4)
	assert.Equal(t, dto.ZoneSupport, d.PrimaryZone.ZoneKind)
	assert.GreaterOrEqual(t, d.PrimaryZone.PriceLow, 1.08)
	assert.LessOrEqual(t, d.PrimaryZone.PriceHigh, 1.12)

	lowConfidence := false
	for _, e := range d.Validation.Primary.Errors {
		lowConfidence = lowConfidence || strings.HasPrefix(e, "LOW CONFIDENCE")
	}
	assert.True(t, lowConfidence, d.Validation.Primary.Errors)
	assert.Equal(t, []string{"D1", "H4"}, f.session.captured)
}
