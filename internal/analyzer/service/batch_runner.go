package service

import (
	"context"
	"sync"

	"golang-zone-analyzer/internal/analyzer/dto"
	"golang-zone-analyzer/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// BatchRunner runs many jobs through the pipeline with bounded concurrency.
type BatchRunner interface {
	Run(ctx context.Context, jobs []dto.StreamDataAnalysisJob) dto.BatchSummary
}

type batchRunner struct {
	pipeline    Pipeline
	log         *logger.Logger
	concurrency int
}

func NewBatchRunner(pipeline Pipeline, log *logger.Logger, concurrency int) BatchRunner {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &batchRunner{pipeline: pipeline, log: log, concurrency: concurrency}
}

// Run never stops early: a failed job is recorded and the rest continue.
// Results keep the order of jobs.
func (b *batchRunner) Run(ctx context.Context, jobs []dto.StreamDataAnalysisJob) dto.BatchSummary {
	results := make([]dto.ExecutorSummaryResult, len(jobs))

	var mu sync.Mutex
	summary := dto.BatchSummary{Total: len(jobs)}

	g := new(errgroup.Group)
	g.SetLimit(b.concurrency)
	for i, job := range jobs {
		g.Go(func() error {
			res := dto.ExecutorSummaryResult{Pair: job.Pair, Strategy: job.Strategy}

			out, err := b.pipeline.Run(ctx, job)
			if err != nil {
				b.log.Error("Batch job failed",
					logger.StringField("pair", job.Pair),
					logger.StringField("strategy", string(job.Strategy)),
					logger.ErrorField(err))
				res.Error = err.Error()
			} else {
				res.IsSuccess = true
				res.Pair = out.Decision.Pair
				res.Status = out.Decision.Status
				if out.Report != nil {
					res.ReportKey = out.Report.Key
				}
			}
			results[i] = res

			mu.Lock()
			if res.IsSuccess {
				summary.Succeeded++
			} else {
				summary.Failed++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	summary.Results = results
	return summary
}
