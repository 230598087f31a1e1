package consumer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang-zone-analyzer/internal/analyzer/config"
	"golang-zone-analyzer/internal/analyzer/service"
	"golang-zone-analyzer/pkg/common"
	"golang-zone-analyzer/pkg/logger"
	"golang-zone-analyzer/pkg/utils"
)

// RedisConsumer runs the stream workers and the retry ticker of the analyzer.
type RedisConsumer struct {
	cfg                   *config.Config
	analysisStreamService service.AnalysisStreamService
	logger                *logger.Logger
	stopChan              chan struct{}
	stopOnce              sync.Once
	wg                    sync.WaitGroup
}

// NewRedisConsumer creates a new RedisConsumer.
func NewRedisConsumer(
	cfg *config.Config,
	analysisStreamService service.AnalysisStreamService,
	log *logger.Logger,
) *RedisConsumer {
	return &RedisConsumer{
		cfg:                   cfg,
		analysisStreamService: analysisStreamService,
		logger:                log,
		stopChan:              make(chan struct{}),
	}
}

// Start launches one stream handler per allowed concurrent job plus the retry handler.
func (c *RedisConsumer) Start(ctx context.Context) {
	c.logger.Info("Redis consumer started")

	workers := c.cfg.Analyzer.MaxConcurrentJobs
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		c.RegisterStreamHandler(ctx, c.analysisStreamService.ProcessTask,
			fmt.Sprintf("%s#%d", common.RedisStreamAnalysisJob, i), c.cfg.Analyzer.RedisStreamJobTimeout)
	}

	//handle retry
	c.RegisterTickerHandler(ctx, c.analysisStreamService.ProcessRetries,
		c.cfg.Analyzer.RedisStreamRetryInterval, c.cfg.Analyzer.RedisStreamRetryHandlerTimeout,
		common.RedisStreamAnalysisJob+"-retry")
}

func (c *RedisConsumer) RegisterStreamHandler(ctx context.Context, fn func(ctx context.Context), streamName string, timeout time.Duration) {
	c.logger.Info("Registering stream handler", logger.Field("stream", streamName))
	c.wg.Add(1)
	utils.GoSafe(func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Redis consumer stopping due to context cancellation", logger.Field("stream", streamName))
				return
			case <-c.stopChan:
				c.logger.Info("Redis consumer stopping", logger.Field("stream", streamName))
				return
			default:
				ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
				fn(ctxTimeout)
				cancel()
			}
		}
	})
}

func (c *RedisConsumer) RegisterTickerHandler(ctx context.Context, fn func(ctx context.Context), interval time.Duration, timeout time.Duration, name string) {
	c.logger.Info("Registering ticker handler",
		logger.Field("name", name),
		logger.Field("interval", interval),
		logger.Field("timeout", timeout))
	c.wg.Add(1)
	utils.GoSafe(func() {
		defer c.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
				fn(ctxTimeout)
				cancel()
			case <-ctx.Done():
				c.logger.Info("Ticker handler stopping due to context cancellation", logger.Field("name", name))
				return
			case <-c.stopChan:
				c.logger.Info("Ticker handler stopping", logger.Field("name", name))
				return
			}
		}
	})
}

// Stop gracefully shuts down the consumer. In-flight jobs finish first.
func (c *RedisConsumer) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
	c.wg.Wait()
	c.logger.Info("Redis consumer stopped")
}
