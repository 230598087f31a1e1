package consumer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"golang-zone-analyzer/internal/analyzer/config"
	"golang-zone-analyzer/internal/analyzer/dto"
	"golang-zone-analyzer/pkg/logger"

	"github.com/stretchr/testify/assert"
)

type countingService struct {
	tasks   int32
	retries int32
}

func (s *countingService) ProcessTask(ctx context.Context) {
	atomic.AddInt32(&s.tasks, 1)
	time.Sleep(time.Millisecond)
}

func (s *countingService) ProcessRetries(ctx context.Context) {
	atomic.AddInt32(&s.retries, 1)
}

func (s *countingService) Execute(ctx context.Context, data dto.StreamDataAnalysisJob) error {
	return nil
}

func TestRedisConsumerStartStop(t *testing.T) {
	cfg := &config.Config{Analyzer: config.Analyzer{
		MaxConcurrentJobs:              2,
		RedisStreamJobTimeout:          time.Second,
		RedisStreamRetryInterval:       5 * time.Millisecond,
		RedisStreamRetryHandlerTimeout: time.Second,
	}}
	svc := &countingService{}
	c := NewRedisConsumer(cfg, svc, logger.NewNop())

	c.Start(context.Background())
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&svc.tasks) > 2 && atomic.LoadInt32(&svc.retries) > 0
	}, 2*time.Second, 5*time.Millisecond)

	c.Stop()
	stopped := atomic.LoadInt32(&svc.tasks)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, atomic.LoadInt32(&svc.tasks))

	// a second Stop is a no-op
	c.Stop()
}

func TestRedisConsumerStopsOnContextCancel(t *testing.T) {
	cfg := &config.Config{Analyzer: config.Analyzer{
		MaxConcurrentJobs:              1,
		RedisStreamJobTimeout:          time.Second,
		RedisStreamRetryInterval:       time.Hour,
		RedisStreamRetryHandlerTimeout: time.Second,
	}}
	c := NewRedisConsumer(cfg, &countingService{}, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after cancellation")
	}
}
