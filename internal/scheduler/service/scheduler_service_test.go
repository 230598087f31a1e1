package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	analyzerdto "golang-zone-analyzer/internal/analyzer/dto"
	"golang-zone-analyzer/internal/scheduler/config"
	"golang-zone-analyzer/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	jobs    []analyzerdto.StreamDataAnalysisJob
	failFor string
}

func (f *fakeQueue) Enqueue(ctx context.Context, job analyzerdto.StreamDataAnalysisJob) (string, error) {
	if job.Pair == f.failFor {
		return "", errors.New("redis unavailable")
	}
	f.jobs = append(f.jobs, job)
	return fmt.Sprintf("%d-0", len(f.jobs)), nil
}

func schedulerConfig(schedules ...config.Schedule) *config.Config {
	return &config.Config{Scheduler: config.Scheduler{Timezone: "UTC", Schedules: schedules}}
}

func dailySchedule() config.Schedule {
	return config.Schedule{
		Name:       "daily",
		Cron:       "0 7 * * 1-5",
		Pairs:      []string{"eur/usd", "XAUUSD"},
		Strategies: []string{"swing", "Scalping"},
	}
}

func TestSchedulerTrigger(t *testing.T) {
	queue := &fakeQueue{}
	svc, err := NewSchedulerService(schedulerConfig(dailySchedule()), queue, logger.NewNop())
	require.NoError(t, err)

	resp, err := svc.Trigger(context.Background(), "daily")
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Enqueued)
	assert.Equal(t, []string{"1-0", "2-0", "3-0", "4-0"}, resp.MessageIDs)

	require.Len(t, queue.jobs, 4)
	assert.Equal(t, analyzerdto.StreamDataAnalysisJob{Pair: "EURUSD", Strategy: analyzerdto.StrategySwing}, queue.jobs[0])
	assert.Equal(t, analyzerdto.StreamDataAnalysisJob{Pair: "XAUUSD", Strategy: analyzerdto.StrategyScalping}, queue.jobs[3])
}

func TestSchedulerTriggerPartialFailure(t *testing.T) {
	queue := &fakeQueue{failFor: "XAUUSD"}
	svc, err := NewSchedulerService(schedulerConfig(dailySchedule()), queue, logger.NewNop())
	require.NoError(t, err)

	resp, err := svc.Trigger(context.Background(), "daily")
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Enqueued)
	assert.Len(t, resp.Errors, 2)
}

func TestSchedulerTriggerUnknown(t *testing.T) {
	svc, err := NewSchedulerService(schedulerConfig(dailySchedule()), &fakeQueue{}, logger.NewNop())
	require.NoError(t, err)

	_, err = svc.Trigger(context.Background(), "weekly")
	assert.ErrorIs(t, err, ErrScheduleNotFound)
}

func TestNewSchedulerServiceRejectsBadConfig(t *testing.T) {
	bad := dailySchedule()
	bad.Cron = "every morning"
	_, err := NewSchedulerService(schedulerConfig(bad), &fakeQueue{}, logger.NewNop())
	assert.ErrorContains(t, err, "invalid cron expression")

	unknown := dailySchedule()
	unknown.Strategies = []string{"position"}
	_, err = NewSchedulerService(schedulerConfig(unknown), &fakeQueue{}, logger.NewNop())
	assert.ErrorContains(t, err, "unknown strategy")

	_, err = NewSchedulerService(schedulerConfig(dailySchedule(), dailySchedule()), &fakeQueue{}, logger.NewNop())
	assert.ErrorContains(t, err, "duplicate schedule")
}

func TestSchedulerSchedulesAndStart(t *testing.T) {
	svc, err := NewSchedulerService(schedulerConfig(dailySchedule()), &fakeQueue{}, logger.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		list := svc.Schedules()
		return len(list) == 1 && list[0].NextRun != nil
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
