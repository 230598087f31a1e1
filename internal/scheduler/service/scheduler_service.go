package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	analyzerdto "golang-zone-analyzer/internal/analyzer/dto"
	"golang-zone-analyzer/internal/analyzer/repository"
	"golang-zone-analyzer/internal/scheduler/config"
	"golang-zone-analyzer/internal/scheduler/dto"
	"golang-zone-analyzer/pkg/logger"
	"golang-zone-analyzer/pkg/utils"

	"github.com/robfig/cron/v3"
)

// ErrScheduleNotFound is returned when a trigger names an unknown schedule.
var ErrScheduleNotFound = errors.New("schedule not found")

// SchedulerService defines the interface for the job scheduling service.
type SchedulerService interface {
	Start(ctx context.Context)
	Schedules() []dto.ScheduleResponse
	Trigger(ctx context.Context, name string) (*dto.TriggerResponse, error)
}

type schedulerService struct {
	cfg       *config.Config
	queue     repository.JobQueueRepository
	logger    *logger.Logger
	cron      *cron.Cron
	schedules map[string]config.Schedule
	entries   map[string]cron.EntryID
	mu        sync.Mutex
}

// NewSchedulerService creates a new scheduler service and registers every configured schedule.
func NewSchedulerService(cfg *config.Config, queue repository.JobQueueRepository, log *logger.Logger) (SchedulerService, error) {
	loc := utils.GetWibTimeLocation()
	if cfg.Scheduler.Timezone != "" {
		l, err := time.LoadLocation(cfg.Scheduler.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid scheduler timezone: %w", err)
		}
		loc = l
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	s := &schedulerService{
		cfg:       cfg,
		queue:     queue,
		logger:    log,
		cron:      cron.New(cron.WithLocation(loc), cron.WithParser(parser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		schedules: make(map[string]config.Schedule),
		entries:   make(map[string]cron.EntryID),
	}

	for _, sc := range cfg.Scheduler.Schedules {
		if sc.Name == "" {
			return nil, fmt.Errorf("schedule with cron %q has no name", sc.Cron)
		}
		if _, dup := s.schedules[sc.Name]; dup {
			return nil, fmt.Errorf("duplicate schedule name %q", sc.Name)
		}
		for _, st := range sc.Strategies {
			switch analyzerdto.StrategyName(strings.ToLower(st)) {
			case analyzerdto.StrategySwing, analyzerdto.StrategyScalping:
			default:
				return nil, fmt.Errorf("schedule %q: unknown strategy %q", sc.Name, st)
			}
		}

		id, err := s.cron.AddFunc(sc.Cron, func() {
			if _, err := s.enqueue(context.Background(), sc); err != nil {
				s.logger.Error("Scheduled run failed", logger.StringField("schedule", sc.Name), logger.ErrorField(err))
			}
		})
		if err != nil {
			return nil, fmt.Errorf("schedule %q: invalid cron expression: %w", sc.Name, err)
		}
		s.schedules[sc.Name] = sc
		s.entries[sc.Name] = id
	}
	return s, nil
}

// Start runs the cron loop until ctx is done, then waits for running enqueues.
func (s *schedulerService) Start(ctx context.Context) {
	s.logger.Info("Scheduler service started", logger.IntField("schedules", len(s.schedules)))
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler service stopping")
}

func (s *schedulerService) Schedules() []dto.ScheduleResponse {
	out := make([]dto.ScheduleResponse, 0, len(s.cfg.Scheduler.Schedules))
	for _, sc := range s.cfg.Scheduler.Schedules {
		resp := dto.ScheduleResponse{Name: sc.Name, Cron: sc.Cron, Pairs: sc.Pairs, Strategies: sc.Strategies}
		entry := s.cron.Entry(s.entries[sc.Name])
		if !entry.Next.IsZero() {
			resp.NextRun = utils.ToPointer(entry.Next)
		}
		if !entry.Prev.IsZero() {
			resp.PrevRun = utils.ToPointer(entry.Prev)
		}
		out = append(out, resp)
	}
	return out
}

func (s *schedulerService) Trigger(ctx context.Context, name string) (*dto.TriggerResponse, error) {
	sc, ok := s.schedules[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrScheduleNotFound, name)
	}
	return s.enqueue(ctx, sc)
}

// enqueue publishes every pair x strategy job of the schedule. A failed job does not stop the others.
func (s *schedulerService) enqueue(ctx context.Context, sc config.Schedule) (*dto.TriggerResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	strategies := make([]analyzerdto.StrategyName, 0, len(sc.Strategies))
	for _, st := range sc.Strategies {
		strategies = append(strategies, analyzerdto.StrategyName(strings.ToLower(st)))
	}
	pairs := make([]string, 0, len(sc.Pairs))
	for _, p := range sc.Pairs {
		pairs = append(pairs, utils.NormalizePair(p))
	}

	resp := &dto.TriggerResponse{Name: sc.Name, MessageIDs: []string{}}
	for _, job := range analyzerdto.BuildJobs(pairs, strategies) {
		job.NotifyUser = sc.NotifyUser
		job.TelegramID = sc.TelegramID

		id, err := s.queue.Enqueue(ctx, job)
		if err != nil {
			s.logger.Error("Failed to enqueue task", logger.ErrorField(err),
				logger.StringField("pair", job.Pair),
				logger.StringField("strategy", string(job.Strategy)))
			resp.Errors = append(resp.Errors, fmt.Sprintf("%s %s: %v", job.Pair, job.Strategy, err))
			continue
		}
		resp.Enqueued++
		resp.MessageIDs = append(resp.MessageIDs, id)
	}

	s.logger.Info("Schedule published",
		logger.StringField("schedule", sc.Name),
		logger.IntField("enqueued", resp.Enqueued),
		logger.IntField("failed", len(resp.Errors)))

	if resp.Enqueued == 0 && len(resp.Errors) > 0 {
		return resp, fmt.Errorf("no job of schedule %s could be enqueued", sc.Name)
	}
	return resp, nil
}
