package main

import (
	"context"
	"fmt"

	"golang-zone-analyzer/internal/analyzer/config"
	"golang-zone-analyzer/internal/analyzer/geometry"
	"golang-zone-analyzer/internal/analyzer/render"
	"golang-zone-analyzer/internal/analyzer/repository"
	"golang-zone-analyzer/internal/analyzer/service"
	"golang-zone-analyzer/internal/analyzer/sop"
	"golang-zone-analyzer/pkg/logger"
	"golang-zone-analyzer/pkg/metrics"
	"golang-zone-analyzer/pkg/postgres"
	"golang-zone-analyzer/pkg/redis"
	"golang-zone-analyzer/pkg/telegram"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/genai"
)

// app holds the wired components shared by the serve and run commands.
type app struct {
	cfg         *config.Config
	log         *logger.Logger
	db          *postgres.DB
	redisClient *redis.Client
	reports     repository.AnalysisReportRepository
	decisions   repository.DecisionCacheRepository
	notifier    telegram.Notifier
	metrics     *metrics.Recorder
	pipeline    service.Pipeline
	closers     []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newRegistry(cfg *config.Config) *sop.Registry {
	return sop.NewRegistry(
		sop.NewSwing(cfg.Strategies.Swing),
		sop.NewScalping(cfg.Strategies.Scalping),
	)
}

// buildApp wires every dependency. Redis is optional when requireRedis is false.
func buildApp(ctx context.Context, cfg *config.Config, appLogger *logger.Logger, requireRedis bool) (*app, error) {
	a := &app{cfg: cfg, log: appLogger, metrics: metrics.New(prometheus.DefaultRegisterer)}

	// Initialize Redis
	redisClient, err := redis.NewClient(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	switch {
	case err == nil:
		a.redisClient = redisClient
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
		a.decisions = repository.NewDecisionCacheRepository(redisClient.Client, cfg.Analyzer.DecisionCacheTTL)
	case requireRedis:
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	default:
		appLogger.Warn("Redis unavailable, latest decisions will not be cached", logger.ErrorField(err))
	}

	// Initialize report store
	files := repository.NewFileReportStore(cfg.Analyzer.ReportDir)
	reportStore := files
	switch cfg.Analyzer.ReportStore {
	case "postgres":
		db, err := postgres.NewDB(postgres.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			DBName:          cfg.Database.DBName,
			SSLMode:         cfg.Database.SSLMode,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if sqlDB, err := db.DB.DB(); err == nil {
			a.closers = append(a.closers, func() { _ = sqlDB.Close() })
		}
		a.db = db
		a.reports = repository.NewAnalysisReportRepository(db.DB)
		reportStore = repository.NewPostgresReportStore(files, a.reports)
	case "file", "":
	default:
		a.Close()
		return nil, fmt.Errorf("unknown report store %q", cfg.Analyzer.ReportStore)
	}

	// Initialize vision provider
	genAiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize Gemini AI client: %w", err)
	}
	visionRepo, err := repository.NewGeminiVisionRepository(cfg, appLogger, genAiClient)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize Gemini vision repository: %w", err)
	}

	// Initialize notifier
	a.notifier = telegram.NewNopNotifier()
	if cfg.Telegram.BotToken != "" {
		notifier, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize Telegram notifier: %w", err)
		}
		a.notifier = notifier
	}

	a.pipeline = service.NewPipeline(cfg, appLogger,
		newRegistry(cfg),
		repository.NewHTTPCaptureProvider(cfg, appLogger),
		visionRepo,
		reportStore,
		a.decisions,
		geometry.NewEngine(cfg.Geometry),
		render.NewRenderer(),
		a.notifier,
		a.metrics,
	)
	return a, nil
}
