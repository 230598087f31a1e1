package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang-zone-analyzer/internal/analyzer/config"
	"golang-zone-analyzer/internal/analyzer/delivery/consumer"
	delivery "golang-zone-analyzer/internal/analyzer/delivery/http"
	_ "golang-zone-analyzer/internal/analyzer/docs"
	"golang-zone-analyzer/internal/analyzer/dto"
	"golang-zone-analyzer/internal/analyzer/repository"
	"golang-zone-analyzer/internal/analyzer/service"
	"golang-zone-analyzer/pkg/common"
	"golang-zone-analyzer/pkg/logger"
	"golang-zone-analyzer/pkg/telegram"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	swagger "github.com/swaggo/echo-swagger"
)

var (
	configPath    string
	runPairs      []string
	runStrategies []string
	runNotify     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the analyzer service (stream consumer and HTTP API)",
	Run:   runServe,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Runs one batch of analyses and prints the summary",
	Run:   runBatch,
}

func loadConfig() (*config.Config, *logger.Logger) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	return cfg, appLogger
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, appLogger := loadConfig()
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Analyzer Service", logger.Field("name", cfg.App.Name))

	a, err := buildApp(ctx, cfg, appLogger, true)
	if err != nil {
		appLogger.Fatal("Failed to initialize analyzer", logger.ErrorField(err))
	}
	defer a.Close()

	if err := a.redisClient.EnsureGroup(ctx, common.RedisStreamAnalysisJob, common.RedisStreamGroup); err != nil {
		appLogger.Fatal("Failed to create consumer group", logger.ErrorField(err))
	}

	streamService := service.NewAnalysisStreamService(cfg, appLogger, a.redisClient.Client, a.pipeline, a.notifier)
	redisConsumer := consumer.NewRedisConsumer(cfg, streamService, appLogger)
	redisConsumer.Start(ctx)

	e := echo.New()
	e.HideBanner = true
	e.Use(a.metrics.EchoMiddleware())

	queue := repository.NewJobQueueRepository(a.redisClient.Client, cfg.Redis.StreamMaxLen)
	decisionHandler := delivery.NewDecisionHandler(a.decisions, a.reports, queue, appLogger)
	apiV1 := e.Group("/api/v1")
	decisionHandler.RegisterRoutes(apiV1)

	e.GET("/healthz", delivery.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", swagger.WrapHandler)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop()
		}
	}()

	<-ctx.Done()

	appLogger.Info("Shutting down analyzer service...")
	redisConsumer.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Analyzer service exited")
}

func runBatch(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, appLogger := loadConfig()
	defer func() { _ = appLogger.Sync() }()

	pairs := runPairs
	if len(pairs) == 0 {
		pairs = cfg.Analyzer.Pairs
	}
	names := runStrategies
	if len(names) == 0 {
		names = cfg.Analyzer.Strategies
	}
	if len(pairs) == 0 || len(names) == 0 {
		appLogger.Fatal("Nothing to run: pairs and strategies must not be empty")
	}

	strategies := make([]dto.StrategyName, 0, len(names))
	for _, name := range names {
		strategies = append(strategies, dto.StrategyName(strings.ToLower(strings.TrimSpace(name))))
	}

	a, err := buildApp(ctx, cfg, appLogger, false)
	if err != nil {
		appLogger.Fatal("Failed to initialize analyzer", logger.ErrorField(err))
	}
	defer a.Close()

	runner := service.NewBatchRunner(a.pipeline, appLogger, cfg.Analyzer.MaxConcurrentJobs)
	summary := runner.Run(ctx, dto.BuildJobs(pairs, strategies))

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		appLogger.Fatal("Failed to encode batch summary", logger.ErrorField(err))
	}
	fmt.Println(string(out))

	if runNotify {
		for _, msg := range telegram.FormatBatchSummaryMessages(summary) {
			if err := a.notifier.SendMessage(msg); err != nil {
				appLogger.Error("Failed to send batch summary", logger.ErrorField(err))
			}
		}
	}

	appLogger.Info("Batch finished",
		logger.IntField("total", summary.Total),
		logger.IntField("succeeded", summary.Succeeded),
		logger.IntField("failed", summary.Failed))
}

// @title Zone Analyzer API
// @version 1.0
// @description Multi-timeframe chart zone analysis: latest decisions and on-demand jobs.
// @BasePath /api/v1
func main() {
	rootCmd := &cobra.Command{Use: "analyzer-service"}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config-analyzer.yaml", "Path to the configuration file")
	runCmd.Flags().StringSliceVarP(&runPairs, "pair", "p", nil, "Pairs to analyze (defaults to analyzer.pairs)")
	runCmd.Flags().StringSliceVarP(&runStrategies, "strategy", "s", nil, "Strategies to run (defaults to analyzer.strategies)")
	runCmd.Flags().BoolVar(&runNotify, "notify", false, "Send the batch summary to the Telegram chat")

	rootCmd.AddCommand(serveCmd, runCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing analyzer-service CLI: %s\n", err)
		os.Exit(1)
	}
}
