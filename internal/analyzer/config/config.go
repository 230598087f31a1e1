package config

import (
	"time"

	"golang-zone-analyzer/internal/analyzer/geometry"
	"golang-zone-analyzer/internal/analyzer/sop"
	"golang-zone-analyzer/pkg/config"
)

// Analyzer holds pipeline and stream settings.
type Analyzer struct {
	MaxConcurrentJobs int           `mapstructure:"max_concurrent_jobs" default:"4"`
	CaptureTimeout    time.Duration `mapstructure:"capture_timeout" default:"60s"`
	VisionTimeout     time.Duration `mapstructure:"vision_timeout" default:"90s"`
	PersistTimeout    time.Duration `mapstructure:"persist_timeout" default:"30s"`
	DecisionCacheTTL  time.Duration `mapstructure:"decision_cache_ttl" default:"24h"`
	ReportStore       string        `mapstructure:"report_store" default:"file"`
	ReportDir         string        `mapstructure:"report_dir" default:"reports"`
	Pairs             []string      `mapstructure:"pairs"`
	Strategies        []string      `mapstructure:"strategies"`

	RedisStreamJobTimeout          time.Duration `mapstructure:"redis_stream_job_timeout" default:"6m"`
	RedisStreamRetryInterval       time.Duration `mapstructure:"redis_stream_retry_interval" default:"1m"`
	RedisStreamMaxIdleDuration     time.Duration `mapstructure:"redis_stream_max_idle_duration" default:"10m"`
	RedisStreamMaxRetry            int           `mapstructure:"redis_stream_max_retry" default:"3"`
	RedisStreamRetryHandlerTimeout time.Duration `mapstructure:"redis_stream_retry_handler_timeout" default:"6m"`
}

// Capture holds the chart capture service client settings.
type Capture struct {
	BaseURL        string        `mapstructure:"base_url" default:"http://localhost:3000"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" default:"30s"`
	MaxRetries     uint64        `mapstructure:"max_retries" default:"3"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff" default:"500ms"`
}

// Gemini holds the configuration for the Gemini API.
type Gemini struct {
	APIKey              string        `mapstructure:"api_key"`
	BaseURL             string        `mapstructure:"base_url" default:"https://generativelanguage.googleapis.com/v1beta/models"`
	Model               string        `mapstructure:"model" default:"gemini-2.0-flash"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute" default:"10"`
	MaxTokenPerMinute   int           `mapstructure:"max_token_per_minute" default:"250000"`
	CacheTTL            time.Duration `mapstructure:"cache_ttl" default:"5m"`
}

// Telegram holds configuration for the Telegram notifier.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Strategies carries per-strategy overrides; zero fields keep the built-in values.
type Strategies struct {
	Swing    sop.Settings `mapstructure:"swing"`
	Scalping sop.Settings `mapstructure:"scalping"`
}

// Config holds the full configuration for the analyzer service.
type Config struct {
	App        config.App      `mapstructure:"app"`
	Logger     config.Logger   `mapstructure:"logger"`
	Database   config.Database `mapstructure:"database"`
	Redis      config.Redis    `mapstructure:"redis"`
	API        config.API      `mapstructure:"api"`
	Analyzer   Analyzer        `mapstructure:"analyzer"`
	Capture    Capture         `mapstructure:"capture"`
	Gemini     Gemini          `mapstructure:"gemini"`
	Telegram   Telegram        `mapstructure:"telegram"`
	Geometry   geometry.Config `mapstructure:"geometry"`
	Strategies Strategies      `mapstructure:"strategies"`
}

// Load loads the analyzer configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
