package config

import (
	"golang-zone-analyzer/pkg/config"
)

// Schedule enqueues every pair x strategy combination on its cron expression.
type Schedule struct {
	Name       string   `mapstructure:"name"`
	Cron       string   `mapstructure:"cron"`
	Pairs      []string `mapstructure:"pairs"`
	Strategies []string `mapstructure:"strategies"`
	NotifyUser bool     `mapstructure:"notify_user"`
	TelegramID int64    `mapstructure:"telegram_id"`
}

// Scheduler holds scheduler-specific configuration.
type Scheduler struct {
	Timezone  string     `mapstructure:"timezone" default:"Asia/Jakarta"`
	Schedules []Schedule `mapstructure:"schedules"`
}

// Config holds the full configuration for the scheduler service.
type Config struct {
	App       config.App      `mapstructure:"app"`
	Logger    config.Logger   `mapstructure:"logger"`
	Database  config.Database `mapstructure:"database"`
	Redis     config.Redis    `mapstructure:"redis"`
	API       config.API      `mapstructure:"api"`
	Scheduler Scheduler       `mapstructure:"scheduler"`
}

// Load loads the scheduler configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
