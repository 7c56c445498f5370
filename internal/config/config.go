// Package config provides configuration loading and validation for the service and CLI.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds runtime settings read from the environment.
// Call godotenv.Load() before Load so a local .env file is honored.
type Config struct {
	DatabaseURL string // PostgreSQL connection URL; empty selects the in-memory store
	Port        int

	ProbationDays   int
	HistoryPageSize int

	NotifyWorkers     int
	NotifyQueueSize   int
	NotifyMaxAttempts int
	NotifyWebhookURL  string // optional; notices are always logged

	StageTemplatePath string // optional YAML file overriding the default stages
}

// Defaults used when a variable is unset.
const (
	DefaultPort              = 8080
	DefaultProbationDays     = 90
	DefaultHistoryPageSize   = 50
	DefaultNotifyWorkers     = 2
	DefaultNotifyQueueSize   = 256
	DefaultNotifyMaxAttempts = 5
)

// Load reads the configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		NotifyWebhookURL:  os.Getenv("NOTIFY_WEBHOOK_URL"),
		StageTemplatePath: os.Getenv("STAGE_TEMPLATE_PATH"),
	}

	ints := []struct {
		key string
		def int
		dst *int
	}{
		{"PORT", DefaultPort, &cfg.Port},
		{"PROBATION_DAYS", DefaultProbationDays, &cfg.ProbationDays},
		{"HISTORY_PAGE_SIZE", DefaultHistoryPageSize, &cfg.HistoryPageSize},
		{"NOTIFY_WORKERS", DefaultNotifyWorkers, &cfg.NotifyWorkers},
		{"NOTIFY_QUEUE_SIZE", DefaultNotifyQueueSize, &cfg.NotifyQueueSize},
		{"NOTIFY_MAX_ATTEMPTS", DefaultNotifyMaxAttempts, &cfg.NotifyMaxAttempts},
	}
	for _, v := range ints {
		n, err := envInt(v.key, v.def)
		if err != nil {
			return nil, err
		}
		*v.dst = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config error: PORT must be between 1 and 65535, got: %d", c.Port)
	}
	if c.ProbationDays < 0 {
		return fmt.Errorf("config error: PROBATION_DAYS must be non-negative")
	}
	if c.HistoryPageSize < 1 {
		return fmt.Errorf("config error: HISTORY_PAGE_SIZE must be at least 1")
	}
	if c.NotifyWorkers < 1 {
		return fmt.Errorf("config error: NOTIFY_WORKERS must be at least 1")
	}
	if c.NotifyQueueSize < 1 {
		return fmt.Errorf("config error: NOTIFY_QUEUE_SIZE must be at least 1")
	}
	if c.NotifyMaxAttempts < 1 {
		return fmt.Errorf("config error: NOTIFY_MAX_ATTEMPTS must be at least 1")
	}
	if c.StageTemplatePath != "" {
		if _, err := os.Stat(c.StageTemplatePath); os.IsNotExist(err) {
			return fmt.Errorf("config error: stage template file not found: %s", c.StageTemplatePath)
		}
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// ProbationPeriod returns the probation length as a duration.
func (c *Config) ProbationPeriod() time.Duration {
	return time.Duration(c.ProbationDays) * 24 * time.Hour
}

func envInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return n, nil
}
