package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv             string `env:"APP_ENV" default:"development"`
	Port               string `env:"PORT" default:"8000"`
	BotToken           string `env:"BOT_TOKEN"`
	WebhookURL         string `env:"WEBHOOK_URL"`
	WebhookSecretToken string `env:"WEBHOOK_SECRET_TOKEN"`
	WebhookVerifyIP    bool   `env:"WEBHOOK_VERIFY_IP" default:"false"`
	LogLevel           string `env:"LOG_LEVEL" default:"info"`
	LogFormat          string `env:"LOG_FORMAT" default:"text"`

	ScratchRoot string `env:"SCRATCH_ROOT"`

	SessionIdleTTL  time.Duration `env:"SESSION_IDLE_TTL" default:"30m"`
	ReaperInterval  time.Duration `env:"REAPER_INTERVAL" default:"5m"`
	DownloadTimeout time.Duration `env:"DOWNLOAD_TIMEOUT" default:"30s"`

	MaxImagesPerSession int `env:"MAX_IMAGES_PER_SESSION" default:"50"`
	DispatchQueueSize   int `env:"DISPATCH_QUEUE_SIZE" default:"256"`
	DispatchWorkers     int `env:"DISPATCH_WORKERS" default:"8"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if cfg.ScratchRoot == "" {
		cfg.ScratchRoot = os.TempDir()
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if cfg.MaxImagesPerSession < 1 {
		return fmt.Errorf("MAX_IMAGES_PER_SESSION must be at least 1, got %d", cfg.MaxImagesPerSession)
	}
	if cfg.DispatchQueueSize < 1 {
		return fmt.Errorf("DISPATCH_QUEUE_SIZE must be at least 1, got %d", cfg.DispatchQueueSize)
	}
	if cfg.DispatchWorkers < 1 {
		return fmt.Errorf("DISPATCH_WORKERS must be at least 1, got %d", cfg.DispatchWorkers)
	}
	if cfg.SessionIdleTTL <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must be positive")
	}
	if cfg.ReaperInterval <= 0 {
		return fmt.Errorf("REAPER_INTERVAL must be positive")
	}
	return nil
}
