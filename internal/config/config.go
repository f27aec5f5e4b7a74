package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	PaperqueryAPIKey string

	// Claude answer generation
	AnthropicAPIKey  string
	AnthropicModel   string
	AnthropicTimeout time.Duration

	// Paper search
	ArxivBaseURL    string
	ArxivTimeout    time.Duration
	ArxivMaxResults int

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Retrieval defaults
	UnitBudget       int
	MaxContextTokens int

	// Job state
	JobTTL time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		PaperqueryAPIKey: os.Getenv("PAPERQUERY_API_KEY"),

		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:   envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
		AnthropicTimeout: envDuration("ANTHROPIC_TIMEOUT", 120*time.Second),

		ArxivBaseURL:    envOr("ARXIV_BASE_URL", "https://export.arxiv.org/api"),
		ArxivTimeout:    envDuration("ARXIV_TIMEOUT", 30*time.Second),
		ArxivMaxResults: envInt("ARXIV_MAX_RESULTS", 10),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		UnitBudget:       envInt("UNIT_BUDGET", 24),
		MaxContextTokens: envInt("MAX_CONTEXT_TOKENS", 8000),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.UnitBudget <= 0 {
		cfg.UnitBudget = 24
	}
	if cfg.MaxContextTokens <= 0 {
		cfg.MaxContextTokens = 8000
	}
	if cfg.ArxivMaxResults <= 0 {
		cfg.ArxivMaxResults = 10
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.PaperqueryAPIKey == "" {
		return fmt.Errorf("PAPERQUERY_API_KEY is required")
	}
	if c.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
