package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dgallion1/yamloutline/internal/outline"
	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Auth; empty disables it
	APIKey string

	// Outline
	DedentPolicy outline.DedentPolicy

	// Pathstore publishing; empty URL disables it
	PathstoreURL    string
	PathstoreAPIKey string
	PublishRetries  int

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Outline cache
	CacheDir      string
	CacheInMemory bool
	CacheTTL      time.Duration

	// Rate limiting; zero RPS disables it
	RateLimitRPS   float64
	RateLimitBurst int

	// Rolling latency window for /api/stats
	StatsWindow time.Duration

	// PDF
	PDFFallbackPdftotext bool

	policyErr  error
	envFileErr error
}

// Load reads configuration from the environment. A .env file in the working
// directory (or ENV_FILE_PATH) is loaded first; variables already set win.
// A missing implicit .env is fine; an unreadable ENV_FILE_PATH fails Validate.
func Load() Config {
	envFile := os.Getenv("ENV_FILE_PATH")
	var envFileErr error
	if envFile != "" {
		envFileErr = godotenv.Load(envFile)
	} else {
		_ = godotenv.Load()
	}

	cfg := Config{
		Port: envOr("PORT", "8091"),

		APIKey: os.Getenv("OUTLINE_API_KEY"),

		PathstoreURL:    os.Getenv("PATHSTORE_URL"),
		PathstoreAPIKey: os.Getenv("PATHSTORE_API_KEY"),
		PublishRetries:  envInt("PUBLISH_RETRIES", 3),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 10485760), // 10MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		CacheDir:      os.Getenv("CACHE_DIR"),
		CacheInMemory: envBool("CACHE_IN_MEMORY", false),
		CacheTTL:      envDuration("CACHE_TTL", 24*time.Hour),

		RateLimitRPS:   envFloat("RATE_LIMIT_RPS", 0),
		RateLimitBurst: envInt("RATE_LIMIT_BURST", 20),

		StatsWindow: envDuration("STATS_WINDOW", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	cfg.envFileErr = envFileErr
	cfg.DedentPolicy, cfg.policyErr = outline.ParseDedentPolicy(os.Getenv("DEDENT_POLICY"))

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10485760
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	if cfg.PublishRetries < 0 {
		cfg.PublishRetries = 0
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 20
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}

	return cfg
}

// CacheEnabled reports whether an outline cache should be opened.
func (c Config) CacheEnabled() bool {
	return c.CacheInMemory || c.CacheDir != ""
}

// PublishEnabled reports whether outlines are published to pathstore.
func (c Config) PublishEnabled() bool {
	return c.PathstoreURL != ""
}

func (c Config) Validate() error {
	if c.envFileErr != nil {
		return fmt.Errorf("ENV_FILE_PATH: %w", c.envFileErr)
	}
	if c.policyErr != nil {
		return fmt.Errorf("DEDENT_POLICY: %w", c.policyErr)
	}
	if c.PathstoreURL != "" && c.PathstoreAPIKey == "" {
		return fmt.Errorf("PATHSTORE_API_KEY is required when PATHSTORE_URL is set")
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative")
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

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
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
