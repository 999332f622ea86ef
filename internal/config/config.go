package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Auth; empty disables bearer authentication
	APIKey string

	// Request limits
	MaxMarkdownBytes int64
	RequestTimeout   time.Duration
	RateLimit        int
	RateWindow       time.Duration

	// CORS; empty disables the middleware
	CORSOrigins []string

	// Remote images; empty denies every host
	AllowedImageHosts []string
	ImageTimeout      time.Duration

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Job state
	JobTTL time.Duration
}

const (
	defaultMaxMarkdownBytes = 5 << 20 // 5MB
	defaultRequestTimeout   = 60 * time.Second
	defaultRateLimit        = 30
	defaultRateWindow       = time.Minute
	defaultImageTimeout     = 30 * time.Second
	defaultWorkerCount      = 4
	defaultMaxQueueSize     = 64
	defaultJobTTL           = time.Hour
)

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8000"),

		APIKey: os.Getenv("MD2DOCX_API_KEY"),

		MaxMarkdownBytes: envInt64("MD2DOCX_MAX_MARKDOWN_BYTES", defaultMaxMarkdownBytes),
		RequestTimeout:   envDuration("MD2DOCX_REQUEST_TIMEOUT", defaultRequestTimeout),
		RateLimit:        envInt("MD2DOCX_RATE_LIMIT", defaultRateLimit),
		RateWindow:       envDuration("MD2DOCX_RATE_WINDOW", defaultRateWindow),

		CORSOrigins: envList("MD2DOCX_CORS_ORIGINS"),

		AllowedImageHosts: envList("MD2DOCX_ALLOWED_IMAGE_HOSTS"),
		ImageTimeout:      envDuration("MD2DOCX_IMAGE_TIMEOUT", defaultImageTimeout),

		WorkerCount:  envInt("MD2DOCX_WORKER_COUNT", defaultWorkerCount),
		MaxQueueSize: envInt("MD2DOCX_MAX_QUEUE_SIZE", defaultMaxQueueSize),

		JobTTL: envDuration("MD2DOCX_JOB_TTL", defaultJobTTL),
	}

	if cfg.MaxMarkdownBytes <= 0 {
		cfg.MaxMarkdownBytes = defaultMaxMarkdownBytes
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = defaultRateWindow
	}
	if cfg.ImageTimeout <= 0 {
		cfg.ImageTimeout = defaultImageTimeout
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = defaultWorkerCount
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = defaultMaxQueueSize
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = defaultJobTTL
	}

	return cfg
}

func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if n, err := strconv.Atoi(c.Port); err != nil || n <= 0 || n > 65535 {
		return fmt.Errorf("PORT %q is not a valid port number", c.Port)
	}
	for _, o := range c.CORSOrigins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return fmt.Errorf("MD2DOCX_CORS_ORIGINS: %q must be * or an http(s) origin", o)
		}
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

// envList splits a comma separated value, dropping empty entries.
func envList(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
