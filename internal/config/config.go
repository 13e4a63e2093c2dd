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

	// Topics and content
	ManifestPath    string
	ContentDir      string
	ContentURL      string
	ContentAPIKey   string
	MaxContentBytes int64

	// Remote content fetches
	FetchRetries int
	FetchTimeout time.Duration

	// Auth
	AdminAPIKey string

	// Sessions
	SessionTTL             time.Duration
	SessionCleanupInterval time.Duration

	// Hot reload
	WatchManifest bool
	WatchDebounce time.Duration

	// Rendering
	RenderCacheTTL time.Duration
	HighlightStyle string

	// Metrics
	MetricsEnabled   bool
	MetricsNamespace string

	// PDF
	PDFFallbackPdftotext bool

	LogLevel string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		ManifestPath:    envOr("MANIFEST_PATH", "topics.yaml"),
		ContentDir:      envOr("CONTENT_DIR", "content"),
		ContentURL:      os.Getenv("CONTENT_URL"),
		ContentAPIKey:   os.Getenv("CONTENT_API_KEY"),
		MaxContentBytes: envInt64("MAX_CONTENT_BYTES", 10485760), // 10MB

		FetchRetries: envInt("FETCH_RETRIES", 3),
		FetchTimeout: envDuration("FETCH_TIMEOUT", 10*time.Second),

		AdminAPIKey: os.Getenv("ADMIN_API_KEY"),

		SessionTTL:             envDuration("SESSION_TTL", 24*time.Hour),
		SessionCleanupInterval: envDuration("SESSION_CLEANUP_INTERVAL", 5*time.Minute),

		WatchManifest: envBool("WATCH_MANIFEST", true),
		WatchDebounce: envDuration("WATCH_DEBOUNCE", 500*time.Millisecond),

		RenderCacheTTL: envDuration("RENDER_CACHE_TTL", 10*time.Minute),
		HighlightStyle: envOr("HIGHLIGHT_STYLE", "github"),

		MetricsEnabled:   envBool("METRICS_ENABLED", true),
		MetricsNamespace: envOr("METRICS_NAMESPACE", "docnav"),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		LogLevel: envOr("LOG_LEVEL", "info"),
	}

	if cfg.MaxContentBytes <= 0 {
		cfg.MaxContentBytes = 10485760
	}
	if cfg.FetchRetries < 0 {
		cfg.FetchRetries = 0
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.SessionCleanupInterval <= 0 {
		cfg.SessionCleanupInterval = 5 * time.Minute
	}
	if cfg.WatchDebounce <= 0 {
		cfg.WatchDebounce = 500 * time.Millisecond
	}
	if cfg.RenderCacheTTL <= 0 {
		cfg.RenderCacheTTL = 10 * time.Minute
	}

	return cfg
}

func (c Config) Validate() error {
	if c.ManifestPath == "" {
		return fmt.Errorf("MANIFEST_PATH is required")
	}
	if c.ContentURL == "" && c.ContentDir == "" {
		return fmt.Errorf("one of CONTENT_DIR or CONTENT_URL is required")
	}
	if c.ContentURL != "" && !strings.HasPrefix(c.ContentURL, "http://") && !strings.HasPrefix(c.ContentURL, "https://") {
		return fmt.Errorf("CONTENT_URL must be an http(s) URL, got %q", c.ContentURL)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", c.LogLevel)
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
