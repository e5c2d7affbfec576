package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Fetcher   FetcherConfig
	Scraper   ScraperConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP API server (serve mode).
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the shared Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is the proxy URL used for browser navigation.
	Proxy string

	// Stealth injects stealth JS before navigation to mask automation.
	Stealth bool // default: true
}

// FetcherConfig controls the static HTTP tier.
type FetcherConfig struct {
	// UserAgent is sent on every outbound request, static and rendered.
	UserAgent string

	// AcceptLanguage is required: some origins serve different or empty
	// markup to clients without it.
	AcceptLanguage string // default: "en-US,en;q=0.9"

	// MaxBodyBytes caps the response body read.
	MaxBodyBytes int64 // default: 10 MB
}

// ScraperConfig controls the rendered tier and the image heuristic.
type ScraperConfig struct {
	// NavTimeout is the hard ceiling on a rendered navigation.
	NavTimeout time.Duration // default: 30s

	// SettleWindow is how long network activity must be quiet before
	// the page is considered loaded.
	SettleWindow time.Duration // default: 300ms

	// MinImageDim is the pixel floor for hero-image candidates;
	// both rendered dimensions must reach it.
	MinImageDim int // default: 200
}

// AuthConfig controls API key authentication in serve mode.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting in serve mode.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10

	// EntryTTL is how long an idle identity keeps its limiter before
	// eviction.
	EntryTTL time.Duration // default: 1h

	// SweepInterval is how often idle limiters are evicted.
	SweepInterval time.Duration // default: 5m
}

// WebhookConfig controls optional batch-completion delivery.
type WebhookConfig struct {
	// URL receives a batch.completed event after each run. Empty disables.
	URL string

	// Secret signs the event body with HMAC-SHA256 when non-empty.
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// DefaultUserAgent is a modern desktop Chrome string, shared by both tiers
// so origins serve consistent markup.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("LINKPEEK_HOST", "0.0.0.0"),
			Port: envIntOr("LINKPEEK_PORT", 8080),
			Mode: envOr("LINKPEEK_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("LINKPEEK_HEADLESS", true),
			NoSandbox:  envBoolOr("LINKPEEK_NO_SANDBOX", false),
			BrowserBin: os.Getenv("LINKPEEK_BROWSER_BIN"),
			Proxy:      os.Getenv("LINKPEEK_PROXY"),
			Stealth:    envBoolOr("LINKPEEK_STEALTH", true),
		},
		Fetcher: FetcherConfig{
			UserAgent:      envOr("LINKPEEK_USER_AGENT", DefaultUserAgent),
			AcceptLanguage: envOr("LINKPEEK_ACCEPT_LANGUAGE", "en-US,en;q=0.9"),
			MaxBodyBytes:   int64(envIntOr("LINKPEEK_MAX_BODY_BYTES", 10<<20)),
		},
		Scraper: ScraperConfig{
			NavTimeout:   envDurationOr("LINKPEEK_NAV_TIMEOUT", 30*time.Second),
			SettleWindow: envDurationOr("LINKPEEK_SETTLE_WINDOW", 300*time.Millisecond),
			MinImageDim:  envIntOr("LINKPEEK_MIN_IMAGE_DIM", 200),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("LINKPEEK_AUTH_ENABLED", false),
			APIKeys: envSliceOr("LINKPEEK_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("LINKPEEK_RATE_RPS", 5.0),
			Burst:             envIntOr("LINKPEEK_RATE_BURST", 10),
			EntryTTL:          envDurationOr("LINKPEEK_RATE_ENTRY_TTL", time.Hour),
			SweepInterval:     envDurationOr("LINKPEEK_RATE_SWEEP_INTERVAL", 5*time.Minute),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("LINKPEEK_WEBHOOK_URL"),
			Secret: os.Getenv("LINKPEEK_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("LINKPEEK_LOG_LEVEL", "info"),
			Format: envOr("LINKPEEK_LOG_FORMAT", "text"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
