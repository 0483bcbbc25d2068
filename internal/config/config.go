package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv string
	Port   int

	// Chat platform (message create/patch)
	ChatAPIBaseURL string
	ChatAPIToken   string

	// Processing engine webhook
	EngineWebhookURL string
	// Externally reachable base URL, used to build the callback URL handed to
	// the engine. Required whenever an engine URL is configured.
	PublicBaseURL  string
	RequestTimeout time.Duration
	MaxRetries     int
	RetryDelay     time.Duration

	// Conversation texts
	PlaceholderText string
	FallbackText    string

	// Inbound bearer verification (optional; disabled when secret is empty)
	VerifySecret   string
	VerifyIssuer   string
	VerifyAudience string

	// Rate limit
	RLEnabled bool
	RLLimit   int
	RLWindow  time.Duration

	// Redis-backed pending store + stale placeholder sweep (optional;
	// disabled when REDIS_ADDR is empty)
	RedisAddr     string
	RedisPass     string
	RedisDB       int
	SweepAfter    time.Duration
	SweepInterval time.Duration

	// Logging
	LogLevel string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.AppEnv = getEnv("APP_ENV", "dev")
	cfg.Port = getInt("PORT", 8080)

	// --- Chat platform
	cfg.ChatAPIBaseURL = getEnv("CHAT_API_BASE_URL", "https://chat.googleapis.com")
	cfg.ChatAPIToken = getEnv("CHAT_API_TOKEN", "")

	// --- Engine
	cfg.EngineWebhookURL = getEnv("ENGINE_WEBHOOK_URL", "")
	cfg.PublicBaseURL = strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/")
	cfg.RequestTimeout = getDuration("REQUEST_TIMEOUT", 10*time.Second)
	cfg.MaxRetries = getInt("DISPATCH_MAX_RETRIES", 3)
	cfg.RetryDelay = getDuration("DISPATCH_RETRY_DELAY", 2*time.Second)

	// --- Texts
	cfg.PlaceholderText = getEnv("PLACEHOLDER_TEXT", "Working on it...")
	cfg.FallbackText = getEnv("FALLBACK_TEXT", "Sorry, something went wrong while processing your request.")

	// --- Inbound verification
	cfg.VerifySecret = getEnv("VERIFY_SECRET", "")
	cfg.VerifyIssuer = getEnv("VERIFY_ISSUER", "")
	cfg.VerifyAudience = getEnv("VERIFY_AUDIENCE", "")

	// --- Rate limit
	cfg.RLEnabled = getBool("RL_ENABLED", true)
	cfg.RLLimit = getInt("RL_REQUESTS_LIMIT", 100)
	cfg.RLWindow = time.Duration(getInt("RL_WINDOW_SECONDS", 60)) * time.Second

	// --- Redis / sweep
	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.RedisPass = getEnv("REDIS_PASSWORD", "")
	cfg.RedisDB = getInt("REDIS_DB", 0)
	cfg.SweepAfter = getDuration("SWEEP_AFTER", 10*time.Minute)
	cfg.SweepInterval = getDuration("SWEEP_INTERVAL", time.Minute)

	// --- Logging
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	// --- Validation (fail fast)
	if cfg.EngineWebhookURL != "" && cfg.PublicBaseURL == "" {
		return nil, fmt.Errorf("missing PUBLIC_BASE_URL (required when ENGINE_WEBHOOK_URL is set: the engine needs a reachable callback URL)")
	}
	if cfg.MaxRetries < 1 {
		return nil, fmt.Errorf("DISPATCH_MAX_RETRIES must be >= 1, got %d", cfg.MaxRetries)
	}
	if cfg.AppEnv != "dev" && cfg.ChatAPIToken == "" {
		return nil, fmt.Errorf("missing CHAT_API_TOKEN (required when APP_ENV != dev)")
	}

	return cfg, nil
}

// CallbackURL builds the callback target handed to the engine inside the
// callback descriptor.
func (c *Config) CallbackURL() string {
	if c.PublicBaseURL == "" {
		return ""
	}
	return c.PublicBaseURL + "/callback"
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getBool(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		// prefer failing fast over silent misconfig
		panic(fmt.Errorf("invalid boolean env %s=%q", k, v))
	}
}

func getDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
