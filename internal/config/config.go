package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// Config aggregates application-wide configuration values.
type Config struct {
	DatabaseURL        string
	DBMaxConns         int32
	DBMinConns         int32
	Port               string
	SettingsPath       string
	BaseURL            string
	AgentAPIURL        string
	AgentTimeout       time.Duration
	RateLimitEnrich    RateLimitConfig
	DefaultPhoneRegion string
	LogLevel           slog.Level
	LogFormat          string
}

// Load reads configuration from environment variables and applies sane defaults.
func Load() (*Config, error) {
	var err error
	cfg := &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		Port:               getEnv("PORT", "8000"),
		SettingsPath:       getEnv("SETTINGS_PATH", "settings.yaml"),
		BaseURL:            getEnv("BASE_URL", "http://localhost:8000"),
		AgentAPIURL:        getEnv("AGENT_API_URL", "https://api.anyquest.ai"),
		DefaultPhoneRegion: strings.ToUpper(getEnv("DEFAULT_PHONE_REGION", "US")),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	if cfg.DBMaxConns, err = parseConns("DB_MAX_CONNS"); err != nil {
		return nil, err
	}
	if cfg.DBMinConns, err = parseConns("DB_MIN_CONNS"); err != nil {
		return nil, err
	}

	timeout, err := time.ParseDuration(getEnv("AGENT_TIMEOUT", "30s"))
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("invalid AGENT_TIMEOUT value: %q", os.Getenv("AGENT_TIMEOUT"))
	}
	cfg.AgentTimeout = timeout

	rl, err := parseRateLimit(getEnv("RATE_LIMIT_ENRICH", "10/min"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_ENRICH value: %w", err)
	}
	cfg.RateLimitEnrich = rl

	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL value: %w", err)
	}
	cfg.LogLevel = level

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid LOG_FORMAT value: %q", cfg.LogFormat)
	}

	return cfg, nil
}

// Validate checks the values required to serve traffic.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	return nil
}

func parseConns(key string) (int32, error) {
	raw := getEnv(key, "0")
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 32)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s value: %q", key, raw)
	}
	return int32(n), nil
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}

func parseLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}
