// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/notifier and cmd/outagectl.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/powerwatch/outage-notifier/internal/schedule"
)

// --------------------------------------------------------------------------
// Backends
// --------------------------------------------------------------------------

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// --------------------------------------------------------------------------
// Config struct populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Messaging
	BotToken        string
	TelegramAPIBase string
	SendInterval    time.Duration

	// Schedule source
	PowerAPIBase        string
	MainAPIBase         string
	SourceTimeout       time.Duration
	SourceRatePerMinute int
	ScheduleLocale      string
	Timezone            string
	Location            *time.Location

	// Polling
	CheckInterval time.Duration
	DigestMorning string // HH:MM; "off" in the environment disables
	DigestEvening string

	// Profiles
	FirebaseDatabaseURL string
	ProfileTimeout      time.Duration

	// Database
	StoreBackend   string
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration
	AutoMigrate    bool

	// Cache
	CacheBackend  string
	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	// API server
	APIHost          string
	APIPort          int
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Maintenance
	RetentionDays   int
	CleanupInterval time.Duration

	// Logging
	LogLevel  string
	LogFormat string
	LogSilent bool
}

// Load reads configuration from environment variables with sensible defaults.
// BOT_TOKEN is not checked here; commands that talk to the messaging API
// call RequireBotToken.
func Load() (*Config, error) {
	cfg := &Config{
		BotToken:        envOr("BOT_TOKEN", ""),
		TelegramAPIBase: envOr("TELEGRAM_API_BASE", "https://api.telegram.org"),
		SendInterval:    time.Duration(envInt("SEND_INTERVAL", 100)) * time.Millisecond,

		PowerAPIBase:        strings.TrimRight(envOr("LOE_API_BASE", "https://power-api.loe.lviv.ua/api"), "/"),
		MainAPIBase:         strings.TrimRight(envOr("LOE_MAIN_API_BASE", "https://api.loe.lviv.ua/api"), "/"),
		SourceTimeout:       envDuration("SOURCE_TIMEOUT", 30*time.Second),
		SourceRatePerMinute: envInt("SOURCE_RATE_PER_MINUTE", 30),
		ScheduleLocale:      envOr("SCHEDULE_LOCALE", "uk"),
		Timezone:            envOr("TIMEZONE", "Europe/Kyiv"),

		CheckInterval: time.Duration(envInt("CHECK_INTERVAL", 5)) * time.Minute,
		DigestMorning: envTrigger("DIGEST_MORNING", "07:00"),
		DigestEvening: envTrigger("DIGEST_EVENING", "20:00"),

		FirebaseDatabaseURL: strings.TrimRight(envOr("FIREBASE_DATABASE_URL", ""), "/"),
		ProfileTimeout:      envDuration("PROFILE_TIMEOUT", 10*time.Second),

		StoreBackend:   strings.ToLower(envOr("STORE_BACKEND", StorePostgres)),
		DatabaseURL:    envOr("DATABASE_URL", ""),
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 1),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 5),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,
		AutoMigrate:    envBool("AUTO_MIGRATE", true),

		CacheBackend:  strings.ToLower(envOr("CACHE_BACKEND", CacheMemory)),
		RedisAddr:     envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword: envOr("REDIS_PASSWORD", ""),
		CacheTTL:      time.Duration(envInt("CACHE_TTL_SECONDS", 60)) * time.Second,

		APIHost:          envOr("API_HOST", "0.0.0.0"),
		APIPort:          envInt("API_PORT", envInt("PORT", 8080)),
		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{"*"}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		RetentionDays:   envInt("RETENTION_DAYS", 14),
		CleanupInterval: time.Duration(envInt("CLEANUP_INTERVAL_MINUTES", 360)) * time.Minute,

		LogLevel:  envOr("LOG_LEVEL", "info"),
		LogFormat: envOr("LOG_FORMAT", "text"),
		LogSilent: envBool("LOG_SILENT", false),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set when STORE_BACKEND=%s", StorePostgres)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.CacheBackend {
	case CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.CacheBackend)
	}

	if c.CheckInterval <= 0 {
		return fmt.Errorf("CHECK_INTERVAL must be positive")
	}
	for key, v := range map[string]string{"DIGEST_MORNING": c.DigestMorning, "DIGEST_EVENING": c.DigestEvening} {
		if v == "" {
			continue
		}
		if _, err := schedule.ParseTimeOfDay(v); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	if _, err := schedule.VocabularyFor(c.ScheduleLocale); err != nil {
		return err
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}
	c.Location = loc
	return nil
}

// RequireBotToken fails when BOT_TOKEN is unset.
func (c *Config) RequireBotToken() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN must be set")
	}
	return nil
}

// ListenAddr is the API server's host:port.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.APIHost, c.APIPort)
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

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

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

// envDuration accepts Go durations ("45s") or bare seconds ("45").
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func envTrigger(key, fallback string) string {
	v := envOr(key, fallback)
	if strings.EqualFold(v, "off") {
		return ""
	}
	return v
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
