package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends accepted by STORE_BACKEND.
const (
	BackendSQLite   = "sqlite"
	BackendSupabase = "supabase"
	BackendMemory   = "memory"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port        int
	LogLevel    string
	CORSOrigins []string

	// Storage
	StoreBackend string
	SQLitePath   string

	// Supabase
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	CacheTTL time.Duration

	// Automation
	AutomationDelay    time.Duration
	AutomationInterval time.Duration
	Timezone           string

	// Agency seed file (YAML). Only used when no config has been saved yet.
	AgencyConfigPath string

	// Notifications
	TelegramBotToken string
	TelegramChatID   int64

	// Observability
	OTLPEndpoint string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:        getEnvInt("PORT", 8080),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),

		StoreBackend: getEnv("STORE_BACKEND", BackendSQLite),
		SQLitePath:   getEnv("SQLITE_PATH", "data/agency.db"),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 8),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),

		AutomationDelay:    getEnvDuration("AUTOMATION_DELAY", time.Second),
		AutomationInterval: getEnvDuration("AUTOMATION_INTERVAL", 24*time.Hour),
		Timezone:           getEnv("TIMEZONE", "America/Sao_Paulo"),

		AgencyConfigPath: getEnv("AGENCY_CONFIG_PATH", "agency.yaml"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnvInt64("TELEGRAM_CHAT_ID", 0),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC, err
	}
	return loc, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvList splits a comma-separated variable, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
