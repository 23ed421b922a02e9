package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Cache      CacheConfig
	MarketData MarketDataConfig
	Backtest   BacktestConfig
	Scheduler  SchedulerConfig
	Logging    LoggingConfig
	CORS       CORSConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration.
// Driver is either "sqlite" (modernc.org/sqlite) or "pgx" (PostgreSQL).
type DatabaseConfig struct {
	Driver string
	DSN    string
}

// CacheConfig selects and configures the price cache backend.
// Backend is "sql" (cache_entry table in the main database) or "redis".
type CacheConfig struct {
	Backend  string
	RedisURL string
	TTL      time.Duration
}

// MarketDataConfig holds settings for the external market data gateway.
type MarketDataConfig struct {
	FetchTimeout time.Duration // per external call
	MaxRetries   uint64
}

// BacktestConfig holds backtest engine settings.
type BacktestConfig struct {
	RequestTimeout time.Duration // whole run, including all fetches
}

// SchedulerConfig holds cron expressions for background jobs.
// An empty expression disables the job.
type SchedulerConfig struct {
	SnapshotSchedule   string
	CachePurgeSchedule string
}

// LoggingConfig holds logrus settings
type LoggingConfig struct {
	Level  string
	Format string // "text" or "json"
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cacheTTL, err := getEnvDuration("CACHE_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := getEnvDuration("MARKETDATA_FETCH_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	requestTimeout, err := getEnvDuration("BACKTEST_REQUEST_TIMEOUT", 2*time.Minute)
	if err != nil {
		return nil, err
	}
	maxRetries, err := strconv.ParseUint(getEnv("MARKETDATA_MAX_RETRIES", "2"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid MARKETDATA_MAX_RETRIES: %w", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", "sqlite"),
			DSN:    getEnv("DB_DSN", getEnv("DB_PATH", "./data/portfolio_analytics.db")),
		},
		Cache: CacheConfig{
			Backend:  getEnv("CACHE_BACKEND", "sql"),
			RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
			TTL:      cacheTTL,
		},
		MarketData: MarketDataConfig{
			FetchTimeout: fetchTimeout,
			MaxRetries:   maxRetries,
		},
		Backtest: BacktestConfig{
			RequestTimeout: requestTimeout,
		},
		Scheduler: SchedulerConfig{
			SnapshotSchedule:   getEnvAllowEmpty("SNAPSHOT_SCHEDULE", "0 22 * * 1-5"),
			CachePurgeSchedule: getEnvAllowEmpty("CACHE_PURGE_SCHEDULE", "@hourly"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost")),
		},
	}

	switch config.Database.Driver {
	case "sqlite", "pgx":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (expected sqlite or pgx)", config.Database.Driver)
	}

	switch config.Cache.Backend {
	case "sql", "redis":
	default:
		return nil, fmt.Errorf("unsupported CACHE_BACKEND %q (expected sql or redis)", config.Cache.Backend)
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAllowEmpty is like getEnv but keeps an explicitly empty value.
func getEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
