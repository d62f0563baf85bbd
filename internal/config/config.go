package config

import (
	"os"
	"strconv"
	"time"
)

// Default bidding parameters applied when the feed caller supplies none.
const (
	DefaultMaxBiddingPrice = 0.20
	DefaultBaselinePrice   = 0.10
	DefaultMaxCostPerHour  = 2.0
)

// Config holds application configuration derived from environment variables.
type Config struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ServiceName  string

	PostgresDSN    string
	RedisAddr      string
	RedisKeyPrefix string

	// Feed ingestion
	FeedURL            string
	FeedAPIKey         string
	FeedMaxConcurrency int
	MaxBiddingPrice    float64
	BaselinePriceCPM   float64
	MaxCostPerHour     float64

	// Registry tables; empty means built-in defaults
	BannerTemplatesPath string

	// Database connection pooling
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration
}

// Load parses environment variables and returns a Config populated with
// defaults when variables are absent.
func Load() Config {
	cfg := Config{}

	cfg.Port = getenv("PORT", "8080")
	cfg.ReadTimeout = envDuration("READ_TIMEOUT", 5*time.Second)
	cfg.WriteTimeout = envDuration("WRITE_TIMEOUT", 10*time.Second)
	cfg.ServiceName = getenv("SERVICE_NAME", "campaignd")

	cfg.PostgresDSN = getenv("POSTGRES_DSN", "postgres://postgres@127.0.0.1:5432/postgres?sslmode=disable")
	cfg.RedisAddr = getenv("REDIS_ADDR", "localhost:6379")
	cfg.RedisKeyPrefix = getenv("REDIS_KEY_PREFIX", "adx:")

	cfg.FeedURL = getenv("FEED_URL", "http://dashboard.minimob.com/api/myoffers")
	cfg.FeedAPIKey = getenv("FEED_API_KEY", "")
	// 0 preserves the historical unbounded fan-out
	cfg.FeedMaxConcurrency = envInt("FEED_MAX_CONCURRENCY", 0)
	cfg.MaxBiddingPrice = envFloat("MAX_BIDDING_PRICE", DefaultMaxBiddingPrice)
	cfg.BaselinePriceCPM = envFloat("BASELINE_PRICE", DefaultBaselinePrice)
	cfg.MaxCostPerHour = envFloat("MAX_COST_PER_HOUR", DefaultMaxCostPerHour)

	cfg.BannerTemplatesPath = getenv("BANNER_TEMPLATES_PATH", "")

	cfg.DBMaxOpenConns = envInt("DB_MAX_OPEN_CONNS", 25)
	cfg.DBMaxIdleConns = envInt("DB_MAX_IDLE_CONNS", 5)
	cfg.DBConnMaxLifetime = envDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	cfg.DBConnMaxIdleTime = envDuration("DB_CONN_MAX_IDLE_TIME", 1*time.Minute)

	return cfg
}

// getenv returns the value of the environment variable if set, otherwise def.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envDuration parses an environment variable into a time.Duration.
// The value can be a duration string (e.g. "5s") or a number of seconds.
// If the variable is unset or invalid, def is returned.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

// envInt parses an integer environment variable. When unset or invalid, def is returned.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return def
}

// envFloat parses a float64 environment variable. When unset or invalid, def is returned.
func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return def
}
