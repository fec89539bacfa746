package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures process-level configuration. Optional backends are modeled
// as empty URLs; wiring code checks presence explicitly instead of scattering
// nil handles through services.
type Config struct {
	Addr     string
	LogLevel string

	// DatabaseURL is the PostgreSQL DSN. Empty means run without durable
	// storage: readings live only in the in-memory buffer.
	DatabaseURL string

	// RedisURL backs rate limiting on the public ingest endpoint. Empty means
	// the in-memory limiter is used.
	RedisURL string

	// MLServiceURL points at the external analytics service. Empty disables
	// the /api/ml endpoints.
	MLServiceURL string

	JWTSigningKey     string
	DeviceTokenSecret string

	// Demo credentials for /auth/login until a real user store exists.
	AuthUsername string
	AuthPassword string

	// CacheCapacity bounds the in-memory recent-readings buffer.
	CacheCapacity int

	// IngestRateLimit is the per-IP request budget for the public ingest
	// endpoint within IngestRateWindow.
	IngestRateLimit  int
	IngestRateWindow time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:              envOr("SOUNDSENSE_ADDR", ":8080"),
		LogLevel:          envOr("LOG_LEVEL", "info"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		MLServiceURL:      os.Getenv("ML_SERVICE_URL"),
		JWTSigningKey:     envOr("JWT_SECRET", "default_secret_change_in_production"),
		DeviceTokenSecret: envOr("DEVICE_TOKEN_SECRET", "change_this_secret"),
		AuthUsername:      envOr("AUTH_USERNAME", "admin"),
		AuthPassword:      envOr("AUTH_PASSWORD", "admin123"),
		CacheCapacity:     envInt("CACHE_CAPACITY", 500),
		IngestRateLimit:   envInt("INGEST_RATE_LIMIT", 120),
		IngestRateWindow:  time.Minute,
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
