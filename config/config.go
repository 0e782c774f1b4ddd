package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything the service reads from the environment. Values have
// development defaults so a bare `go run` works against local Postgres/Redis.
type Config struct {
	ListenAddr string

	PostgresUser     string
	PostgresPassword string
	PostgresHost     string
	PostgresPort     string
	PostgresDB       string
	PostgresSSLMode  string

	RedisAddr     string
	RedisPassword string

	GeoIPDBPath string

	JWTSecret string

	// Write path: size of the collector's background queue and the deadline
	// for a single store append.
	QueueSize     int
	AppendTimeout time.Duration

	// Read path: per-sub-metric deadline, and the cadence the server polls
	// the real-time snapshot at.
	SubMetricTimeout     time.Duration
	RealtimePollInterval time.Duration
}

func Load() *Config {
	return &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),

		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "postgres"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresDB:       getEnv("POSTGRES_DB", "directory"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		GeoIPDBPath: getEnv("GEOIP_DB_PATH", ""),

		JWTSecret: getEnv("JWT_SECRET", "dev_secret"),

		QueueSize:     getEnvInt("TRACK_QUEUE_SIZE", 1024),
		AppendTimeout: getEnvDuration("TRACK_APPEND_TIMEOUT", 5*time.Second),

		SubMetricTimeout:     getEnvDuration("SUBMETRIC_TIMEOUT", 10*time.Second),
		RealtimePollInterval: getEnvDuration("REALTIME_POLL_INTERVAL", 30*time.Second),
	}
}

// PostgresDSN assembles the lib/pq connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
		c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSLMode)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
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
