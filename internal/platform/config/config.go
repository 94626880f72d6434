// Package config builds runtime configuration from environment variables so
// main stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	AdminToken      string
	JWTSigningKey   string
	ShutdownTimeout time.Duration
}

// Database captures Postgres configuration. An empty DSN means the service
// runs on in-memory stores (development and tests).
type Database struct {
	DSN string
}

// Redis captures cache configuration. An empty URL disables the cache.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// Kafka captures the audit event sink configuration. Empty brokers disable
// the sink.
type Kafka struct {
	Brokers    []string
	AuditTopic string
}

// Config is the full runtime configuration.
type Config struct {
	Server   Server
	Database Database
	Redis    Redis
	Kafka    Kafka
}

// FromEnv builds a Config from environment variables with development
// defaults.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            envOr("MARINA_ADDR", ":8080"),
			AdminToken:      envOr("MARINA_ADMIN_TOKEN", "dev-admin-token-change-in-production"),
			JWTSigningKey:   envOr("MARINA_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			ShutdownTimeout: envDurationOr("MARINA_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: Database{
			DSN: os.Getenv("MARINA_POSTGRES_DSN"),
		},
		Redis: Redis{
			URL:          os.Getenv("MARINA_REDIS_URL"),
			PoolSize:     envIntOr("MARINA_REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("MARINA_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDurationOr("MARINA_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("MARINA_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("MARINA_REDIS_WRITE_TIMEOUT", 3*time.Second),
			CacheTTL:     envDurationOr("MARINA_REDIS_CACHE_TTL", 5*time.Minute),
		},
		Kafka: Kafka{
			Brokers:    envList("MARINA_KAFKA_BROKERS"),
			AuditTopic: envOr("MARINA_KAFKA_AUDIT_TOPIC", "marina.audit.events"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
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

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
