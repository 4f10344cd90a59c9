// Package config provides configuration management for the lock server.
package config

import (
	"os"
	"strconv"
)

const (
	// DefaultAdminMaxPayloadSize is the default max request body size for the admin API (100KB).
	DefaultAdminMaxPayloadSize int64 = 100 * 1024

	// DefaultExpireSeconds is the fallback value for
	// LOCK_DEFAULT_EXPIRE_SECONDS.
	DefaultExpireSeconds int = 60

	// DefaultSignalExpireMillis is the default signal list TTL.
	DefaultSignalExpireMillis int = 1000
)

// Config holds the lock server's configuration.
type Config struct {
	// Port is the admin HTTP server port.
	Port string

	// RedisAddr is the address of the backing Redis-compatible server.
	RedisAddr string

	// RedisDB selects the logical database on the Redis connection.
	RedisDB int

	// AdminMaxPayloadSize is the maximum request body size for admin endpoints, in bytes.
	AdminMaxPayloadSize int64

	// DefaultExpireSeconds is read from LOCK_DEFAULT_EXPIRE_SECONDS.
	// cmd/server does not pass it to the admin API, so an acquire request
	// without expireSeconds creates a lock with no TTL.
	DefaultExpireSeconds int

	// SignalExpireMillis is the default signal-list TTL used across handles.
	SignalExpireMillis int

	// LogLevel is the zerolog level name ("debug", "info", "warn", "error").
	LogLevel string
}

// Load loads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:                 getEnvOrDefault("PORT", "8080"),
		RedisAddr:            getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisDB:              getEnvIntOrDefault("REDIS_DB", 0),
		AdminMaxPayloadSize:  getEnvInt64OrDefault("ADMIN_MAX_PAYLOAD_SIZE", DefaultAdminMaxPayloadSize),
		DefaultExpireSeconds: getEnvIntOrDefault("LOCK_DEFAULT_EXPIRE_SECONDS", DefaultExpireSeconds),
		SignalExpireMillis:   getEnvIntOrDefault("LOCK_SIGNAL_EXPIRE_MILLIS", DefaultSignalExpireMillis),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt64OrDefault returns the environment variable value as int64 or the default if not set or invalid.
func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvIntOrDefault returns the environment variable value as int or the default if not set or invalid.
func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
