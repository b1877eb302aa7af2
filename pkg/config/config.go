// Package config loads runtime settings from the environment. A .env file in the
// working directory is read first when present.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL      string
	APIToken        string
	APIEmail        string
	APIPassword     string
	APITimeout      time.Duration
	CachePath       string
	SyncConcurrency int
	LogLevel        string
	DiagAddr        string

	SchedulerEnabled bool
	SchedulerCron    string
}

func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the configuration without touching .env files.
func FromEnv() Config {
	return Config{
		APIBaseURL:       strings.TrimRight(getEnv("FIT_API_BASE_URL", "http://localhost:8000"), "/"),
		APIToken:         os.Getenv("FIT_API_TOKEN"),
		APIEmail:         os.Getenv("FIT_API_EMAIL"),
		APIPassword:      os.Getenv("FIT_API_PASSWORD"),
		APITimeout:       getEnvDuration("FIT_API_TIMEOUT", 15*time.Second),
		CachePath:        getEnv("FIT_CACHE_PATH", "data/fitness-cache.db"),
		SyncConcurrency:  getEnvInt("FIT_SYNC_CONCURRENCY", 4),
		LogLevel:         getEnv("LOG_LEVEL", "INFO"),
		DiagAddr:         getEnv("FIT_DIAG_ADDR", "127.0.0.1:8081"),
		SchedulerEnabled: getEnvBool("FIT_SCHEDULER_ENABLED"),
		SchedulerCron:    getEnv("FIT_SCHEDULER_CRON", "*/15 * * * *"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(value); err == nil && intVal > 0 {
			return intVal
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func getEnvBool(key string) bool {
	v := os.Getenv(key)
	return v == "true" || v == "1"
}
