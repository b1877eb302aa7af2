package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("FIT_API_BASE_URL", "")
	t.Setenv("FIT_API_TIMEOUT", "")
	t.Setenv("FIT_SYNC_CONCURRENCY", "")
	t.Setenv("FIT_SCHEDULER_ENABLED", "")

	cfg := FromEnv()
	assert.Equal(t, "http://localhost:8000", cfg.APIBaseURL)
	assert.Equal(t, 15*time.Second, cfg.APITimeout)
	assert.Equal(t, 4, cfg.SyncConcurrency)
	assert.False(t, cfg.SchedulerEnabled)
	assert.Equal(t, "*/15 * * * *", cfg.SchedulerCron)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("FIT_API_BASE_URL", "https://api.example.com/")
	t.Setenv("FIT_API_TIMEOUT", "3s")
	t.Setenv("FIT_SYNC_CONCURRENCY", "not-a-number")
	t.Setenv("FIT_SCHEDULER_ENABLED", "1")
	t.Setenv("FIT_API_EMAIL", "organizer@example.com")
	t.Setenv("FIT_API_PASSWORD", "secret")

	cfg := FromEnv()
	assert.Equal(t, "https://api.example.com", cfg.APIBaseURL)
	assert.Equal(t, 3*time.Second, cfg.APITimeout)
	assert.Equal(t, 4, cfg.SyncConcurrency)
	assert.True(t, cfg.SchedulerEnabled)
	assert.Equal(t, "organizer@example.com", cfg.APIEmail)
	assert.Equal(t, "secret", cfg.APIPassword)
}
