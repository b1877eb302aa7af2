package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (r *countingRefresher) RefreshAll(context.Context) error {
	r.calls.Add(1)
	return r.err
}

func TestNewRejectsBadSpec(t *testing.T) {
	_, err := New(Config{Enabled: true, CronSpec: "every now and then"}, &countingRefresher{})
	assert.Error(t, err)
}

func TestRunNow(t *testing.T) {
	r := &countingRefresher{}
	s, err := New(Config{CronSpec: "0 2 * * *"}, r)
	require.NoError(t, err)

	require.NoError(t, s.RunNow(context.Background()))
	assert.EqualValues(t, 1, r.calls.Load())

	r.err = errors.New("backend down")
	assert.ErrorIs(t, s.RunNow(context.Background()), r.err)
}

func TestStartDisabledIsNoop(t *testing.T) {
	s, err := New(Config{Enabled: false, CronSpec: "0 2 * * *"}, &countingRefresher{})
	require.NoError(t, err)
	s.Start()
	assert.False(t, s.Running())
	s.Stop()
}

func TestApply(t *testing.T) {
	cfg := Config{Enabled: true, CronSpec: "0 2 * * *", Timeout: time.Minute}
	s, err := New(cfg, &countingRefresher{})
	require.NoError(t, err)
	s.Start()
	defer s.Stop()
	require.True(t, s.Running())

	require.NoError(t, s.Apply(cfg))
	assert.True(t, s.Running())

	next := Config{Enabled: true, CronSpec: "*/5 * * * *", Timeout: time.Minute}
	require.NoError(t, s.Apply(next))
	assert.Equal(t, next, s.GetConfig())
	assert.True(t, s.Running())

	assert.Error(t, s.Apply(Config{Enabled: true, CronSpec: "bogus"}))
	assert.Equal(t, next, s.GetConfig(), "a bad spec keeps the old schedule")

	require.NoError(t, s.Apply(Config{Enabled: false, CronSpec: "*/5 * * * *", Timeout: time.Minute}))
	assert.False(t, s.Running())
}

func TestFromEnv(t *testing.T) {
	t.Setenv("FIT_SCHEDULER_ENABLED", "true")
	t.Setenv("FIT_SCHEDULER_CRON", "")

	cfg := FromEnv()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "*/15 * * * *", cfg.CronSpec)
	assert.Equal(t, defaultTimeout, cfg.Timeout)
}
