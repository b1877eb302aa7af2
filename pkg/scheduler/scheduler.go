package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/config"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/logger"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/util"
)

// Refresher is the background job: a full resync of every cached tournament.
type Refresher interface {
	RefreshAll(ctx context.Context) error
}

type Config struct {
	Enabled  bool
	CronSpec string        // e.g. "*/15 * * * *" (server local time)
	Timeout  time.Duration // upper bound for one run
}

type Scheduler struct {
	mu      sync.Mutex
	c       *cron.Cron
	config  Config
	job     Refresher
	running bool
	log     *logger.Logger
}

const defaultTimeout = 10 * time.Minute

func FromEnv() Config {
	return FromConfig(config.FromEnv())
}

func FromConfig(cfg config.Config) Config {
	return Config{
		Enabled:  cfg.SchedulerEnabled,
		CronSpec: util.FirstNonEmpty(cfg.SchedulerCron, "*/15 * * * *"),
		Timeout:  defaultTimeout,
	}
}

func New(cfg Config, job Refresher) (*Scheduler, error) {
	s := &Scheduler{job: job, log: logger.Named("scheduler")}
	c, err := s.build(cfg)
	if err != nil {
		return nil, err
	}
	s.c = c
	s.config = cfg
	return s, nil
}

// build returns a standard 5-field cron that skips a tick while the previous
// run is still going.
func (s *Scheduler) build(cfg Config) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(cfg.CronSpec, func() { s.run(cfg.Timeout) }); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Scheduler) run(timeout time.Duration) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	_ = s.RunNow(ctx)
}

// RunNow performs one refresh synchronously.
func (s *Scheduler) RunNow(ctx context.Context) error {
	s.log.Info("Scheduler tick: refreshing cached tournaments")
	start := time.Now()
	if err := s.job.RefreshAll(ctx); err != nil {
		s.log.Error("Scheduled refresh finished with errors after %s: %v", time.Since(start).Round(time.Millisecond), err)
		return err
	}
	s.log.Info("Scheduled refresh done in %s", time.Since(start).Round(time.Millisecond))
	return nil
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.config.Enabled || s.running {
		return
	}
	s.log.Info("Starting scheduler (cron=%s)", s.config.CronSpec)
	s.c.Start()
	s.running = true
}

// Stop halts the cron and waits for a running refresh to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c, running := s.c, s.running
	s.running = false
	s.mu.Unlock()
	if running {
		<-c.Stop().Done()
	}
}

// Reload rereads the scheduler configuration from the environment and
// restarts the cron if it changed.
func (s *Scheduler) Reload() error {
	return s.Apply(FromEnv())
}

func (s *Scheduler) Apply(newConfig Config) error {
	s.mu.Lock()
	if s.config == newConfig {
		s.mu.Unlock()
		s.log.Info("Scheduler configuration unchanged, no restart needed")
		return nil
	}
	c, err := s.build(newConfig)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	old, wasRunning := s.c, s.running
	s.c = c
	s.config = newConfig
	s.running = false
	s.mu.Unlock()

	if wasRunning {
		old.Stop()
		s.log.Info("Stopped scheduler for configuration reload")
	}
	if newConfig.Enabled {
		s.Start()
		s.log.Info("Scheduler restarted with new configuration (cron=%s)", newConfig.CronSpec)
	} else {
		s.log.Info("Scheduler disabled via configuration reload")
	}
	return nil
}

// GetConfig returns the current scheduler configuration
func (s *Scheduler) GetConfig() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
