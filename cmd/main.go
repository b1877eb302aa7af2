package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timoknapp/fitness-tournament-tracker/pkg/cache"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/config"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/gateway"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/logger"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/metrics"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/scheduler"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/session"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/store"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/syncer"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/util"
)

func main() {
	cfg := config.Load()
	logger.SetLogLevelFromString(cfg.LogLevel)
	logger.Info("Starting Fitness Tournament Tracker sync daemon...")

	metrics.Init()

	kv, err := cache.Open(cfg.CachePath)
	if err != nil {
		logger.Error("Failed to open cache at %s: %v", cfg.CachePath, err)
		os.Exit(1)
	}
	defer kv.Close()
	logger.Info("Cache opened at %s", cfg.CachePath)

	sessions := session.NewManager(kv, nil)
	if err := sessions.Load(); err != nil {
		logger.Warn("Could not load stored session: %v", err)
	}
	if cfg.APIToken != "" {
		if err := sessions.SetToken(cfg.APIToken, "bearer"); err != nil {
			logger.Warn("Could not store API token: %v", err)
		}
	}

	client, err := gateway.NewClient(cfg.APIBaseURL, cfg.APITimeout, sessions)
	if err != nil {
		logger.Error("Invalid backend configuration: %v", err)
		os.Exit(1)
	}

	authCtx, cancelAuth := context.WithTimeout(context.Background(), cfg.APITimeout)
	user, err := sessions.Authenticate(authCtx, client, cfg.APIEmail, cfg.APIPassword)
	cancelAuth()
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		logger.Warn("No valid API session, backend requests will be unauthenticated")
	case err != nil:
		logger.Warn("Could not verify API session: %v", err)
	default:
		logger.Info("Authenticated as %s", util.FirstNonEmpty(user.Email, user.Name, user.Id.String()))
	}

	st := store.New(client)
	persister := store.NewPersister(kv)
	if err := persister.Load(st); err != nil {
		logger.Error("Failed to restore cached tournaments: %v", err)
	}
	unbind := persister.Bind(st)
	defer unbind()
	logger.Info("Restored %d cached tournaments", len(st.TournamentIDs()))

	coord := syncer.New(st, client, kv, syncer.WithConcurrency(cfg.SyncConcurrency))
	defer coord.Close()
	if err := coord.Load(); err != nil {
		logger.Warn("Could not load sync catalogs: %v", err)
	}

	sched, err := scheduler.New(scheduler.FromConfig(cfg), coord)
	if err != nil {
		logger.Error("Invalid scheduler configuration: %v", err)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()
	metrics.SetReloadCallback(sched.Reload)

	srv := &http.Server{
		Addr:              cfg.DiagAddr,
		Handler:           newRouter(st, coord),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Starting diagnostics server on %s...", cfg.DiagAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to start: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
}
