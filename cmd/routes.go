package main

import (
	"context"
	"encoding/json"
	"expvar"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/logger"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/metrics"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/models"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/syncer"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/views"
)

// syncService is the part of the sync coordinator the diagnostics routes drive.
type syncService interface {
	EnsureEventDetails(ctx context.Context, tournamentID, eventID string) error
	RefreshEventDetails(ctx context.Context, tournamentID, eventID string) error
	RefreshAll(ctx context.Context) error
	Statuses() map[string]syncer.Status
}

// tournamentReader is the read side of the entity cache.
type tournamentReader interface {
	ListTournaments() []models.Tournament
	GetTournament(id string) (models.Tournament, bool)
}

type server struct {
	store tournamentReader
	sync  syncService
	log   *logger.Logger
}

func newRouter(st tournamentReader, sync syncService) http.Handler {
	s := &server{store: st, sync: sync, log: logger.Named("diag")}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(metrics.Instrument)

	r.Get(metrics.StatsPath, metrics.StatsHandler)
	r.Handle(metrics.DebugVarsPath, expvar.Handler())
	r.HandleFunc(metrics.EnvPath, metrics.EnvHandler)

	r.Get("/sync/status", s.syncStatus)
	r.Post("/sync", s.refreshAll)

	r.Route("/tournaments", func(r chi.Router) {
		r.Get("/", s.listTournaments)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getTournament)
			r.Get("/divisions", s.divisions)
			r.Get("/events/{eventID}/leaderboard", s.leaderboard)
		})
	})
	return r
}

func (s *server) syncStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sync.Statuses())
}

func (s *server) refreshAll(w http.ResponseWriter, r *http.Request) {
	if err := s.sync.RefreshAll(r.Context()); err != nil {
		s.log.Error("Manual refresh failed: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) listTournaments(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.ListTournaments())
}

func (s *server) getTournament(w http.ResponseWriter, r *http.Request) {
	t, ok := s.store.GetTournament(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "tournament not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *server) divisions(w http.ResponseWriter, r *http.Request) {
	t, ok := s.store.GetTournament(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "tournament not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, views.ParticipantsByDivision(t.Participants))
}

// leaderboard syncs the event on first visit, or always with ?refresh=true. A
// failed sync still serves whatever the cache holds.
func (s *server) leaderboard(w http.ResponseWriter, r *http.Request) {
	tid, eid := chi.URLParam(r, "id"), chi.URLParam(r, "eventID")
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))

	var err error
	if refresh {
		err = s.sync.RefreshEventDetails(r.Context(), tid, eid)
	} else {
		err = s.sync.EnsureEventDetails(r.Context(), tid, eid)
	}
	if err != nil {
		s.log.Warn("Serving cached leaderboard for %s/%s: %v", tid, eid, err)
	}

	t, ok := s.store.GetTournament(tid)
	if !ok {
		http.Error(w, "tournament not found", http.StatusNotFound)
		return
	}
	board, ok := views.Leaderboard(t, eid)
	if !ok {
		http.Error(w, "event not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
