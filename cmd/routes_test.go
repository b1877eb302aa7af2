package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/models"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/syncer"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/views"
)

type stubSync struct {
	ensured, refreshed, all int
	err                     error
}

func (s *stubSync) EnsureEventDetails(context.Context, string, string) error {
	s.ensured++
	return s.err
}

func (s *stubSync) RefreshEventDetails(context.Context, string, string) error {
	s.refreshed++
	return s.err
}

func (s *stubSync) RefreshAll(context.Context) error {
	s.all++
	return s.err
}

func (s *stubSync) Statuses() map[string]syncer.Status {
	return map[string]syncer.Status{syncer.EventsKey("t1"): {State: syncer.Loaded}}
}

type stubStore struct{ t models.Tournament }

func (s stubStore) ListTournaments() []models.Tournament { return []models.Tournament{s.t} }

func (s stubStore) GetTournament(id string) (models.Tournament, bool) {
	return s.t, id == s.t.Id
}

func fixture() stubStore {
	reps := 9
	return stubStore{t: models.Tournament{
		Id:   "t1",
		Name: "Spring Cup",
		Participants: []models.Participant{
			{Id: "p1", Name: "Alice", Division: "Open"},
		},
		Events: []models.Event{{
			Id:              "e1",
			Name:            "Pull-up Max",
			ParticipantIds:  []string{"p1"},
			ParticipantData: map[string]models.EventParticipantData{"p1": {Reps: &reps}},
		}},
	}}
}

func get(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestLeaderboardRoute(t *testing.T) {
	sync := &stubSync{}
	h := newRouter(fixture(), sync)

	rec := get(t, h, http.MethodGet, "/tournaments/t1/events/e1/leaderboard")
	require.Equal(t, http.StatusOK, rec.Code)
	var board []views.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &board))
	require.Len(t, board, 1)
	assert.Equal(t, "Alice", board[0].Name)
	assert.Equal(t, views.MetricReps, board[0].PrimaryMetric)
	assert.Equal(t, 1, sync.ensured)

	get(t, h, http.MethodGet, "/tournaments/t1/events/e1/leaderboard?refresh=true")
	assert.Equal(t, 1, sync.refreshed)

	assert.Equal(t, http.StatusNotFound, get(t, h, http.MethodGet, "/tournaments/t1/events/nope/leaderboard").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, http.MethodGet, "/tournaments/zz/events/e1/leaderboard").Code)
}

func TestLeaderboardServesCacheOnSyncFailure(t *testing.T) {
	h := newRouter(fixture(), &stubSync{err: errors.New("offline")})
	assert.Equal(t, http.StatusOK, get(t, h, http.MethodGet, "/tournaments/t1/events/e1/leaderboard").Code)
}

func TestSyncRoutes(t *testing.T) {
	sync := &stubSync{}
	h := newRouter(fixture(), sync)

	rec := get(t, h, http.MethodGet, "/sync/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"events/t1"`)

	assert.Equal(t, http.StatusOK, get(t, h, http.MethodPost, "/sync").Code)
	assert.Equal(t, 1, sync.all)

	sync.err = errors.New("offline")
	assert.Equal(t, http.StatusBadGateway, get(t, h, http.MethodPost, "/sync").Code)
}

func TestTournamentRoutes(t *testing.T) {
	h := newRouter(fixture(), &stubSync{})

	assert.Equal(t, http.StatusOK, get(t, h, http.MethodGet, "/tournaments").Code)
	assert.Equal(t, http.StatusOK, get(t, h, http.MethodGet, "/tournaments/t1").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, http.MethodGet, "/tournaments/zz").Code)

	rec := get(t, h, http.MethodGet, "/tournaments/t1/divisions")
	require.Equal(t, http.StatusOK, rec.Code)
	var groups []views.DivisionGroup
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &groups))
	require.Len(t, groups, 1)
	assert.Equal(t, "Open", groups[0].Division)
}
