package views

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/models"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/store"
)

func ptr[T any](v T) *T { return &v }

func event(ids []string, data map[string]models.EventParticipantData) models.Event {
	return models.Event{Id: "e1", ParticipantIds: ids, ParticipantData: data}
}

func TestRankEvent(t *testing.T) {
	tests := []struct {
		name    string
		ids     []string
		data    map[string]models.EventParticipantData
		order   []string
		metrics []Metric
		scores  []float64
	}{
		{
			name:    "more reps rank first",
			ids:     []string{"B", "A"},
			data:    map[string]models.EventParticipantData{"A": {Reps: ptr(10)}, "B": {Reps: ptr(5)}},
			order:   []string{"A", "B"},
			metrics: []Metric{MetricReps, MetricReps},
			scores:  []float64{10, 5},
		},
		{
			name:    "faster time ranks first",
			ids:     []string{"A", "B"},
			data:    map[string]models.EventParticipantData{"A": {Time: ptr("01:30")}, "B": {Time: ptr("01:10")}},
			order:   []string{"B", "A"},
			metrics: []Metric{MetricTime, MetricTime},
			scores:  []float64{-70, -90},
		},
		{
			name:    "hours are understood",
			ids:     []string{"A", "B"},
			data:    map[string]models.EventParticipantData{"A": {Time: ptr("01:00:00")}, "B": {Time: ptr("59:00")}},
			order:   []string{"B", "A"},
			metrics: []Metric{MetricTime, MetricTime},
			scores:  []float64{-3540, -3600},
		},
		{
			name: "reps outrank any other metric",
			ids:  []string{"W", "R"},
			data: map[string]models.EventParticipantData{
				"W": {Weight: ptr(200.0)},
				"R": {Reps: ptr(201)},
			},
			order:   []string{"R", "W"},
			metrics: []Metric{MetricReps, MetricWeight},
			scores:  []float64{201, 200},
		},
		{
			name: "ties keep registration order",
			ids:  []string{"C", "A", "B"},
			data: map[string]models.EventParticipantData{
				"A": {Weight: ptr(80.0)},
				"B": {Weight: ptr(80.0)},
				"C": {Weight: ptr(80.0)},
			},
			order:   []string{"C", "A", "B"},
			metrics: []Metric{MetricWeight, MetricWeight, MetricWeight},
			scores:  []float64{80, 80, 80},
		},
		{
			name: "no metric scores zero and bad time ranks last",
			ids:  []string{"N", "X", "T"},
			data: map[string]models.EventParticipantData{
				"N": {},
				"X": {Time: ptr("soon")},
				"T": {Time: ptr("00:05")},
			},
			order:   []string{"N", "T", "X"},
			metrics: []Metric{MetricNone, MetricTime, MetricTime},
			scores:  []float64{0, -5, -math.MaxFloat64},
		},
		{
			name: "out of range time never outranks a real one",
			ids:  []string{"slow", "fast", "nan"},
			data: map[string]models.EventParticipantData{
				"slow": {Time: ptr("200000000:00")},
				"fast": {Time: ptr("00:10")},
				"nan":  {Time: ptr("00:NaN")},
			},
			order:   []string{"fast", "slow", "nan"},
			metrics: []Metric{MetricTime, MetricTime, MetricTime},
			scores:  []float64{-10, -math.MaxFloat64, -math.MaxFloat64},
		},
		{
			name:    "registered without result is skipped",
			ids:     []string{"A", "B"},
			data:    map[string]models.EventParticipantData{"B": {Reps: ptr(1)}},
			order:   []string{"B"},
			metrics: []Metric{MetricReps},
			scores:  []float64{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RankEvent(event(tt.ids, tt.data), nil)
			require.Len(t, got, len(tt.order))
			for i, e := range got {
				assert.Equal(t, tt.order[i], e.ParticipantId)
				assert.Equal(t, i+1, e.Rank)
				assert.Equal(t, tt.metrics[i], e.PrimaryMetric)
				assert.InDelta(t, tt.scores[i], e.Score, 1e-9)
			}
		})
	}
}

func TestLeaderboardWithBadTimeEncodes(t *testing.T) {
	board := RankEvent(event([]string{"X"}, map[string]models.EventParticipantData{"X": {Time: ptr("soon")}}), nil)
	_, err := json.Marshal(board)
	assert.NoError(t, err)
}

func TestLeaderboardUnknownEvent(t *testing.T) {
	_, ok := Leaderboard(models.Tournament{}, "nope")
	assert.False(t, ok)
}

type createOnly struct{ n int }

func (c *createOnly) CreateParticipant(context.Context, string, models.ParticipantPatch) (string, error) {
	c.n++
	return strconv.Itoa(c.n), nil
}

func (c *createOnly) UpdateParticipant(context.Context, string, models.ParticipantPatch) error {
	return nil
}

func TestSpringCupLeaderboard(t *testing.T) {
	s := store.New(&createOnly{})
	tid := s.AddTournament(models.Tournament{Name: "Spring Cup", Date: "2025-06-01"})
	alice, err := s.AddParticipant(context.Background(), tid, models.ParticipantPatch{Name: ptr("Alice"), Weight: ptr(60.0)})
	require.NoError(t, err)
	eid, ok := s.AddEvent(tid, models.Event{Name: "Pull-up Max", Category: "Strength"})
	require.True(t, ok)
	require.True(t, s.AddEventParticipant(tid, eid, alice))
	require.True(t, s.UpdateEventParticipantData(tid, eid, alice, models.DataPatch{Reps: ptr(12)}))

	tr, ok := s.GetTournament(tid)
	require.True(t, ok)
	board, ok := Leaderboard(tr, eid)
	require.True(t, ok)

	require.Len(t, board, 1)
	assert.Equal(t, alice, board[0].ParticipantId)
	assert.Equal(t, "Alice", board[0].Name)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, MetricReps, board[0].PrimaryMetric)
	assert.Equal(t, 12, board[0].PrimaryValue)
}

func TestParticipantLists(t *testing.T) {
	tr := models.Tournament{
		Participants: []models.Participant{
			{Id: "a", Name: "Alice", Division: "Open"},
			{Id: "b", Name: "Bob"},
			{Id: "c", Name: "Carol", Division: "Masters"},
			{Id: "d", Name: "Dan", Division: "Open"},
		},
		Events: []models.Event{{Id: "e1", ParticipantIds: []string{"c", "a", "ghost"}}},
	}

	reg := RegisteredParticipants(tr, "e1")
	assert.Equal(t, []string{"c", "a"}, ids(reg))

	avail := AvailableParticipants(tr, "e1")
	assert.Equal(t, []string{"b", "d"}, ids(avail))

	assert.Empty(t, RegisteredParticipants(tr, "nope"))

	groups := ParticipantsByDivision(tr.Participants)
	require.Len(t, groups, 3)
	assert.Equal(t, "Open", groups[0].Division)
	assert.Equal(t, []string{"a", "d"}, ids(groups[0].Participants))
	assert.Equal(t, "Masters", groups[1].Division)
	assert.Equal(t, "", groups[2].Division)
	assert.Equal(t, []string{"b"}, ids(groups[2].Participants))
}

func ids(ps []models.Participant) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Id)
	}
	return out
}

func TestAttemptsNewestFirst(t *testing.T) {
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	d := models.EventParticipantData{Attempts: []models.Attempt{
		{Id: "1", Timestamp: base},
		{Id: "2", Timestamp: base.Add(time.Minute)},
		{Id: "3", Timestamp: base.Add(time.Minute)},
		{Id: "4", Timestamp: base.Add(-time.Minute)},
	}}

	got := AttemptsNewestFirst(d)
	order := make([]string, 0, len(got))
	for _, a := range got {
		order = append(order, a.Id)
	}
	assert.Equal(t, []string{"3", "2", "1", "4"}, order)
	assert.Equal(t, "1", d.Attempts[0].Id, "input is not reordered")
}
