// Package views derives read-only projections from cached tournaments. Nothing
// here mutates its input; results are recomputed on every call.
package views

import (
	"math"
	"sort"

	"github.com/timoknapp/fitness-tournament-tracker/pkg/models"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/timefmt"
)

// Metric names the result field an entry was ranked by.
type Metric string

const (
	MetricNone   Metric = ""
	MetricReps   Metric = "reps"
	MetricWeight Metric = "weight"
	MetricTime   Metric = "time"
)

// unparsedTime stays finite so entries remain JSON-encodable.
const unparsedTime = -math.MaxFloat64

type Entry struct {
	ParticipantId string  `json:"participantId"`
	Name          string  `json:"name"`
	Division      string  `json:"division,omitempty"`
	Rank          int     `json:"rank"`
	Score         float64 `json:"score"`
	PrimaryMetric Metric  `json:"primaryMetric"`
	// int for reps, float64 for weight, the raw string for time, nil otherwise
	PrimaryValue any `json:"primaryValue"`
}

// Score picks one orderable value per result: reps, else weight, else the
// negated time in seconds so that faster ranks higher. An unparseable time
// scores unparsedTime and ranks below every valid one.
func Score(d models.EventParticipantData) (float64, Metric, any) {
	switch {
	case d.Reps != nil:
		return float64(*d.Reps), MetricReps, *d.Reps
	case d.Weight != nil:
		return *d.Weight, MetricWeight, *d.Weight
	case d.Time != nil:
		secs, err := timefmt.Seconds(*d.Time)
		if err != nil {
			return unparsedTime, MetricTime, *d.Time
		}
		return -secs, MetricTime, *d.Time
	default:
		return 0, MetricNone, nil
	}
}

// Leaderboard ranks every registered participant of the event that has a
// result. Ties keep registration order.
func Leaderboard(t models.Tournament, eventID string) ([]Entry, bool) {
	event, ok := findEvent(t, eventID)
	if !ok {
		return nil, false
	}
	return RankEvent(event, participantIndex(t)), true
}

// RankEvent is Leaderboard for an event already at hand. participants supplies
// names and divisions and may be nil.
func RankEvent(e models.Event, participants map[string]models.Participant) []Entry {
	entries := make([]Entry, 0, len(e.ParticipantData))
	for _, pid := range e.ParticipantIds {
		d, ok := e.ParticipantData[pid]
		if !ok {
			continue
		}
		score, metric, value := Score(d)
		p := participants[pid]
		entries = append(entries, Entry{
			ParticipantId: pid,
			Name:          p.Name,
			Division:      p.Division,
			Score:         score,
			PrimaryMetric: metric,
			PrimaryValue:  value,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func findEvent(t models.Tournament, eventID string) (models.Event, bool) {
	for _, e := range t.Events {
		if e.Id == eventID {
			return e, true
		}
	}
	return models.Event{}, false
}

func participantIndex(t models.Tournament) map[string]models.Participant {
	idx := make(map[string]models.Participant, len(t.Participants))
	for _, p := range t.Participants {
		idx[p.Id] = p
	}
	return idx
}
