package views

import (
	"sort"

	"github.com/timoknapp/fitness-tournament-tracker/pkg/models"
)

// RegisteredParticipants returns the event's participants in registration order.
// Ids with no matching tournament participant are skipped.
func RegisteredParticipants(t models.Tournament, eventID string) []models.Participant {
	event, ok := findEvent(t, eventID)
	if !ok {
		return []models.Participant{}
	}
	idx := participantIndex(t)
	out := make([]models.Participant, 0, len(event.ParticipantIds))
	for _, pid := range event.ParticipantIds {
		if p, ok := idx[pid]; ok {
			out = append(out, p)
		}
	}
	return out
}

// AvailableParticipants returns the tournament participants not yet registered
// for the event, in tournament order.
func AvailableParticipants(t models.Tournament, eventID string) []models.Participant {
	event, ok := findEvent(t, eventID)
	if !ok {
		return []models.Participant{}
	}
	registered := make(map[string]struct{}, len(event.ParticipantIds))
	for _, pid := range event.ParticipantIds {
		registered[pid] = struct{}{}
	}
	out := make([]models.Participant, 0, len(t.Participants))
	for _, p := range t.Participants {
		if _, ok := registered[p.Id]; !ok {
			out = append(out, p)
		}
	}
	return out
}

type DivisionGroup struct {
	Division     string               `json:"division"`
	Participants []models.Participant `json:"participants"`
}

// ParticipantsByDivision groups participants by division in order of first
// appearance. Participants without a division form a trailing group with an
// empty label.
func ParticipantsByDivision(participants []models.Participant) []DivisionGroup {
	var groups []DivisionGroup
	pos := make(map[string]int)
	var unassigned []models.Participant
	for _, p := range participants {
		if p.Division == "" {
			unassigned = append(unassigned, p)
			continue
		}
		i, ok := pos[p.Division]
		if !ok {
			i = len(groups)
			pos[p.Division] = i
			groups = append(groups, DivisionGroup{Division: p.Division})
		}
		groups[i].Participants = append(groups[i].Participants, p)
	}
	if len(unassigned) > 0 {
		groups = append(groups, DivisionGroup{Participants: unassigned})
	}
	return groups
}

// AttemptsNewestFirst returns a copy of the attempt log ordered by timestamp,
// newest first. Attempts with equal timestamps show the later insert first.
func AttemptsNewestFirst(d models.EventParticipantData) []models.Attempt {
	out := make([]models.Attempt, len(d.Attempts))
	for i, a := range d.Attempts {
		out[len(out)-1-i] = a.Clone()
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}
