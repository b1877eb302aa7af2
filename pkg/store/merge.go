package store

import (
	"github.com/timoknapp/fitness-tournament-tracker/pkg/models"
)

// EventMerge turns a fetched event into the value to cache. local is the cached
// copy (found=false when the event is new) so fields the backend does not carry
// can be preserved.
type EventMerge func(local models.Event, found bool) models.Event

// ParticipantMerge is EventMerge for participants.
type ParticipantMerge func(local models.Participant, found bool) models.Participant

type EventUpsert struct {
	Id    string
	Merge EventMerge
}

type ParticipantUpsert struct {
	Id    string
	Merge ParticipantMerge
}

// ReplaceEvents makes incoming the tournament's complete event list, in order.
// Cached events missing from incoming are deleted with their results. Results of
// events that remain are kept.
func (s *Store) ReplaceEvents(tournamentID string, incoming []EventUpsert) bool {
	s.mu.Lock()
	tn, ok := s.tournaments[tournamentID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	keep := make(map[string]struct{}, len(incoming))
	order := make([]string, 0, len(incoming))
	for _, in := range incoming {
		if _, dup := keep[in.Id]; dup || in.Id == "" {
			continue
		}
		keep[in.Id] = struct{}{}
		order = append(order, in.Id)
		s.upsertEventLocked(tournamentID, in)
	}
	for _, eid := range tn.events {
		if _, ok := keep[eid]; !ok {
			s.deleteEventDataLocked(tournamentID, eid)
			delete(s.events, scopedKey{tournamentID, eid})
		}
	}
	tn.events = order
	s.touchTournamentLocked(tn)
	s.mu.Unlock()

	s.notify(Change{Kind: EventChanged, TournamentId: tournamentID})
	return true
}

// UpsertEvent merges a single fetched event, appending it when it is new.
func (s *Store) UpsertEvent(tournamentID string, in EventUpsert) bool {
	if in.Id == "" {
		return false
	}
	s.mu.Lock()
	tn, ok := s.tournaments[tournamentID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if s.upsertEventLocked(tournamentID, in) {
		tn.events = append(tn.events, in.Id)
	}
	s.touchTournamentLocked(tn)
	s.mu.Unlock()

	s.notify(Change{Kind: EventChanged, TournamentId: tournamentID, EventId: in.Id})
	return true
}

// upsertEventLocked stores the merged event and reports whether it was new.
func (s *Store) upsertEventLocked(tournamentID string, in EventUpsert) bool {
	now := s.clock.Now()
	key := scopedKey{tournamentID, in.Id}
	var local models.Event
	existing, found := s.events[key]
	if found {
		local = existing.Clone()
	}
	merged := in.Merge(local, found)
	merged.Id = in.Id
	merged.ParticipantData = nil
	if merged.ParticipantIds == nil {
		merged.ParticipantIds = []string{}
	}
	if found {
		merged.CreatedAt = existing.CreatedAt
	} else if merged.CreatedAt.IsZero() {
		merged.CreatedAt = now
	}
	merged.UpdatedAt = now
	s.events[key] = &merged
	return !found
}

// ReplaceParticipants makes incoming the tournament's complete participant list.
// Participants missing from incoming are deleted with the same cascade as
// DeleteParticipant.
func (s *Store) ReplaceParticipants(tournamentID string, incoming []ParticipantUpsert) bool {
	s.mu.Lock()
	tn, ok := s.tournaments[tournamentID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	keep := make(map[string]struct{}, len(incoming))
	for _, in := range incoming {
		if in.Id != "" {
			keep[in.Id] = struct{}{}
		}
	}
	for _, pid := range append([]string(nil), tn.participants...) {
		if _, ok := keep[pid]; !ok {
			s.deleteParticipantLocked(tn, pid)
		}
	}
	order := make([]string, 0, len(incoming))
	seen := make(map[string]struct{}, len(incoming))
	for _, in := range incoming {
		if _, dup := seen[in.Id]; dup || in.Id == "" {
			continue
		}
		seen[in.Id] = struct{}{}
		order = append(order, in.Id)
		s.upsertParticipantLocked(tn, in)
	}
	tn.participants = order
	s.touchTournamentLocked(tn)
	s.mu.Unlock()

	s.notify(Change{Kind: ParticipantChanged, TournamentId: tournamentID})
	return true
}

// UpsertParticipants merges fetched participants without removing any.
func (s *Store) UpsertParticipants(tournamentID string, incoming []ParticipantUpsert) bool {
	s.mu.Lock()
	tn, ok := s.tournaments[tournamentID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	for _, in := range incoming {
		if in.Id != "" {
			s.upsertParticipantLocked(tn, in)
		}
	}
	s.touchTournamentLocked(tn)
	s.mu.Unlock()

	s.notify(Change{Kind: ParticipantChanged, TournamentId: tournamentID})
	return true
}

func (s *Store) upsertParticipantLocked(tn *tournamentNode, in ParticipantUpsert) {
	var local models.Participant
	existing, found := s.participants[scopedKey{tn.info.Id, in.Id}]
	if found {
		local = existing.Clone()
	}
	merged := in.Merge(local, found)
	merged.Id = in.Id
	s.putParticipantLocked(tn, merged)
}

// SetEventParticipants replaces the event's registration list. Results of
// participants that drop out are kept.
func (s *Store) SetEventParticipants(tournamentID, eventID string, participantIDs []string) bool {
	s.mu.Lock()
	tn, e, ok := s.eventLocked(tournamentID, eventID)
	if !ok {
		s.mu.Unlock()
		return false
	}
	ids := make([]string, 0, len(participantIDs))
	seen := make(map[string]struct{}, len(participantIDs))
	for _, id := range participantIDs {
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	e.ParticipantIds = ids
	e.UpdatedAt = s.clock.Now()
	s.touchTournamentLocked(tn)
	s.mu.Unlock()

	s.notify(Change{Kind: EventChanged, TournamentId: tournamentID, EventId: eventID})
	return true
}
