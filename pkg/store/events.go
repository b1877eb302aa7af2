package store

import (
	"github.com/timoknapp/fitness-tournament-tracker/pkg/models"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/util"
)

// AddEvent creates an event in the tournament from data and returns its id.
// Returns false if the tournament is unknown.
func (s *Store) AddEvent(tournamentID string, data models.Event) (string, bool) {
	s.mu.Lock()
	tn, ok := s.tournaments[tournamentID]
	if !ok {
		s.mu.Unlock()
		return "", false
	}
	now := s.clock.Now()
	e := models.Event{
		Id:             util.NewID(now),
		Name:           data.Name,
		Date:           data.Date,
		Category:       data.Category,
		Divisions:      append([]string{}, data.Divisions...),
		Metrics:        append([]string{}, data.Metrics...),
		ParticipantIds: []string{},
		Status:         data.Status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if e.Status == "" {
		e.Status = models.EventUpcoming
	}
	s.events[scopedKey{tournamentID, e.Id}] = &e
	tn.events = append(tn.events, e.Id)
	s.touchTournamentLocked(tn)
	s.mu.Unlock()

	s.notify(Change{Kind: EventChanged, TournamentId: tournamentID, EventId: e.Id})
	return e.Id, true
}

func (s *Store) UpdateEvent(tournamentID, eventID string, patch models.EventPatch) bool {
	s.mu.Lock()
	tn, e, ok := s.eventLocked(tournamentID, eventID)
	if !ok {
		s.mu.Unlock()
		return false
	}
	patch.Apply(e)
	e.UpdatedAt = s.clock.Now()
	s.touchTournamentLocked(tn)
	s.mu.Unlock()

	s.notify(Change{Kind: EventChanged, TournamentId: tournamentID, EventId: eventID})
	return true
}

// DeleteEvent removes the event and its results. Participants are not affected.
func (s *Store) DeleteEvent(tournamentID, eventID string) bool {
	s.mu.Lock()
	tn, _, ok := s.eventLocked(tournamentID, eventID)
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.deleteEventLocked(tn, eventID)
	s.touchTournamentLocked(tn)
	s.mu.Unlock()

	s.notify(Change{Kind: EventChanged, TournamentId: tournamentID, EventId: eventID})
	return true
}

func (s *Store) deleteEventLocked(tn *tournamentNode, eventID string) {
	s.deleteEventDataLocked(tn.info.Id, eventID)
	delete(s.events, scopedKey{tn.info.Id, eventID})
	tn.events, _ = util.RemoveString(tn.events, eventID)
}

func (s *Store) GetEvent(tournamentID, eventID string) (models.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[scopedKey{tournamentID, eventID}]
	if !ok {
		return models.Event{}, false
	}
	return s.assembleEventLocked(tournamentID, e), true
}

// AddEventParticipant registers the participant for the event. Adding an
// already registered participant is a no-op that still reports true.
func (s *Store) AddEventParticipant(tournamentID, eventID, participantID string) bool {
	s.mu.Lock()
	tn, e, ok := s.eventLocked(tournamentID, eventID)
	if !ok {
		s.mu.Unlock()
		return false
	}
	if _, ok := s.participants[scopedKey{tournamentID, participantID}]; !ok {
		s.mu.Unlock()
		return false
	}
	if util.ContainsString(e.ParticipantIds, participantID) {
		s.mu.Unlock()
		return true
	}
	e.ParticipantIds = append(e.ParticipantIds, participantID)
	e.UpdatedAt = s.clock.Now()
	s.touchTournamentLocked(tn)
	s.mu.Unlock()

	s.notify(Change{Kind: EventChanged, TournamentId: tournamentID, EventId: eventID, ParticipantId: participantID})
	return true
}

// RemoveEventParticipant unregisters the participant and drops its result for the event.
func (s *Store) RemoveEventParticipant(tournamentID, eventID, participantID string) bool {
	s.mu.Lock()
	tn, e, ok := s.eventLocked(tournamentID, eventID)
	if !ok {
		s.mu.Unlock()
		return false
	}
	var removed bool
	e.ParticipantIds, removed = util.RemoveString(e.ParticipantIds, participantID)
	k := dataKey{tournamentID, eventID, participantID}
	if _, ok := s.data[k]; ok {
		s.deleteDataLocked(k)
		removed = true
	}
	if !removed {
		s.mu.Unlock()
		return true
	}
	e.UpdatedAt = s.clock.Now()
	s.touchTournamentLocked(tn)
	s.mu.Unlock()

	s.notify(Change{Kind: EventChanged, TournamentId: tournamentID, EventId: eventID, ParticipantId: participantID})
	return true
}

func (s *Store) eventLocked(tournamentID, eventID string) (*tournamentNode, *models.Event, bool) {
	tn, ok := s.tournaments[tournamentID]
	if !ok {
		return nil, nil, false
	}
	e, ok := s.events[scopedKey{tournamentID, eventID}]
	if !ok {
		return nil, nil, false
	}
	return tn, e, true
}
