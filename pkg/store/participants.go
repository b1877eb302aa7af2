package store

import (
	"context"
	"fmt"

	"github.com/timoknapp/fitness-tournament-tracker/pkg/models"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/util"
)

// AddParticipant creates the participant on the backend and, once that succeeds,
// appends it to the tournament under the backend-assigned id. On a remote
// failure the store is left untouched and the error is returned.
func (s *Store) AddParticipant(ctx context.Context, tournamentID string, data models.ParticipantPatch) (string, error) {
	if !s.HasTournament(tournamentID) {
		return "", fmt.Errorf("add participant to %s: %w", tournamentID, ErrTournamentNotFound)
	}

	id, err := s.remote.CreateParticipant(ctx, tournamentID, data)
	if err != nil {
		return "", fmt.Errorf("create participant: %w", err)
	}

	s.mu.Lock()
	tn, ok := s.tournaments[tournamentID]
	if !ok {
		// deleted while the remote call was in flight; the remote record stays
		s.mu.Unlock()
		return "", fmt.Errorf("add participant %s to %s: %w", id, tournamentID, ErrTournamentNotFound)
	}
	now := s.clock.Now()
	key := scopedKey{tournamentID, id}
	if existing, ok := s.participants[key]; ok {
		data.Apply(existing)
		existing.UpdatedAt = now
	} else {
		p := models.ParticipantFromPatch(data)
		p.Id = id
		p.CreatedAt = now
		p.UpdatedAt = now
		s.participants[key] = &p
		tn.participants = append(tn.participants, id)
	}
	s.touchTournamentLocked(tn)
	s.mu.Unlock()

	s.log.Debug("Added participant %s to tournament %s", id, tournamentID)
	s.notify(Change{Kind: ParticipantChanged, TournamentId: tournamentID, ParticipantId: id})
	return id, nil
}

// UpdateParticipant sends patch to the backend and then merges the same patch
// into the cached participant.
func (s *Store) UpdateParticipant(ctx context.Context, tournamentID, participantID string, patch models.ParticipantPatch) error {
	if _, ok := s.GetParticipant(tournamentID, participantID); !ok {
		return fmt.Errorf("update participant %s: %w", participantID, ErrParticipantNotFound)
	}

	if err := s.remote.UpdateParticipant(ctx, participantID, patch); err != nil {
		return fmt.Errorf("update participant %s: %w", participantID, err)
	}

	s.mu.Lock()
	tn, ok := s.tournaments[tournamentID]
	p, pok := s.participants[scopedKey{tournamentID, participantID}]
	if !ok || !pok {
		s.mu.Unlock()
		return fmt.Errorf("update participant %s: %w", participantID, ErrParticipantNotFound)
	}
	patch.Apply(p)
	p.UpdatedAt = s.clock.Now()
	s.touchTournamentLocked(tn)
	s.mu.Unlock()

	s.notify(Change{Kind: ParticipantChanged, TournamentId: tournamentID, ParticipantId: participantID})
	return nil
}

func (s *Store) putParticipantLocked(tn *tournamentNode, p models.Participant) {
	now := s.clock.Now()
	key := scopedKey{tn.info.Id, p.Id}
	stored := p.Clone()
	if existing, ok := s.participants[key]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else {
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = now
		}
		tn.participants = append(tn.participants, p.Id)
	}
	stored.UpdatedAt = now
	s.participants[key] = &stored
}

// DeleteParticipant removes the participant from the tournament, unlinks it from
// every event and drops its per-event results, in one step.
func (s *Store) DeleteParticipant(tournamentID, participantID string) bool {
	s.mu.Lock()
	tn, ok := s.tournaments[tournamentID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if _, ok := s.participants[scopedKey{tournamentID, participantID}]; !ok {
		s.mu.Unlock()
		return false
	}
	s.deleteParticipantLocked(tn, participantID)
	s.touchTournamentLocked(tn)
	s.mu.Unlock()

	s.log.Debug("Deleted participant %s from tournament %s", participantID, tournamentID)
	s.notify(Change{Kind: ParticipantChanged, TournamentId: tournamentID, ParticipantId: participantID})
	return true
}

func (s *Store) deleteParticipantLocked(tn *tournamentNode, participantID string) {
	tid := tn.info.Id
	now := s.clock.Now()
	delete(s.participants, scopedKey{tid, participantID})
	tn.participants, _ = util.RemoveString(tn.participants, participantID)
	for _, eid := range tn.events {
		e, ok := s.events[scopedKey{tid, eid}]
		if !ok {
			continue
		}
		var removed bool
		e.ParticipantIds, removed = util.RemoveString(e.ParticipantIds, participantID)
		k := dataKey{tid, eid, participantID}
		if _, hasData := s.data[k]; hasData {
			s.deleteDataLocked(k)
			removed = true
		}
		if removed {
			e.UpdatedAt = now
		}
	}
}

func (s *Store) GetParticipant(tournamentID, participantID string) (models.Participant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.participants[scopedKey{tournamentID, participantID}]
	if !ok {
		return models.Participant{}, false
	}
	return p.Clone(), true
}
