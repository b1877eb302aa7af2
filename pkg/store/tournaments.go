package store

import (
	"github.com/timoknapp/fitness-tournament-tracker/pkg/models"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/util"
)

// AddTournament inserts a new tournament built from data and returns its generated id.
// Id, participants, events and timestamps on data are ignored.
func (s *Store) AddTournament(data models.Tournament) string {
	s.mu.Lock()
	now := s.clock.Now()
	t := models.Tournament{
		Id:          util.NewID(now),
		Name:        data.Name,
		Date:        data.Date,
		Description: data.Description,
		Status:      data.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Status == "" {
		t.Status = models.TournamentUpcoming
	}
	s.tournaments[t.Id] = &tournamentNode{info: t}
	s.order = append(s.order, t.Id)
	s.mu.Unlock()

	s.log.Debug("Added tournament %s (%s)", t.Id, t.Name)
	s.notify(Change{Kind: TournamentChanged, TournamentId: t.Id})
	return t.Id
}

// UpdateTournament merges patch into the tournament. Returns false if the id is unknown.
func (s *Store) UpdateTournament(id string, patch models.TournamentPatch) bool {
	s.mu.Lock()
	tn, ok := s.tournaments[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	patch.Apply(&tn.info)
	s.touchTournamentLocked(tn)
	s.mu.Unlock()

	s.notify(Change{Kind: TournamentChanged, TournamentId: id})
	return true
}

// DeleteTournament removes the tournament together with everything it owns.
func (s *Store) DeleteTournament(id string) bool {
	s.mu.Lock()
	tn, ok := s.tournaments[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	for _, eid := range tn.events {
		s.deleteEventDataLocked(id, eid)
		delete(s.events, scopedKey{id, eid})
	}
	for _, pid := range tn.participants {
		delete(s.participants, scopedKey{id, pid})
	}
	delete(s.tournaments, id)
	s.order, _ = util.RemoveString(s.order, id)
	s.mu.Unlock()

	s.log.Debug("Deleted tournament %s", id)
	s.notify(Change{Kind: TournamentDeleted, TournamentId: id})
	return true
}

func (s *Store) GetTournament(id string) (models.Tournament, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tn, ok := s.tournaments[id]
	if !ok {
		return models.Tournament{}, false
	}
	return s.assembleLocked(tn), true
}

// HasTournament is a cheap existence check that avoids assembling the tournament.
func (s *Store) HasTournament(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tournaments[id]
	return ok
}

// ListTournaments returns all tournaments in insertion order.
func (s *Store) ListTournaments() []models.Tournament {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Tournament, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.assembleLocked(s.tournaments[id]))
	}
	return out
}

// TournamentIDs returns the ids of all cached tournaments in insertion order.
func (s *Store) TournamentIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}
