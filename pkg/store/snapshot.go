package store

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/timoknapp/fitness-tournament-tracker/pkg/cache"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/logger"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/models"
)

const snapshotVersion = 1

// Snapshot is the persisted form of the store.
type Snapshot struct {
	Version     int                 `json:"version"`
	Tournaments []models.Tournament `json:"tournaments"`
}

// State returns a deep copy of every tournament in nested form.
func (s *Store) State() Snapshot {
	return Snapshot{Version: snapshotVersion, Tournaments: s.ListTournaments()}
}

// Restore replaces the whole store content with snap.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	s.reset()
	for _, t := range snap.Tournaments {
		if t.Id == "" {
			continue
		}
		if _, dup := s.tournaments[t.Id]; dup {
			continue
		}
		tn := &tournamentNode{info: t}
		tn.info.Participants = nil
		tn.info.Events = nil
		for _, p := range t.Participants {
			key := scopedKey{t.Id, p.Id}
			if _, dup := s.participants[key]; dup || p.Id == "" {
				continue
			}
			stored := p.Clone()
			s.participants[key] = &stored
			tn.participants = append(tn.participants, p.Id)
		}
		for _, e := range t.Events {
			key := scopedKey{t.Id, e.Id}
			if _, dup := s.events[key]; dup || e.Id == "" {
				continue
			}
			stored := e.Clone()
			stored.ParticipantData = nil
			if stored.ParticipantIds == nil {
				stored.ParticipantIds = []string{}
			}
			s.events[key] = &stored
			tn.events = append(tn.events, e.Id)
			for pid, d := range e.ParticipantData {
				s.putDataLocked(dataKey{t.Id, e.Id, pid}, cloneData(d))
			}
		}
		s.tournaments[t.Id] = tn
		s.order = append(s.order, t.Id)
	}
	s.mu.Unlock()

	s.notify(Change{Kind: Restored})
}

func cloneData(d models.EventParticipantData) *models.EventParticipantData {
	out := d.Clone()
	if out.Videos == nil {
		out.Videos = []models.Video{}
	}
	if out.Attempts == nil {
		out.Attempts = []models.Attempt{}
	}
	return &out
}

// Persister keeps the store mirrored in the key/value cache under
// cache.TournamentStorageKey.
type Persister struct {
	// mu orders saves so a slower write never lands after a newer snapshot
	mu  sync.Mutex
	kv  cache.Store
	log *logger.Logger
}

func NewPersister(kv cache.Store) *Persister {
	return &Persister{kv: kv, log: logger.Named("persist")}
}

// Load restores the store from the cache. A missing or unreadable document
// leaves the store empty; only the cache read itself can fail.
func (p *Persister) Load(s *Store) error {
	raw, found, err := p.kv.Get(cache.TournamentStorageKey)
	if err != nil {
		return fmt.Errorf("read %s: %w", cache.TournamentStorageKey, err)
	}
	if !found {
		p.log.Debug("No persisted state found")
		return nil
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		p.log.Warn("Ignoring unreadable %s: %v", cache.TournamentStorageKey, err)
		return nil
	}
	s.Restore(snap)
	p.log.Info("Restored %d tournaments from cache", len(snap.Tournaments))
	return nil
}

// Save writes the current state. The snapshot is taken under the save lock.
func (p *Persister) Save(s *Store) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return cache.SaveJSON(p.kv, cache.TournamentStorageKey, s.State())
}

// Bind saves the store after every committed change until the returned function is called.
func (p *Persister) Bind(s *Store) (unbind func()) {
	return s.Subscribe(func(c Change) {
		if c.Kind == Restored {
			return
		}
		if err := p.Save(s); err != nil {
			p.log.Error("Failed to persist store after %s change: %v", c.Kind, err)
		}
	})
}
