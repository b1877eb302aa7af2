// Package store holds the client-side entity graph: tournaments with their
// participants, events and per-event participant results.
//
// Entities are kept in flat maps keyed by tournament-scoped ids. The nested
// models.Tournament shape is assembled on read and for persistence. Tournament
// and event writes are local. Participant create/update go to the backend first
// and are committed only after the remote call succeeds.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/logger"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/models"
)

var (
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrEventNotFound       = errors.New("event not found")
	ErrParticipantNotFound = errors.New("participant not found")
)

// ParticipantRemote is the part of the backend gateway participant writes go through.
type ParticipantRemote interface {
	CreateParticipant(ctx context.Context, tournamentID string, in models.ParticipantPatch) (string, error)
	UpdateParticipant(ctx context.Context, id string, in models.ParticipantPatch) error
}

type ChangeKind string

const (
	TournamentChanged  ChangeKind = "tournament"
	TournamentDeleted  ChangeKind = "tournament_deleted"
	ParticipantChanged ChangeKind = "participant"
	EventChanged       ChangeKind = "event"
	ResultChanged      ChangeKind = "result"
	Restored           ChangeKind = "restored"
)

// Change describes one committed mutation.
type Change struct {
	Kind          ChangeKind
	TournamentId  string
	EventId       string
	ParticipantId string
}

type scopedKey struct {
	tournament string
	id         string
}

type dataKey struct {
	tournament  string
	event       string
	participant string
}

type tournamentNode struct {
	info         models.Tournament // Participants and Events stay nil
	participants []string
	events       []string
}

type Store struct {
	mu           sync.RWMutex
	order        []string
	tournaments  map[string]*tournamentNode
	participants map[scopedKey]*models.Participant
	events       map[scopedKey]*models.Event // ParticipantData stays nil
	data         map[dataKey]*models.EventParticipantData
	eventData    map[scopedKey]map[string]struct{} // event -> participants with a data record

	remote ParticipantRemote
	clock  clockwork.Clock
	log    *logger.Logger

	subsMu  sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

type Option func(*Store)

// WithClock replaces the wall clock used for timestamps and ids.
func WithClock(c clockwork.Clock) Option {
	return func(s *Store) { s.clock = c }
}

func New(remote ParticipantRemote, opts ...Option) *Store {
	s := &Store{
		remote: remote,
		clock:  clockwork.NewRealClock(),
		log:    logger.Named("store"),
		subs:   make(map[int]func(Change)),
	}
	s.reset()
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) reset() {
	s.order = nil
	s.tournaments = make(map[string]*tournamentNode)
	s.participants = make(map[scopedKey]*models.Participant)
	s.events = make(map[scopedKey]*models.Event)
	s.data = make(map[dataKey]*models.EventParticipantData)
	s.eventData = make(map[scopedKey]map[string]struct{})
}

// Subscribe registers fn to be called after every committed mutation. Callbacks
// run on the mutating goroutine after the store lock is released.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()
	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *Store) notify(c Change) {
	s.subsMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}

// touchTournamentLocked bumps the tournament's updatedAt.
func (s *Store) touchTournamentLocked(tn *tournamentNode) {
	tn.info.UpdatedAt = s.clock.Now()
}

func (s *Store) putDataLocked(k dataKey, d *models.EventParticipantData) {
	s.data[k] = d
	ek := scopedKey{k.tournament, k.event}
	set, ok := s.eventData[ek]
	if !ok {
		set = make(map[string]struct{})
		s.eventData[ek] = set
	}
	set[k.participant] = struct{}{}
}

func (s *Store) deleteDataLocked(k dataKey) {
	delete(s.data, k)
	if set, ok := s.eventData[scopedKey{k.tournament, k.event}]; ok {
		delete(set, k.participant)
	}
}

func (s *Store) deleteEventDataLocked(tournamentID, eventID string) {
	ek := scopedKey{tournamentID, eventID}
	for pid := range s.eventData[ek] {
		delete(s.data, dataKey{tournamentID, eventID, pid})
	}
	delete(s.eventData, ek)
}

// assembleEventLocked returns a deep copy of the event with its participantData filled in.
func (s *Store) assembleEventLocked(tournamentID string, e *models.Event) models.Event {
	out := e.Clone()
	for pid := range s.eventData[scopedKey{tournamentID, e.Id}] {
		if d, ok := s.data[dataKey{tournamentID, e.Id, pid}]; ok {
			out.ParticipantData[pid] = d.Clone()
		}
	}
	return out
}

func (s *Store) assembleLocked(tn *tournamentNode) models.Tournament {
	t := tn.info
	t.Participants = make([]models.Participant, 0, len(tn.participants))
	for _, pid := range tn.participants {
		if p, ok := s.participants[scopedKey{t.Id, pid}]; ok {
			t.Participants = append(t.Participants, p.Clone())
		}
	}
	t.Events = make([]models.Event, 0, len(tn.events))
	for _, eid := range tn.events {
		if e, ok := s.events[scopedKey{t.Id, eid}]; ok {
			t.Events = append(t.Events, s.assembleEventLocked(t.Id, e))
		}
	}
	return t
}
