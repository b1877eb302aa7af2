package syncer

import (
	"strings"
	"sync"
	"time"
)

// LoadState is the per-key sync lifecycle: NotLoaded -> Loading -> Loaded | Error.
// A forced refresh re-enters Loading from any state.
type LoadState int

const (
	NotLoaded LoadState = iota
	Loading
	Loaded
	Error
)

func (s LoadState) String() string {
	switch s {
	case NotLoaded:
		return "not_loaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

func (s LoadState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Status struct {
	State     LoadState `json:"state"`
	InFlight  int       `json:"inFlight"`
	LoadedAt  time.Time `json:"loadedAt,omitempty"`
	LastError string    `json:"lastError,omitempty"`
}

const EventTypesKey = "event-types"

func EventsKey(tournamentID string) string { return "events/" + tournamentID }

func ParticipantsKey(tournamentID string) string { return "participants/" + tournamentID }

func EventDetailsKey(tournamentID, eventID string) string {
	return "event/" + tournamentID + "/" + eventID
}

func ParticipantDetailsKey(tournamentID, participantID string) string {
	return "participant/" + tournamentID + "/" + participantID
}

type tracker struct {
	mu     sync.Mutex
	states map[string]*Status
}

func newTracker() *tracker {
	return &tracker{states: make(map[string]*Status)}
}

// begin moves key to Loading. It refuses when a request for key is already in
// flight, unless force is set.
func (t *tracker) begin(key string, force bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.states[key]
	if !ok {
		st = &Status{}
		t.states[key] = st
	}
	if st.InFlight > 0 && !force {
		return false
	}
	st.InFlight++
	st.State = Loading
	return true
}

// end records one finished request. The key stays Loading until the last
// in-flight request for it returns; that one decides Loaded or Error.
func (t *tracker) end(key string, err error, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.states[key]
	if !ok {
		return
	}
	if st.InFlight > 0 {
		st.InFlight--
	}
	if err != nil {
		st.LastError = err.Error()
	} else {
		st.LoadedAt = now
		st.LastError = ""
	}
	if st.InFlight > 0 {
		return
	}
	if err != nil {
		st.State = Error
	} else {
		st.State = Loaded
	}
}

func (t *tracker) status(key string) Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.states[key]; ok {
		return *st
	}
	return Status{State: NotLoaded}
}

// forgetTournament drops every idle key that belongs to the tournament.
func (t *tracker) forgetTournament(tournamentID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, st := range t.states {
		if st.InFlight > 0 {
			continue
		}
		if key == EventsKey(tournamentID) || key == ParticipantsKey(tournamentID) ||
			strings.HasPrefix(key, "event/"+tournamentID+"/") ||
			strings.HasPrefix(key, "participant/"+tournamentID+"/") {
			delete(t.states, key)
		}
	}
}

func (t *tracker) snapshot() map[string]Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]Status, len(t.states))
	for k, st := range t.states {
		out[k] = *st
	}
	return out
}
