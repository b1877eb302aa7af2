package syncer

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/timoknapp/fitness-tournament-tracker/pkg/gateway"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/models"
)

// fakeGateway is an in-memory backend. Setting block makes ListEvents wait
// until the channel is closed.
type fakeGateway struct {
	mu sync.Mutex

	events       []gateway.RemoteEvent
	participants []gateway.RemoteParticipant
	byEvent      map[string][]gateway.RemoteParticipant
	byPart       map[string][]gateway.RemoteEvent
	metrics      map[string][]gateway.ActivityRecord // participant id -> records
	eventTypes   []models.EventType
	activities   []gateway.ActivityInput

	errs   map[string]error
	calls  map[string]int
	block  chan struct{}
	nextID int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		byEvent: make(map[string][]gateway.RemoteParticipant),
		byPart:  make(map[string][]gateway.RemoteEvent),
		metrics: make(map[string][]gateway.ActivityRecord),
		errs:    make(map[string]error),
		calls:   make(map[string]int),
	}
}

var errBackend = errors.New("backend unavailable")

func (f *fakeGateway) hit(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.errs[name]
}

func (f *fakeGateway) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeGateway) fail(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[name] = err
}

func (f *fakeGateway) ListEvents(ctx context.Context) ([]gateway.RemoteEvent, error) {
	err := f.hit("ListEvents")
	f.mu.Lock()
	block := f.block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]gateway.RemoteEvent(nil), f.events...), nil
}

func (f *fakeGateway) GetEvent(_ context.Context, id string) (gateway.RemoteEvent, error) {
	if err := f.hit("GetEvent"); err != nil {
		return gateway.RemoteEvent{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e.Id.String() == id {
			return e, nil
		}
	}
	return gateway.RemoteEvent{}, &gateway.RemoteError{Method: "GET", Path: "/events/get/" + id, StatusCode: 404}
}

func (f *fakeGateway) CreateEvent(context.Context, gateway.EventInput) (string, error) {
	return "", f.hit("CreateEvent")
}

func (f *fakeGateway) UpdateEvent(context.Context, string, gateway.EventInput) error {
	return f.hit("UpdateEvent")
}

func (f *fakeGateway) DeleteEvent(context.Context, string) error {
	return f.hit("DeleteEvent")
}

func (f *fakeGateway) ListEventTypes(context.Context) ([]models.EventType, error) {
	if err := f.hit("ListEventTypes"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.EventType(nil), f.eventTypes...), nil
}

func (f *fakeGateway) EventsByParticipant(_ context.Context, id string) ([]gateway.RemoteEvent, error) {
	if err := f.hit("EventsByParticipant"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byPart[id], nil
}

func (f *fakeGateway) ListParticipants(context.Context) ([]gateway.RemoteParticipant, error) {
	if err := f.hit("ListParticipants"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]gateway.RemoteParticipant(nil), f.participants...), nil
}

func (f *fakeGateway) GetParticipant(_ context.Context, id string) (gateway.RemoteParticipant, error) {
	if err := f.hit("GetParticipant"); err != nil {
		return gateway.RemoteParticipant{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.participants {
		if p.Id.String() == id {
			return p, nil
		}
	}
	return gateway.RemoteParticipant{}, &gateway.RemoteError{Method: "GET", Path: "/participants/get/" + id, StatusCode: 404}
}

func (f *fakeGateway) CreateParticipant(context.Context, string, models.ParticipantPatch) (string, error) {
	if err := f.hit("CreateParticipant"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return strconv.Itoa(100 + f.nextID), nil
}

func (f *fakeGateway) UpdateParticipant(context.Context, string, models.ParticipantPatch) error {
	return f.hit("UpdateParticipant")
}

func (f *fakeGateway) ParticipantsByEvent(_ context.Context, id string) ([]gateway.RemoteParticipant, error) {
	if err := f.hit("ParticipantsByEvent"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byEvent[id], nil
}

func (f *fakeGateway) GetMetrics(_ context.Context, _, participantID, _ string) ([]gateway.ActivityRecord, error) {
	if err := f.hit("GetMetrics"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs["GetMetrics:"+participantID]; err != nil {
		return nil, err
	}
	return f.metrics[participantID], nil
}

func (f *fakeGateway) AddActivity(_ context.Context, in gateway.ActivityInput) (gateway.ActivityRecord, error) {
	if err := f.hit("AddActivity"); err != nil {
		return gateway.ActivityRecord{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activities = append(f.activities, in)
	return gateway.ActivityRecord{Id: "77", EventId: gateway.ID(in.EventId), ParticipantId: gateway.ID(in.ParticipantId), Reps: in.Reps}, nil
}

func (f *fakeGateway) UpdateActivity(_ context.Context, in gateway.ActivityInput) error {
	if err := f.hit("UpdateActivity"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activities = append(f.activities, in)
	return nil
}
