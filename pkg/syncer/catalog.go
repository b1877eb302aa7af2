package syncer

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/timoknapp/fitness-tournament-tracker/pkg/cache"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/logger"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/models"
)

// EventTypes is the remote event type catalog, persisted under event-types-storage.
type EventTypes struct {
	mu    sync.RWMutex
	types []models.EventType

	kv  cache.Store
	log *logger.Logger
}

func newEventTypes(kv cache.Store) *EventTypes {
	return &EventTypes{kv: kv, log: logger.Named("sync.types")}
}

type eventTypesDoc struct {
	Types []models.EventType `json:"eventTypes"`
}

func (c *EventTypes) load() error {
	var doc eventTypesDoc
	if err := loadDoc(c.kv, cache.EventTypesStorageKey, &doc, c.log); err != nil {
		return err
	}
	c.mu.Lock()
	c.types = doc.Types
	c.mu.Unlock()
	return nil
}

func (c *EventTypes) replace(types []models.EventType) error {
	cp := make([]models.EventType, len(types))
	copy(cp, types)
	c.mu.Lock()
	c.types = cp
	c.mu.Unlock()
	return cache.SaveJSON(c.kv, cache.EventTypesStorageKey, eventTypesDoc{Types: cp})
}

func (c *EventTypes) All() []models.EventType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.EventType, len(c.types))
	for i, t := range c.types {
		t.Metrics = append([]string(nil), t.Metrics...)
		out[i] = t
	}
	return out
}

// Lookup finds a type by id or case-insensitive name.
func (c *EventTypes) Lookup(name string) (models.EventType, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.types {
		if t.Id == name || strings.EqualFold(t.Name, name) {
			t.Metrics = append([]string(nil), t.Metrics...)
			return t, true
		}
	}
	return models.EventType{}, false
}

// DetailLog remembers when each event's details were last synced successfully,
// persisted under event-storage.
type DetailLog struct {
	mu   sync.RWMutex
	last map[string]time.Time

	kv  cache.Store
	log *logger.Logger
}

func newDetailLog(kv cache.Store) *DetailLog {
	return &DetailLog{kv: kv, last: make(map[string]time.Time), log: logger.Named("sync.details")}
}

type detailLogDoc struct {
	LastSynced map[string]time.Time `json:"lastSynced"`
}

func (d *DetailLog) load() error {
	var doc detailLogDoc
	if err := loadDoc(d.kv, cache.EventStorageKey, &doc, d.log); err != nil {
		return err
	}
	d.mu.Lock()
	d.last = make(map[string]time.Time, len(doc.LastSynced))
	for k, v := range doc.LastSynced {
		d.last[k] = v
	}
	d.mu.Unlock()
	return nil
}

// LastSynced returns the time of the last successful detail sync of the event.
func (d *DetailLog) LastSynced(tournamentID, eventID string) (time.Time, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.last[EventDetailsKey(tournamentID, eventID)]
	return t, ok
}

func (d *DetailLog) mark(tournamentID, eventID string, at time.Time) error {
	d.mu.Lock()
	d.last[EventDetailsKey(tournamentID, eventID)] = at
	d.mu.Unlock()
	return d.save()
}

func (d *DetailLog) forgetTournament(tournamentID string) error {
	prefix := EventDetailsKey(tournamentID, "")
	d.mu.Lock()
	removed := false
	for k := range d.last {
		if strings.HasPrefix(k, prefix) {
			delete(d.last, k)
			removed = true
		}
	}
	d.mu.Unlock()
	if !removed {
		return nil
	}
	return d.save()
}

func (d *DetailLog) save() error {
	d.mu.RLock()
	doc := detailLogDoc{LastSynced: make(map[string]time.Time, len(d.last))}
	for k, v := range d.last {
		doc.LastSynced[k] = v
	}
	d.mu.RUnlock()
	return cache.SaveJSON(d.kv, cache.EventStorageKey, doc)
}

// loadDoc decodes key into out. Missing keys leave out untouched and unreadable
// documents are logged and skipped.
func loadDoc(kv cache.Store, key string, out any, log *logger.Logger) error {
	raw, found, err := kv.Get(key)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if !found {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		log.Warn("Ignoring unreadable %s: %v", key, err)
	}
	return nil
}
