// Package syncer pulls fragments of the remote graph into the local store.
//
// Every sync is keyed (events of a tournament, participants of a tournament,
// details of one event, ...). While a sync for a key is in flight a second
// non-forced trigger for the same key is dropped. Read failures are logged,
// recorded on the key's Status and returned; the store keeps its previous
// content.
package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/cache"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/gateway"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/logger"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/metrics"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/store"
)

const (
	scopeEvents             = "events"
	scopeParticipants       = "participants"
	scopeEventDetails       = "event_details"
	scopeParticipantDetails = "participant_details"
	scopeEventTypes         = "event_types"
)

var errAborted = errors.New("sync aborted")

type Coordinator struct {
	store   *store.Store
	remote  gateway.Gateway
	states  *tracker
	types   *EventTypes
	details *DetailLog

	clock       clockwork.Clock
	metrics     *metrics.Registry
	concurrency int
	log         *logger.Logger

	unsubscribe func()
}

type Option func(*Coordinator)

func WithClock(c clockwork.Clock) Option {
	return func(co *Coordinator) { co.clock = c }
}

// WithConcurrency bounds parallel gateway calls inside one detail sync and across RefreshAll.
func WithConcurrency(n int) Option {
	return func(co *Coordinator) {
		if n > 0 {
			co.concurrency = n
		}
	}
}

func WithMetrics(r *metrics.Registry) Option {
	return func(co *Coordinator) { co.metrics = r }
}

func New(st *store.Store, remote gateway.Gateway, kv cache.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:       st,
		remote:      remote,
		states:      newTracker(),
		types:       newEventTypes(kv),
		details:     newDetailLog(kv),
		clock:       clockwork.NewRealClock(),
		metrics:     metrics.Default,
		concurrency: 4,
		log:         logger.Named("sync"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.unsubscribe = st.Subscribe(func(ch store.Change) {
		if ch.Kind != store.TournamentDeleted {
			return
		}
		c.states.forgetTournament(ch.TournamentId)
		if err := c.details.forgetTournament(ch.TournamentId); err != nil {
			c.log.Error("Failed to persist detail log: %v", err)
		}
	})
	return c
}

// Load restores the event type catalog and the detail log from the cache.
func (c *Coordinator) Load() error {
	if err := c.types.load(); err != nil {
		return err
	}
	return c.details.load()
}

// Close stops following store changes.
func (c *Coordinator) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

func (c *Coordinator) Status(key string) Status { return c.states.status(key) }

// Statuses returns the status of every key seen so far.
func (c *Coordinator) Statuses() map[string]Status { return c.states.snapshot() }

func (c *Coordinator) EventTypes() *EventTypes { return c.types }

func (c *Coordinator) DetailLog() *DetailLog { return c.details }

// run executes fn under the load-state machine of key.
func (c *Coordinator) run(ctx context.Context, scope, key string, force bool, fn func(context.Context) error) error {
	if !c.states.begin(key, force) {
		c.metrics.SyncDeduplicated(scope)
		c.log.Debug("Skipping %s: request already in flight", key)
		return nil
	}
	c.metrics.SyncStarted(scope)
	start := c.clock.Now()

	err := errAborted
	defer func() {
		c.states.end(key, err, c.clock.Now())
		c.metrics.SyncFinished(scope, c.clock.Since(start), err)
	}()

	err = fn(ctx)
	if err != nil {
		c.log.Error("Sync %s failed: %v", key, err)
		return fmt.Errorf("sync %s: %w", key, err)
	}
	c.log.Debug("Synced %s in %s", key, c.clock.Since(start))
	return nil
}
