package syncer

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// EnsureEvents syncs the tournament's events unless they were loaded before
// (first-visit semantics). Use RefreshEvents to force a reload.
func (c *Coordinator) EnsureEvents(ctx context.Context, tournamentID string) error {
	if c.Status(EventsKey(tournamentID)).State != NotLoaded {
		return nil
	}
	return c.SyncEventsOnly(ctx, tournamentID, false)
}

func (c *Coordinator) RefreshEvents(ctx context.Context, tournamentID string) error {
	return c.SyncEventsOnly(ctx, tournamentID, true)
}

func (c *Coordinator) EnsureParticipants(ctx context.Context, tournamentID string) error {
	if c.Status(ParticipantsKey(tournamentID)).State != NotLoaded {
		return nil
	}
	return c.SyncParticipantsOnly(ctx, tournamentID, false)
}

func (c *Coordinator) RefreshParticipants(ctx context.Context, tournamentID string) error {
	return c.SyncParticipantsOnly(ctx, tournamentID, true)
}

func (c *Coordinator) EnsureEventDetails(ctx context.Context, tournamentID, eventID string) error {
	if c.Status(EventDetailsKey(tournamentID, eventID)).State != NotLoaded {
		return nil
	}
	return c.SyncEventDetails(ctx, tournamentID, eventID, false)
}

func (c *Coordinator) RefreshEventDetails(ctx context.Context, tournamentID, eventID string) error {
	return c.SyncEventDetails(ctx, tournamentID, eventID, true)
}

func (c *Coordinator) EnsureEventTypes(ctx context.Context) error {
	if c.Status(EventTypesKey).State != NotLoaded {
		return nil
	}
	return c.SyncEventTypes(ctx, false)
}

// RefreshAll force-refreshes the event type catalog and, for every cached
// tournament, its events, participants and the details of each event. A
// failing fragment does not stop the others; all failures are returned joined.
func (c *Coordinator) RefreshAll(ctx context.Context) error {
	var (
		mu   sync.Mutex
		errs []error
	)
	collect := func(err error) {
		if err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}
	}

	collect(c.SyncEventTypes(ctx, true))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for _, tid := range c.store.TournamentIDs() {
		tid := tid
		g.Go(func() error {
			collect(c.SyncEventsOnly(ctx, tid, true))
			collect(c.SyncParticipantsOnly(ctx, tid, true))
			return nil
		})
	}
	_ = g.Wait()

	var details errgroup.Group
	details.SetLimit(c.concurrency)
	for _, tid := range c.store.TournamentIDs() {
		tid := tid
		t, ok := c.store.GetTournament(tid)
		if !ok {
			continue
		}
		for _, e := range t.Events {
			e := e
			details.Go(func() error {
				collect(c.SyncEventDetails(ctx, tid, e.Id, true))
				return nil
			})
		}
	}
	_ = details.Wait()

	if len(errs) > 0 {
		c.log.Warn("Refresh finished with %d failed fragments", len(errs))
	}
	return errors.Join(errs...)
}
