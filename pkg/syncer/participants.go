package syncer

import (
	"context"

	"github.com/timoknapp/fitness-tournament-tracker/pkg/gateway"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/models"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/store"
)

// SyncParticipantsOnly replaces the tournament's participant list with the remote one.
// Participants that disappeared remotely are removed from every event as well.
func (c *Coordinator) SyncParticipantsOnly(ctx context.Context, tournamentID string, force bool) error {
	return c.run(ctx, scopeParticipants, ParticipantsKey(tournamentID), force, func(ctx context.Context) error {
		if !c.store.HasTournament(tournamentID) {
			return store.ErrTournamentNotFound
		}
		remote, err := c.remote.ListParticipants(ctx)
		if err != nil {
			return err
		}
		upserts := make([]store.ParticipantUpsert, 0, len(remote))
		for _, r := range remote {
			if !belongsTo(r.TournamentId, tournamentID) {
				continue
			}
			upserts = append(upserts, store.ParticipantUpsert{Id: r.Id.String(), Merge: mergeParticipant(r)})
		}
		if !c.store.ReplaceParticipants(tournamentID, upserts) {
			return store.ErrTournamentNotFound
		}
		c.log.Info("Synced %d participants for tournament %s", len(upserts), tournamentID)
		return nil
	})
}

// SyncParticipantDetails refreshes one participant and links it into the cached
// events the backend lists for it. Events not cached locally are skipped.
func (c *Coordinator) SyncParticipantDetails(ctx context.Context, tournamentID, participantID string, force bool) error {
	return c.run(ctx, scopeParticipantDetails, ParticipantDetailsKey(tournamentID, participantID), force, func(ctx context.Context) error {
		if !c.store.HasTournament(tournamentID) {
			return store.ErrTournamentNotFound
		}
		p, err := c.remote.GetParticipant(ctx, participantID)
		if err != nil {
			return err
		}
		events, err := c.remote.EventsByParticipant(ctx, participantID)
		if err != nil {
			return err
		}

		ok := c.store.UpsertParticipants(tournamentID, []store.ParticipantUpsert{
			{Id: participantID, Merge: mergeParticipant(p)},
		})
		if !ok {
			return store.ErrTournamentNotFound
		}
		linked := 0
		for _, e := range events {
			if c.store.AddEventParticipant(tournamentID, e.Id.String(), participantID) {
				linked++
			} else {
				c.log.Debug("Event %s of participant %s is not cached, skipping", e.Id, participantID)
			}
		}
		c.log.Debug("Synced participant %s, linked to %d events", participantID, linked)
		return nil
	})
}

// mergeParticipant applies the fields present on r over the cached participant.
func mergeParticipant(r gateway.RemoteParticipant) store.ParticipantMerge {
	patch := models.ParticipantPatch{
		Name:     r.Name,
		Age:      r.Age,
		Gender:   r.Gender,
		Division: r.Division,
		Weight:   r.Weight,
		Phone:    r.Phone,
		Country:  r.Country,
		State:    r.State,
	}
	return func(local models.Participant, _ bool) models.Participant {
		patch.Apply(&local)
		return local
	}
}

// SyncEventTypes refreshes the event type catalog.
func (c *Coordinator) SyncEventTypes(ctx context.Context, force bool) error {
	return c.run(ctx, scopeEventTypes, EventTypesKey, force, func(ctx context.Context) error {
		types, err := c.remote.ListEventTypes(ctx)
		if err != nil {
			return err
		}
		if err := c.types.replace(types); err != nil {
			c.log.Warn("Failed to persist event types: %v", err)
		}
		c.log.Info("Synced %d event types", len(types))
		return nil
	})
}
