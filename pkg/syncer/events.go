package syncer

import (
	"context"
	"fmt"
	"hash/fnv"
	"path"
	"sort"
	"strconv"
	"time"

	"github.com/timoknapp/fitness-tournament-tracker/pkg/gateway"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/models"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/store"
	"golang.org/x/sync/errgroup"
)

// SyncEventsOnly replaces the tournament's event list with the remote one.
// Fields the remote copy omits keep their cached value.
func (c *Coordinator) SyncEventsOnly(ctx context.Context, tournamentID string, force bool) error {
	return c.run(ctx, scopeEvents, EventsKey(tournamentID), force, func(ctx context.Context) error {
		if !c.store.HasTournament(tournamentID) {
			return store.ErrTournamentNotFound
		}
		remote, err := c.remote.ListEvents(ctx)
		if err != nil {
			return err
		}
		upserts := make([]store.EventUpsert, 0, len(remote))
		for _, r := range remote {
			if !belongsTo(r.TournamentId, tournamentID) {
				continue
			}
			upserts = append(upserts, store.EventUpsert{Id: r.Id.String(), Merge: c.mergeEvent(r)})
		}
		if !c.store.ReplaceEvents(tournamentID, upserts) {
			return store.ErrTournamentNotFound
		}
		c.log.Info("Synced %d events for tournament %s", len(upserts), tournamentID)
		return nil
	})
}

// SyncEventDetails refreshes one event, its registered participants and every
// participant's recorded activity. Nothing is committed unless all calls succeed.
func (c *Coordinator) SyncEventDetails(ctx context.Context, tournamentID, eventID string, force bool) error {
	return c.run(ctx, scopeEventDetails, EventDetailsKey(tournamentID, eventID), force, func(ctx context.Context) error {
		if !c.store.HasTournament(tournamentID) {
			return store.ErrTournamentNotFound
		}
		event, err := c.remote.GetEvent(ctx, eventID)
		if err != nil {
			return err
		}
		participants, err := c.remote.ParticipantsByEvent(ctx, eventID)
		if err != nil {
			return err
		}

		eventType := ""
		if event.EventType != nil {
			eventType = *event.EventType
		}
		records := make([][]gateway.ActivityRecord, len(participants))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.concurrency)
		for i, p := range participants {
			i, p := i, p
			g.Go(func() error {
				recs, err := c.remote.GetMetrics(gctx, eventID, p.Id.String(), eventType)
				if err != nil {
					return fmt.Errorf("metrics of participant %s: %w", p.Id, err)
				}
				records[i] = recs
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		return c.commitEventDetails(tournamentID, event, participants, records)
	})
}

func (c *Coordinator) commitEventDetails(tournamentID string, event gateway.RemoteEvent, participants []gateway.RemoteParticipant, records [][]gateway.ActivityRecord) error {
	eventID := event.Id.String()
	ids := make([]string, 0, len(participants))
	upserts := make([]store.ParticipantUpsert, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.Id.String())
		upserts = append(upserts, store.ParticipantUpsert{Id: p.Id.String(), Merge: mergeParticipant(p)})
	}
	if !c.store.UpsertParticipants(tournamentID, upserts) {
		return store.ErrTournamentNotFound
	}

	if !c.store.UpsertEvent(tournamentID, store.EventUpsert{Id: eventID, Merge: c.mergeEvent(event)}) {
		return store.ErrTournamentNotFound
	}
	// the by-event listing is authoritative for registrations
	if !c.store.SetEventParticipants(tournamentID, eventID, ids) {
		return store.ErrEventNotFound
	}

	now := c.clock.Now()
	for i, pid := range ids {
		patch, attempts, videos := activityToData(records[i], now)
		if patch.IsEmpty() && len(attempts) == 0 && len(videos) == 0 {
			continue
		}
		c.store.MergeEventParticipantData(tournamentID, eventID, pid, patch, attempts, videos)
	}
	if err := c.details.mark(tournamentID, eventID, now); err != nil {
		c.log.Warn("Failed to persist detail log: %v", err)
	}
	c.log.Info("Synced event %s details: %d participants", eventID, len(ids))
	return nil
}

// mergeEvent applies the fields present on r over the cached event.
func (c *Coordinator) mergeEvent(r gateway.RemoteEvent) store.EventMerge {
	return func(local models.Event, found bool) models.Event {
		e := local
		if !found {
			e = models.Event{Status: models.EventUpcoming, Divisions: []string{}, Metrics: []string{}}
		}
		if r.Name != nil {
			e.Name = *r.Name
		}
		if r.Date != nil {
			e.Date = *r.Date
		}
		if r.EventType != nil {
			e.Category = *r.EventType
		}
		if r.Divisions != nil {
			e.Divisions = append([]string{}, r.Divisions...)
		}
		if r.Metrics != nil {
			e.Metrics = append([]string{}, r.Metrics...)
		} else if !found {
			if t, ok := c.types.Lookup(e.Category); ok {
				e.Metrics = t.Metrics
			}
		}
		if r.Status != nil {
			if s, ok := parseEventStatus(*r.Status); ok {
				e.Status = s
			}
		}
		if r.ParticipantIds != nil {
			e.ParticipantIds = make([]string, 0, len(r.ParticipantIds))
			for _, id := range r.ParticipantIds {
				e.ParticipantIds = append(e.ParticipantIds, id.String())
			}
		}
		return e
	}
}

func parseEventStatus(s string) (models.EventStatus, bool) {
	switch st := models.EventStatus(s); st {
	case models.EventUpcoming, models.EventActive, models.EventCompleted:
		return st, true
	}
	return "", false
}

// belongsTo treats records without a tournament reference as part of every tournament.
func belongsTo(id *gateway.ID, tournamentID string) bool {
	return id == nil || id.String() == "" || id.String() == tournamentID
}

// activityToData folds activity records, oldest first, into a result patch plus
// attempts and videos keyed by the remote record id.
func activityToData(records []gateway.ActivityRecord, now time.Time) (models.DataPatch, []models.Attempt, []models.Video) {
	sorted := append([]gateway.ActivityRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return recordTime(sorted[i], now).Before(recordTime(sorted[j], now))
	})

	var patch models.DataPatch
	attempts := make([]models.Attempt, 0, len(sorted))
	var videos []models.Video
	unnamed := make(map[string]int)
	for _, r := range sorted {
		at := recordTime(r, now)
		id := recordID(r, unnamed)
		data := map[string]string{}
		kind := models.AttemptNote
		if r.Time != nil {
			patch.Time = r.Time
			data["time"] = *r.Time
			kind = models.AttemptMetric
		}
		if r.Reps != nil {
			patch.Reps = r.Reps
			data["reps"] = strconv.Itoa(*r.Reps)
			kind = models.AttemptMetric
		}
		if r.Weight != nil {
			patch.Weight = r.Weight
			data["weight"] = strconv.FormatFloat(*r.Weight, 'f', -1, 64)
			kind = models.AttemptMetric
		}
		if r.VideoURL != "" {
			data["uri"] = r.VideoURL
			videos = append(videos, models.Video{Id: id, URI: r.VideoURL, Name: path.Base(r.VideoURL), UploadedAt: at})
			if kind == models.AttemptNote {
				kind = models.AttemptVideo
			}
		}
		if r.Note != "" {
			data["note"] = r.Note
		}
		if r.Id.String() != "" {
			data["activityId"] = r.Id.String()
		}
		attempts = append(attempts, models.Attempt{Id: id, Timestamp: at, Type: kind, Data: data})
	}
	return patch, attempts, videos
}

func recordTime(r gateway.ActivityRecord, fallback time.Time) time.Time {
	if r.CreatedAt != nil {
		return *r.CreatedAt
	}
	return fallback
}

// recordID is remoteID of the backend id. Records without one get an id derived
// from their content plus an occurrence counter, so identical records stay
// distinct and a re-sync yields the same ids.
func recordID(r gateway.ActivityRecord, seen map[string]int) string {
	if id := r.Id.String(); id != "" {
		return remoteID(id)
	}
	h := fnv.New64a()
	fields := []string{r.EventId.String(), r.ParticipantId.String(), r.EventType, r.VideoURL, r.Note}
	if r.CreatedAt != nil {
		fields = append(fields, r.CreatedAt.UTC().Format(time.RFC3339Nano))
	}
	if r.Time != nil {
		fields = append(fields, "t="+*r.Time)
	}
	if r.Reps != nil {
		fields = append(fields, "r="+strconv.Itoa(*r.Reps))
	}
	if r.Weight != nil {
		fields = append(fields, "w="+strconv.FormatFloat(*r.Weight, 'f', -1, 64))
	}
	for _, f := range fields {
		_, _ = h.Write([]byte(f))
		_, _ = h.Write([]byte{0})
	}
	key := strconv.FormatUint(h.Sum64(), 36)
	seen[key]++
	return remoteID(fmt.Sprintf("h%s-%d", key, seen[key]))
}

// remoteID prefixes backend ids so they never collide with client-generated ones.
func remoteID(id string) string {
	return "remote-" + id
}
