package syncer

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/timoknapp/fitness-tournament-tracker/pkg/gateway"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/models"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/store"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/util"
)

var ErrEmptyMetric = errors.New("metric carries no time, reps or weight")

// RecordMetric stores a new result on the backend and, once that succeeds,
// merges it into the participant's event data and appends a metric attempt.
// It returns the backend activity id.
func (c *Coordinator) RecordMetric(ctx context.Context, tournamentID, eventID, participantID string, patch models.DataPatch) (string, error) {
	event, err := c.registeredEvent(tournamentID, eventID, participantID)
	if err != nil {
		return "", err
	}
	if patch.IsEmpty() {
		return "", ErrEmptyMetric
	}

	rec, err := c.remote.AddActivity(ctx, activityInput("", eventID, participantID, event.Category, patch))
	if err != nil {
		return "", fmt.Errorf("record metric: %w", err)
	}

	activityID := rec.Id.String()
	attemptID := util.NewID(c.clock.Now())
	if activityID != "" {
		attemptID = remoteID(activityID)
	}
	if err := c.commitMetric(tournamentID, eventID, participantID, attemptID, activityID, patch); err != nil {
		return "", err
	}
	return activityID, nil
}

// UpdateMetric corrects an existing backend activity and mirrors the change locally.
// The correction is appended to the attempt log; earlier attempts stay as they were.
func (c *Coordinator) UpdateMetric(ctx context.Context, tournamentID, eventID, participantID, activityID string, patch models.DataPatch) error {
	event, err := c.registeredEvent(tournamentID, eventID, participantID)
	if err != nil {
		return err
	}
	if patch.IsEmpty() {
		return ErrEmptyMetric
	}

	if err := c.remote.UpdateActivity(ctx, activityInput(activityID, eventID, participantID, event.Category, patch)); err != nil {
		return fmt.Errorf("update metric %s: %w", activityID, err)
	}
	return c.commitMetric(tournamentID, eventID, participantID, util.NewID(c.clock.Now()), activityID, patch)
}

func (c *Coordinator) registeredEvent(tournamentID, eventID, participantID string) (models.Event, error) {
	if !c.store.HasTournament(tournamentID) {
		return models.Event{}, store.ErrTournamentNotFound
	}
	event, ok := c.store.GetEvent(tournamentID, eventID)
	if !ok {
		return models.Event{}, fmt.Errorf("event %s: %w", eventID, store.ErrEventNotFound)
	}
	if !util.ContainsString(event.ParticipantIds, participantID) {
		return models.Event{}, fmt.Errorf("participant %s is not registered for event %s: %w", participantID, eventID, store.ErrParticipantNotFound)
	}
	return event, nil
}

func (c *Coordinator) commitMetric(tournamentID, eventID, participantID, attemptID, activityID string, patch models.DataPatch) error {
	data := metricData(patch)
	if activityID != "" {
		data["activityId"] = activityID
	}
	attempt := models.Attempt{Id: attemptID, Timestamp: c.clock.Now(), Type: models.AttemptMetric, Data: data}
	if !c.store.MergeEventParticipantData(tournamentID, eventID, participantID, patch, []models.Attempt{attempt}, nil) {
		// removed locally while the remote call was in flight
		return fmt.Errorf("event %s: %w", eventID, store.ErrEventNotFound)
	}
	return nil
}

func activityInput(id, eventID, participantID, eventType string, patch models.DataPatch) gateway.ActivityInput {
	return gateway.ActivityInput{
		Id:            id,
		EventId:       eventID,
		ParticipantId: participantID,
		EventType:     eventType,
		Time:          patch.Time,
		Reps:          patch.Reps,
		Weight:        patch.Weight,
	}
}

func metricData(patch models.DataPatch) map[string]string {
	data := make(map[string]string, 3)
	if patch.Time != nil {
		data["time"] = *patch.Time
	}
	if patch.Reps != nil {
		data["reps"] = strconv.Itoa(*patch.Reps)
	}
	if patch.Weight != nil {
		data["weight"] = strconv.FormatFloat(*patch.Weight, 'f', -1, 64)
	}
	return data
}
