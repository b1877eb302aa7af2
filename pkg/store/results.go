package store

import (
	"github.com/timoknapp/fitness-tournament-tracker/pkg/models"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/util"
)

// VideoInput describes a recorded video to attach to a participant's result.
type VideoInput struct {
	URI  string
	Name string
}

// UpdateEventParticipantData merges patch into the participant's result for the
// event, creating the record if needed. The participant must be registered for
// the event.
func (s *Store) UpdateEventParticipantData(tournamentID, eventID, participantID string, patch models.DataPatch) bool {
	return s.MergeEventParticipantData(tournamentID, eventID, participantID, patch, nil, nil)
}

// AddEventParticipantVideo appends a video to the participant's result and returns its id.
func (s *Store) AddEventParticipantVideo(tournamentID, eventID, participantID string, video VideoInput) (string, bool) {
	v := models.Video{
		Id:         util.NewID(s.clock.Now()),
		URI:        video.URI,
		Name:       video.Name,
		UploadedAt: s.clock.Now(),
	}
	if !s.MergeEventParticipantData(tournamentID, eventID, participantID, models.DataPatch{}, nil, []models.Video{v}) {
		return "", false
	}
	return v.Id, true
}

// AddEventParticipantAttempt appends an entry to the participant's activity log and returns its id.
func (s *Store) AddEventParticipantAttempt(tournamentID, eventID, participantID string, kind models.AttemptType, data map[string]string) (string, bool) {
	a := models.Attempt{
		Id:        util.NewID(s.clock.Now()),
		Timestamp: s.clock.Now(),
		Type:      kind,
		Data:      data,
	}
	if !s.MergeEventParticipantData(tournamentID, eventID, participantID, models.DataPatch{}, []models.Attempt{a.Clone()}, nil) {
		return "", false
	}
	return a.Id, true
}

// MergeEventParticipantData applies patch and appends attempts and videos whose
// ids are not yet present. Existing attempts and videos are never modified.
func (s *Store) MergeEventParticipantData(tournamentID, eventID, participantID string, patch models.DataPatch, attempts []models.Attempt, videos []models.Video) bool {
	s.mu.Lock()
	tn, e, ok := s.eventLocked(tournamentID, eventID)
	if !ok || !util.ContainsString(e.ParticipantIds, participantID) {
		s.mu.Unlock()
		return false
	}
	now := s.clock.Now()
	k := dataKey{tournamentID, eventID, participantID}
	d, ok := s.data[k]
	if !ok {
		d = &models.EventParticipantData{
			Videos:    []models.Video{},
			Attempts:  []models.Attempt{},
			CreatedAt: now,
		}
		s.putDataLocked(k, d)
	}
	patch.Apply(d)
	d.Attempts = appendNewAttempts(d.Attempts, attempts)
	d.Videos = appendNewVideos(d.Videos, videos)
	d.UpdatedAt = now
	e.UpdatedAt = now
	s.touchTournamentLocked(tn)
	s.mu.Unlock()

	s.notify(Change{Kind: ResultChanged, TournamentId: tournamentID, EventId: eventID, ParticipantId: participantID})
	return true
}

func (s *Store) GetEventParticipantData(tournamentID, eventID, participantID string) (models.EventParticipantData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.data[dataKey{tournamentID, eventID, participantID}]
	if !ok {
		return models.EventParticipantData{}, false
	}
	return d.Clone(), true
}

func appendNewAttempts(existing, incoming []models.Attempt) []models.Attempt {
	if len(incoming) == 0 {
		return existing
	}
	seen := make(map[string]struct{}, len(existing))
	for _, a := range existing {
		seen[a.Id] = struct{}{}
	}
	for _, a := range incoming {
		if _, dup := seen[a.Id]; dup {
			continue
		}
		seen[a.Id] = struct{}{}
		existing = append(existing, a.Clone())
	}
	return existing
}

func appendNewVideos(existing, incoming []models.Video) []models.Video {
	if len(incoming) == 0 {
		return existing
	}
	seen := make(map[string]struct{}, len(existing))
	for _, v := range existing {
		seen[v.Id] = struct{}{}
	}
	for _, v := range incoming {
		if _, dup := seen[v.Id]; dup {
			continue
		}
		seen[v.Id] = struct{}{}
		existing = append(existing, v)
	}
	return existing
}
