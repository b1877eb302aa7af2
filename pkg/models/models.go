package models

import "time"

type TournamentStatus string

const (
	TournamentUpcoming  TournamentStatus = "upcoming"
	TournamentActive    TournamentStatus = "active"
	TournamentCompleted TournamentStatus = "completed"
)

type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventActive    EventStatus = "active"
	EventCompleted EventStatus = "completed"
)

// AttemptType classifies an entry of the per-event activity log.
type AttemptType string

const (
	AttemptMetric AttemptType = "metric"
	AttemptVideo  AttemptType = "video"
	AttemptNote   AttemptType = "note"
)

type Tournament struct {
	Id           string           `json:"id"`
	Name         string           `json:"name"`
	Date         string           `json:"date"` // ISO date, e.g. 2025-06-01
	Description  string           `json:"description,omitempty"`
	Status       TournamentStatus `json:"status"`
	Participants []Participant    `json:"participants"`
	Events       []Event          `json:"events"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

type Participant struct {
	Id        string    `json:"id"`
	Name      string    `json:"name"`
	Age       *int      `json:"age,omitempty"`
	Gender    string    `json:"gender,omitempty"`
	Division  string    `json:"division,omitempty"`
	Weight    *float64  `json:"weight,omitempty"` // kg
	Phone     string    `json:"phone,omitempty"`
	Country   string    `json:"country,omitempty"`
	State     string    `json:"state,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Event struct {
	Id              string                          `json:"id"`
	Name            string                          `json:"name"`
	Date            string                          `json:"date,omitempty"`
	Category        string                          `json:"category,omitempty"`
	Divisions       []string                        `json:"divisions"`
	Metrics         []string                        `json:"metrics"` // metric kinds: time, reps, weight
	ParticipantIds  []string                        `json:"participantIds"`
	ParticipantData map[string]EventParticipantData `json:"participantData"`
	Status          EventStatus                     `json:"status"`
	CreatedAt       time.Time                       `json:"createdAt"`
	UpdatedAt       time.Time                       `json:"updatedAt"`
}

// EventParticipantData is one participant's performance record within one event.
type EventParticipantData struct {
	Time      *string   `json:"time,omitempty"`
	Reps      *int      `json:"reps,omitempty"`
	Weight    *float64  `json:"weight,omitempty"`
	Videos    []Video   `json:"videos"`
	Attempts  []Attempt `json:"attempts"` // append-only
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Video struct {
	Id         string    `json:"id"`
	URI        string    `json:"uri"`
	Name       string    `json:"name"`
	UploadedAt time.Time `json:"uploadedAt"`
}

type Attempt struct {
	Id        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Type      AttemptType       `json:"type"`
	Data      map[string]string `json:"data,omitempty"`
}

// EventType is an entry of the remote event type catalog.
type EventType struct {
	Id       string   `json:"id"`
	Name     string   `json:"name"`
	Category string   `json:"category,omitempty"`
	Metrics  []string `json:"metrics,omitempty"`
}
