package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/timoknapp/fitness-tournament-tracker/pkg/models"
)

// ID decodes both JSON strings and numbers into a string id.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be string or number: %s", string(b))
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// RemoteEvent is the backend projection of an event. Pointer and slice fields are
// nil when the backend omitted them.
type RemoteEvent struct {
	Id             ID       `json:"id"`
	TournamentId   *ID      `json:"tournament_id,omitempty"`
	Name           *string  `json:"name,omitempty"`
	EventType      *string  `json:"event_type,omitempty"`
	Date           *string  `json:"date,omitempty"`
	Divisions      []string `json:"divisions,omitempty"`
	Metrics        []string `json:"metrics,omitempty"`
	Status         *string  `json:"status,omitempty"`
	ParticipantIds []ID     `json:"participant_ids,omitempty"`
}

type RemoteParticipant struct {
	Id           ID       `json:"id"`
	TournamentId *ID      `json:"tournament_id,omitempty"`
	Name         *string  `json:"name,omitempty"`
	Age          *int     `json:"age,omitempty"`
	Gender       *string  `json:"gender,omitempty"`
	Division     *string  `json:"division,omitempty"`
	Weight       *float64 `json:"weight,omitempty"`
	Phone        *string  `json:"phone,omitempty"`
	Country      *string  `json:"country,omitempty"`
	State        *string  `json:"state,omitempty"`
}

// EventInput is the create/update payload for events.
type EventInput struct {
	TournamentId string   `json:"tournament_id,omitempty"`
	Name         string   `json:"name"`
	EventType    string   `json:"event_type,omitempty"`
	Date         string   `json:"date,omitempty"`
	Divisions    []string `json:"divisions,omitempty"`
	Metrics      []string `json:"metrics,omitempty"`
}

type participantCreate struct {
	models.ParticipantPatch
	TournamentId string `json:"tournament_id,omitempty"`
}

// ActivityRecord is one stored metric/video/note entry for a participant in an event.
type ActivityRecord struct {
	Id            ID         `json:"id"`
	EventId       ID         `json:"event_id"`
	ParticipantId ID         `json:"participant_id"`
	EventType     string     `json:"event_type,omitempty"`
	Time          *string    `json:"time,omitempty"`
	Reps          *int       `json:"reps,omitempty"`
	Weight        *float64   `json:"weight,omitempty"`
	VideoURL      string     `json:"video_url,omitempty"`
	Note          string     `json:"note,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
}

type ActivityInput struct {
	Id            string   `json:"id,omitempty"`
	EventId       string   `json:"event_id"`
	ParticipantId string   `json:"participant_id"`
	EventType     string   `json:"event_type,omitempty"`
	Time          *string  `json:"time,omitempty"`
	Reps          *int     `json:"reps,omitempty"`
	Weight        *float64 `json:"weight,omitempty"`
	VideoURL      string   `json:"video_url,omitempty"`
	Note          string   `json:"note,omitempty"`
}

type createdResponse struct {
	Id ID `json:"id"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}

type User struct {
	Id    ID     `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// remoteEventType accepts either a bare name or an object.
type remoteEventType struct {
	Id       ID       `json:"id"`
	Name     string   `json:"name"`
	Category string   `json:"category,omitempty"`
	Metrics  []string `json:"metrics,omitempty"`
}

func (r *remoteEventType) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var name string
		if err := json.Unmarshal(b, &name); err != nil {
			return err
		}
		*r = remoteEventType{Id: ID(name), Name: name}
		return nil
	}
	type plain remoteEventType
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = remoteEventType(p)
	if r.Id == "" {
		r.Id = ID(r.Name)
	}
	return nil
}

// decodeList accepts a bare JSON array or an object wrapping it under "data".
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '[' {
		var out []T
		err := json.Unmarshal(raw, &out)
		return out, err
	}
	var env struct {
		Data []T `json:"data"`
	}
	err := json.Unmarshal(raw, &env)
	return env.Data, err
}
