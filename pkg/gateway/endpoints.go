package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/timoknapp/fitness-tournament-tracker/pkg/models"
)

// EventGateway covers the /events endpoints.
type EventGateway interface {
	ListEvents(ctx context.Context) ([]RemoteEvent, error)
	GetEvent(ctx context.Context, id string) (RemoteEvent, error)
	CreateEvent(ctx context.Context, in EventInput) (string, error)
	UpdateEvent(ctx context.Context, id string, in EventInput) error
	DeleteEvent(ctx context.Context, id string) error
	ListEventTypes(ctx context.Context) ([]models.EventType, error)
	EventsByParticipant(ctx context.Context, participantID string) ([]RemoteEvent, error)
}

// ParticipantGateway covers the /participants endpoints.
type ParticipantGateway interface {
	ListParticipants(ctx context.Context) ([]RemoteParticipant, error)
	GetParticipant(ctx context.Context, id string) (RemoteParticipant, error)
	CreateParticipant(ctx context.Context, tournamentID string, in models.ParticipantPatch) (string, error)
	UpdateParticipant(ctx context.Context, id string, in models.ParticipantPatch) error
	ParticipantsByEvent(ctx context.Context, eventID string) ([]RemoteParticipant, error)
}

// ActivityGateway covers the /activity endpoints.
type ActivityGateway interface {
	GetMetrics(ctx context.Context, eventID, participantID, eventType string) ([]ActivityRecord, error)
	AddActivity(ctx context.Context, in ActivityInput) (ActivityRecord, error)
	UpdateActivity(ctx context.Context, in ActivityInput) error
}

type Gateway interface {
	EventGateway
	ParticipantGateway
	ActivityGateway
}

const loginPath = "/auth/login"

var _ Gateway = (*Client)(nil)

func (c *Client) getList(ctx context.Context, path string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.do(ctx, http.MethodGet, path, nil, nil, &raw)
	return raw, err
}

func (c *Client) ListEvents(ctx context.Context) ([]RemoteEvent, error) {
	raw, err := c.getList(ctx, "/events/get")
	if err != nil {
		return nil, err
	}
	return decodeList[RemoteEvent](raw)
}

func (c *Client) GetEvent(ctx context.Context, id string) (RemoteEvent, error) {
	var out RemoteEvent
	err := c.do(ctx, http.MethodGet, "/events/get/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

func (c *Client) CreateEvent(ctx context.Context, in EventInput) (string, error) {
	var out createdResponse
	if err := c.do(ctx, http.MethodPost, "/events/create", nil, in, &out); err != nil {
		return "", err
	}
	if out.Id == "" {
		return "", fmt.Errorf("POST /events/create: response carried no id")
	}
	return out.Id.String(), nil
}

func (c *Client) UpdateEvent(ctx context.Context, id string, in EventInput) error {
	return c.do(ctx, http.MethodPut, "/events/update/"+url.PathEscape(id), nil, in, nil)
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/events/delete/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) ListEventTypes(ctx context.Context) ([]models.EventType, error) {
	raw, err := c.getList(ctx, "/events/list_event_type")
	if err != nil {
		return nil, err
	}
	items, err := decodeList[remoteEventType](raw)
	if err != nil {
		return nil, err
	}
	out := make([]models.EventType, 0, len(items))
	for _, it := range items {
		out = append(out, models.EventType{
			Id:       it.Id.String(),
			Name:     it.Name,
			Category: it.Category,
			Metrics:  it.Metrics,
		})
	}
	return out, nil
}

func (c *Client) EventsByParticipant(ctx context.Context, participantID string) ([]RemoteEvent, error) {
	raw, err := c.getList(ctx, "/events/by_participant/"+url.PathEscape(participantID))
	if err != nil {
		return nil, err
	}
	return decodeList[RemoteEvent](raw)
}

func (c *Client) ListParticipants(ctx context.Context) ([]RemoteParticipant, error) {
	raw, err := c.getList(ctx, "/participants/get")
	if err != nil {
		return nil, err
	}
	return decodeList[RemoteParticipant](raw)
}

func (c *Client) GetParticipant(ctx context.Context, id string) (RemoteParticipant, error) {
	var out RemoteParticipant
	err := c.do(ctx, http.MethodGet, "/participants/get/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

func (c *Client) CreateParticipant(ctx context.Context, tournamentID string, in models.ParticipantPatch) (string, error) {
	var out createdResponse
	body := participantCreate{ParticipantPatch: in, TournamentId: tournamentID}
	if err := c.do(ctx, http.MethodPost, "/participants/create", nil, body, &out); err != nil {
		return "", err
	}
	if out.Id == "" {
		return "", fmt.Errorf("POST /participants/create: response carried no id")
	}
	return out.Id.String(), nil
}

func (c *Client) UpdateParticipant(ctx context.Context, id string, in models.ParticipantPatch) error {
	return c.do(ctx, http.MethodPut, "/participants/update/"+url.PathEscape(id), nil, in, nil)
}

func (c *Client) ParticipantsByEvent(ctx context.Context, eventID string) ([]RemoteParticipant, error) {
	raw, err := c.getList(ctx, "/participants/by_event/"+url.PathEscape(eventID))
	if err != nil {
		return nil, err
	}
	return decodeList[RemoteParticipant](raw)
}

func (c *Client) GetMetrics(ctx context.Context, eventID, participantID, eventType string) ([]ActivityRecord, error) {
	q := url.Values{}
	q.Set("participant_id", participantID)
	if eventType != "" {
		q.Set("event_type", eventType)
	}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/activity/get_metrics/event_id/"+url.PathEscape(eventID), q, nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[ActivityRecord](raw)
}

func (c *Client) AddActivity(ctx context.Context, in ActivityInput) (ActivityRecord, error) {
	var out ActivityRecord
	err := c.do(ctx, http.MethodPost, "/activity/add_activity/", nil, in, &out)
	return out, err
}

func (c *Client) UpdateActivity(ctx context.Context, in ActivityInput) error {
	return c.do(ctx, http.MethodPut, "/activity/update_activity/", nil, in, nil)
}

func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	var out LoginResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, loginPath, nil, body, &out); err != nil {
		return out, err
	}
	if out.AccessToken == "" {
		return out, fmt.Errorf("POST /auth/login: response carried no access token")
	}
	return out, nil
}

func (c *Client) Me(ctx context.Context) (User, error) {
	var out User
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &out)
	return out, err
}
