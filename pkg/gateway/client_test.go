package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timoknapp/fitness-tournament-tracker/pkg/models"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL+"/api", 2*time.Second, staticToken("tok-123"))
	require.NoError(t, err)
	return c
}

func TestNewClientRejectsRelativeURL(t *testing.T) {
	_, err := NewClient("localhost", time.Second, nil)
	assert.Error(t, err)
}

func TestListEventsDecodesMixedIDsAndMissingFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/events/get", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[
			{"id": 7, "name": "Pull-up Max", "event_type": "Strength", "participant_ids": [1, "2"]},
			{"id": "e-2", "name": "Row 2k", "divisions": []}
		]`)
	})

	events, err := c.ListEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, ID("7"), events[0].Id)
	assert.Equal(t, "Strength", *events[0].EventType)
	assert.Nil(t, events[0].Date)
	assert.Nil(t, events[0].Divisions)
	assert.Equal(t, []ID{"1", "2"}, events[0].ParticipantIds)

	assert.NotNil(t, events[1].Divisions)
	assert.Empty(t, events[1].Divisions)
}

func TestListAcceptsDataEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data": [{"id": 1, "name": "Alice", "weight": 60}]}`)
	})

	participants, err := c.ListParticipants(context.Background())
	require.NoError(t, err)
	require.Len(t, participants, 1)
	assert.Equal(t, "Alice", *participants[0].Name)
	assert.Equal(t, 60.0, *participants[0].Weight)
}

func TestCreateParticipantSendsPatchAndTournament(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/participants/create", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Alice", body["name"])
		assert.Equal(t, "t-1", body["tournament_id"])
		assert.NotContains(t, body, "phone")
		_, _ = io.WriteString(w, `{"id": 42}`)
	})

	name := "Alice"
	id, err := c.CreateParticipant(context.Background(), "t-1", models.ParticipantPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "42", id)
}

func TestEventWrites(t *testing.T) {
	in := EventInput{TournamentId: "t-1", Name: "Row 2k", EventType: "Endurance", Metrics: []string{"time"}}
	tests := []struct {
		name     string
		method   string
		path     string
		response string
		call     func(c *Client) (string, error)
		want     string
		wantErr  bool
	}{
		{
			name:     "create",
			method:   http.MethodPost,
			path:     "/api/events/create",
			response: `{"id": 9}`,
			call:     func(c *Client) (string, error) { return c.CreateEvent(context.Background(), in) },
			want:     "9",
		},
		{
			name:     "create without id",
			method:   http.MethodPost,
			path:     "/api/events/create",
			response: `{}`,
			call:     func(c *Client) (string, error) { return c.CreateEvent(context.Background(), in) },
			wantErr:  true,
		},
		{
			name:   "update",
			method: http.MethodPut,
			path:   "/api/events/update/e-2",
			call: func(c *Client) (string, error) {
				return "", c.UpdateEvent(context.Background(), "e-2", in)
			},
		},
		{
			name:   "delete",
			method: http.MethodDelete,
			path:   "/api/events/delete/e-2",
			call: func(c *Client) (string, error) {
				return "", c.DeleteEvent(context.Background(), "e-2")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.method, r.Method)
				assert.Equal(t, tt.path, r.URL.Path)
				assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
				if tt.method != http.MethodDelete {
					var body map[string]any
					assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
					assert.Equal(t, "Row 2k", body["name"])
					assert.Equal(t, "Endurance", body["event_type"])
					assert.Equal(t, "t-1", body["tournament_id"])
				}
				if tt.response == "" {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				_, _ = io.WriteString(w, tt.response)
			})

			got, err := tt.call(c)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetMetricsQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/activity/get_metrics/event_id/e1", r.URL.Path)
		assert.Equal(t, "p1", r.URL.Query().Get("participant_id"))
		assert.Equal(t, "reps", r.URL.Query().Get("event_type"))
		_, _ = io.WriteString(w, `[{"id": 1, "event_id": "e1", "participant_id": "p1", "reps": 12}]`)
	})

	records, err := c.GetMetrics(context.Background(), "e1", "p1", "reps")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 12, *records[0].Reps)
}

func TestLoginOmitsBearer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"access_token": "new-token", "token_type": "bearer"}`)
	})

	resp, err := c.Login(context.Background(), "coach@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "new-token", resp.AccessToken)
}

func TestListEventTypesAcceptsStringsAndObjects(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `["reps", {"id": 3, "name": "Deadlift", "category": "Strength", "metrics": ["weight"]}]`)
	})

	types, err := c.ListEventTypes(context.Background())
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, models.EventType{Id: "reps", Name: "reps"}, types[0])
	assert.Equal(t, "3", types[1].Id)
	assert.Equal(t, []string{"weight"}, types[1].Metrics)
}

func TestRemoteErrors(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		status      int
		body        string
		wantMessage string
	}{
		{
			name:        "json detail",
			contentType: "application/json",
			status:      http.StatusNotFound,
			body:        `{"detail": "Participant not found"}`,
			wantMessage: "Participant not found",
		},
		{
			name:        "validation list",
			contentType: "application/json",
			status:      http.StatusUnprocessableEntity,
			body:        `{"detail": [{"loc": ["body", "name"], "msg": "field required"}]}`,
			wantMessage: "field required",
		},
		{
			name:        "proxy html page",
			contentType: "text/html",
			status:      http.StatusBadGateway,
			body:        "<html><head><title>502 Bad Gateway</title></head><body><h1>Bad</h1></body></html>",
			wantMessage: "502 Bad Gateway",
		},
		{
			name:        "plain text",
			contentType: "text/plain",
			status:      http.StatusInternalServerError,
			body:        "  something\n\tbroke  ",
			wantMessage: "something broke",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.GetParticipant(context.Background(), "p1")
			require.Error(t, err)
			assert.True(t, IsStatus(err, tt.status))

			var re *RemoteError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.wantMessage, re.Message)
			assert.Equal(t, "/participants/get/p1", re.Path)
		})
	}
}
