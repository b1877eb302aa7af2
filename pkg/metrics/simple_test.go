package metrics

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncCounters(t *testing.T) {
	r := NewRegistry()

	r.SyncStarted("events")
	r.SyncDeduplicated("events")
	r.SyncFinished("events", 30*time.Millisecond, nil)
	r.SyncStarted("events")
	r.SyncFinished("events", 2*time.Second, errors.New("502 bad gateway"))

	assert.Equal(t, int64(2), r.Count("events", Started))
	assert.Equal(t, int64(1), r.Count("events", Deduplicated))
	assert.Equal(t, int64(1), r.Count("events", Succeeded))
	assert.Equal(t, int64(1), r.Count("events", Failed))
	assert.Zero(t, r.Count("participants", Started))

	s := r.Snapshot()
	assert.Equal(t, int64(1), s.SyncDurationBuckets["events"]["le_50ms"])
	assert.Equal(t, int64(1), s.SyncDurationBuckets["events"]["le_2500ms"])
	assert.Equal(t, "502 bad gateway", s.SyncLastError["events"])
	assert.InDelta(t, 1015.0, s.SyncAverageLatencyMs["events"], 0.001)
}

func TestBucketLabel(t *testing.T) {
	assert.Equal(t, "le_10ms", bucketLabel(0))
	assert.Equal(t, "le_100ms", bucketLabel(100*time.Millisecond))
	assert.Equal(t, "gt_5000ms", bucketLabel(6*time.Second))
}

func TestInstrumentAndStatsHandler(t *testing.T) {
	r := NewRegistry()
	h := r.Instrument(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/missing" {
			http.NotFound(w, req)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	for _, path := range []string{"/", "/", "/missing"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	rec := httptest.NewRecorder()
	r.StatsHandler(rec, httptest.NewRequest(http.MethodGet, StatsPath, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var s Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.Equal(t, int64(3), s.TotalRequests)
	assert.Equal(t, int64(1), s.TotalErrors)
	assert.Equal(t, int64(2), s.RequestsByMethodAndStatus["GET"]["200"])
	assert.Equal(t, int64(1), s.RequestsByMethodAndStatus["GET"]["404"])
	assert.Equal(t, int64(3), s.RequestsPerMinuteLast10m[0])
}

func TestRequestsPerMinuteRingShifts(t *testing.T) {
	r := NewRegistry()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	r.recordRequest("GET", 200, time.Millisecond, base)
	r.recordRequest("GET", 200, time.Millisecond, base.Add(2*time.Minute))
	r.recordRequest("GET", 200, time.Millisecond, base.Add(2*time.Minute))

	s := r.Snapshot()
	assert.Equal(t, []int64{2, 0, 1, 0, 0, 0, 0, 0, 0, 0}, s.RequestsPerMinuteLast10m)

	r.recordRequest("GET", 200, time.Millisecond, base.Add(30*time.Minute))
	s = r.Snapshot()
	assert.Equal(t, []int64{1, 0, 0, 0, 0, 0, 0, 0, 0, 0}, s.RequestsPerMinuteLast10m)
}

func TestEnvHandlerOnlyTouchesPrefixedVars(t *testing.T) {
	t.Setenv("FIT_SCHEDULER_CRON", "*/15 * * * *")
	t.Setenv("FIT_API_TOKEN", "secret")

	reloaded := 0
	SetReloadCallback(func() error { reloaded++; return nil })
	defer SetReloadCallback(nil)

	rec := httptest.NewRecorder()
	EnvHandler(rec, httptest.NewRequest(http.MethodGet, EnvPath, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		EnvVars map[string]string `json:"env_vars"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "*/15 * * * *", got.EnvVars["FIT_SCHEDULER_CRON"])
	assert.Equal(t, "***", got.EnvVars["FIT_API_TOKEN"])

	rec = httptest.NewRecorder()
	EnvHandler(rec, httptest.NewRequest(http.MethodPost, EnvPath, strings.NewReader(`{"PATH":"/tmp"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, reloaded)

	rec = httptest.NewRecorder()
	EnvHandler(rec, httptest.NewRequest(http.MethodPost, EnvPath, strings.NewReader(`{"FIT_SCHEDULER_CRON":"0 * * * *"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, reloaded)
}
