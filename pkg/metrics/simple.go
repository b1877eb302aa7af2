package metrics

import (
	"expvar"
	"strconv"
	"sync"
	"time"
)

const (
	// Local diagnostics endpoints (bind them on 127.0.0.1 in your main)
	StatsPath     = "/stats"
	DebugVarsPath = "/debug/vars"
	EnvPath       = "/admin/env"
)

// Outcome of one sync attempt.
type Outcome string

const (
	Started      Outcome = "started"
	Deduplicated Outcome = "deduplicated"
	Succeeded    Outcome = "succeeded"
	Failed       Outcome = "failed"
)

// Registry counts sync activity per scope (events, participants, event_details, ...)
// and diagnostics HTTP requests.
type Registry struct {
	mu sync.Mutex

	startedAt time.Time

	// scope -> outcome -> count
	syncs map[string]map[Outcome]int64
	// scope -> bucketLabel -> count
	syncBuckets map[string]map[string]int64
	syncLatency map[string]time.Duration
	lastError   map[string]string

	totalReq     int64
	totalErr     int64
	totalLatency time.Duration
	// method -> statusCode -> count
	byMethodStatus map[string]map[int]int64

	// Newest minute is perMinute[0], oldest is perMinute[9]
	perMinute  [10]int64
	lastMinute time.Time
}

var (
	Default     = NewRegistry()
	publishOnce sync.Once
)

func NewRegistry() *Registry {
	return &Registry{
		startedAt:      time.Now(),
		syncs:          make(map[string]map[Outcome]int64),
		syncBuckets:    make(map[string]map[string]int64),
		syncLatency:    make(map[string]time.Duration),
		lastError:      make(map[string]string),
		byMethodStatus: make(map[string]map[int]int64),
	}
}

// Init publishes the Default registry on expvar. Call this once at process startup.
func Init() {
	publishOnce.Do(func() {
		r := Default
		expvar.Publish("fit_started_at", expvar.Func(func() any {
			return r.startedAt.Format(time.RFC3339)
		}))
		expvar.Publish("fit_uptime_seconds", expvar.Func(func() any {
			return int64(time.Since(r.startedAt).Seconds())
		}))
		expvar.Publish("fit_syncs_by_scope", expvar.Func(func() any {
			return r.Snapshot().Syncs
		}))
		expvar.Publish("fit_sync_duration_ms_buckets", expvar.Func(func() any {
			return r.Snapshot().SyncDurationBuckets
		}))
		expvar.Publish("fit_diag_requests_by_method_status", expvar.Func(func() any {
			return r.Snapshot().RequestsByMethodAndStatus
		}))
	})
}

func (r *Registry) count(scope string, o Outcome) {
	inner, ok := r.syncs[scope]
	if !ok {
		inner = make(map[Outcome]int64)
		r.syncs[scope] = inner
	}
	inner[o]++
}

func (r *Registry) SyncStarted(scope string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count(scope, Started)
}

func (r *Registry) SyncDeduplicated(scope string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count(scope, Deduplicated)
}

// SyncFinished records the outcome and latency of a sync that was started.
func (r *Registry) SyncFinished(scope string, d time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.count(scope, Failed)
		r.lastError[scope] = err.Error()
	} else {
		r.count(scope, Succeeded)
	}
	r.syncLatency[scope] += d
	if _, ok := r.syncBuckets[scope]; !ok {
		r.syncBuckets[scope] = make(map[string]int64)
	}
	r.syncBuckets[scope][bucketLabel(d)]++
}

// Count returns how many syncs of scope ended with o.
func (r *Registry) Count(scope string, o Outcome) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.syncs[scope][o]
}

func (r *Registry) recordRequest(method string, statusCode int, d time.Duration, now time.Time) {
	if method == "" {
		method = "UNKNOWN"
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.totalReq++
	if statusCode >= 400 {
		r.totalErr++
	}
	r.totalLatency += d

	if _, ok := r.byMethodStatus[method]; !ok {
		r.byMethodStatus[method] = make(map[int]int64)
	}
	r.byMethodStatus[method][statusCode]++

	// Requests-per-minute ring (newest-first)
	currMinute := now.Truncate(time.Minute)
	if r.lastMinute.IsZero() {
		r.lastMinute = currMinute
	}
	if delta := int(currMinute.Sub(r.lastMinute) / time.Minute); delta > 0 {
		if delta >= len(r.perMinute) {
			r.perMinute = [10]int64{}
		} else {
			copy(r.perMinute[delta:], r.perMinute[:len(r.perMinute)-delta])
			for i := 0; i < delta; i++ {
				r.perMinute[i] = 0
			}
		}
		r.lastMinute = currMinute
	}
	r.perMinute[0]++
}

// Stats is the JSON document served on StatsPath.
type Stats struct {
	StartedAt                 string                      `json:"started_at"`
	UptimeSeconds             int64                       `json:"uptime_seconds"`
	Syncs                     map[string]map[string]int64 `json:"syncs"`
	SyncAverageLatencyMs      map[string]float64          `json:"sync_avg_latency_ms"`
	SyncDurationBuckets       map[string]map[string]int64 `json:"sync_duration_ms_buckets"`
	SyncLastError             map[string]string           `json:"sync_last_error,omitempty"`
	TotalRequests             int64                       `json:"total_requests"`
	TotalErrors               int64                       `json:"total_errors"`
	AverageLatencyMs          float64                     `json:"avg_latency_ms"`
	RequestsPerMinuteLast10m  []int64                     `json:"requests_last_10m_newest_first"`
	RequestsByMethodAndStatus map[string]map[string]int64 `json:"requests_by_method_status"`
}

// Snapshot copies the registry into JSON-friendly maps.
func (r *Registry) Snapshot() Stats {
	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Stats{
		StartedAt:                 r.startedAt.Format(time.RFC3339),
		UptimeSeconds:             int64(now.Sub(r.startedAt).Seconds()),
		Syncs:                     make(map[string]map[string]int64, len(r.syncs)),
		SyncAverageLatencyMs:      make(map[string]float64, len(r.syncs)),
		SyncDurationBuckets:       make(map[string]map[string]int64, len(r.syncBuckets)),
		SyncLastError:             make(map[string]string, len(r.lastError)),
		TotalRequests:             r.totalReq,
		TotalErrors:               r.totalErr,
		RequestsPerMinuteLast10m:  append([]int64(nil), r.perMinute[:]...),
		RequestsByMethodAndStatus: make(map[string]map[string]int64, len(r.byMethodStatus)),
	}
	for scope, inner := range r.syncs {
		o2 := make(map[string]int64, len(inner))
		for o, c := range inner {
			o2[string(o)] = c
		}
		s.Syncs[scope] = o2
		if done := inner[Succeeded] + inner[Failed]; done > 0 {
			s.SyncAverageLatencyMs[scope] = float64(r.syncLatency[scope].Milliseconds()) / float64(done)
		}
	}
	for scope, inner := range r.syncBuckets {
		o2 := make(map[string]int64, len(inner))
		for b, c := range inner {
			o2[b] = c
		}
		s.SyncDurationBuckets[scope] = o2
	}
	for scope, msg := range r.lastError {
		s.SyncLastError[scope] = msg
	}
	if r.totalReq > 0 {
		s.AverageLatencyMs = float64(r.totalLatency.Milliseconds()) / float64(r.totalReq)
	}
	for m, inner := range r.byMethodStatus {
		o2 := make(map[string]int64, len(inner))
		for code, c := range inner {
			o2[strconv.Itoa(code)] = c
		}
		s.RequestsByMethodAndStatus[m] = o2
	}
	return s
}

var bucketBounds = []time.Duration{
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
	1000 * time.Millisecond,
	2500 * time.Millisecond,
	5000 * time.Millisecond,
}

func bucketLabel(d time.Duration) string {
	for _, b := range bucketBounds {
		if d <= b {
			return "le_" + strconv.FormatInt(b.Milliseconds(), 10) + "ms"
		}
	}
	return "gt_5000ms"
}
