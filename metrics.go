package vetsession

import (
	"sync/atomic"
	"time"
)

// MetricID names one engine counter or histogram.
type MetricID uint16

const (
	// MetricLoginSuccess counts credentials accepted by Login.
	MetricLoginSuccess MetricID = iota
	// MetricLoginRejected counts credentials refused by Login.
	MetricLoginRejected
	// MetricSessionLoaded counts loads that produced an authenticated session.
	MetricSessionLoaded
	// MetricSessionAbsent counts loads with no stored credential.
	MetricSessionAbsent
	// MetricSessionExpired counts stored credentials found expired.
	MetricSessionExpired
	// MetricSessionMalformed counts stored credentials that did not decode.
	MetricSessionMalformed
	// MetricSessionEmptyRoles counts stored credentials without roles.
	MetricSessionEmptyRoles
	// MetricStorageReadFailure counts failed primary store reads.
	MetricStorageReadFailure
	// MetricStorageWriteFailure counts saves with at least one failed write.
	MetricStorageWriteFailure
	// MetricViewResolved counts resolved views.
	MetricViewResolved
	// MetricRoleMismatch counts views whose path role is not held by the session.
	MetricRoleMismatch
	// MetricLogout counts logouts.
	MetricLogout
	// MetricLogoutStepFailure counts failed logout steps.
	MetricLogoutStepFailure
	// MetricLogoutLatency records logout duration.
	MetricLogoutLatency
	metricIDCount
)

var metricNames = [metricIDCount]string{
	MetricLoginSuccess:        "login_success",
	MetricLoginRejected:       "login_rejected",
	MetricSessionLoaded:       "session_loaded",
	MetricSessionAbsent:       "session_absent",
	MetricSessionExpired:      "session_expired",
	MetricSessionMalformed:    "session_malformed",
	MetricSessionEmptyRoles:   "session_empty_roles",
	MetricStorageReadFailure:  "storage_read_failure",
	MetricStorageWriteFailure: "storage_write_failure",
	MetricViewResolved:        "view_resolved",
	MetricRoleMismatch:        "role_mismatch",
	MetricLogout:              "logout",
	MetricLogoutStepFailure:   "logout_step_failure",
	MetricLogoutLatency:       "logout_latency",
}

// String returns the snake_case name of the metric.
func (id MetricID) String() string {
	if id >= metricIDCount {
		return "unknown"
	}
	return metricNames[id]
}

// MetricIDs returns every defined metric id in order.
func MetricIDs() []MetricID {
	out := make([]MetricID, 0, int(metricIDCount))
	for id := MetricID(0); id < metricIDCount; id++ {
		out = append(out, id)
	}
	return out
}

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

// HistogramBounds are the upper bounds, in milliseconds, of the latency buckets. The last
// bucket is unbounded.
var HistogramBounds = [histBucketCount - 1]int64{5, 10, 25, 50, 100, 250, 500}

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters for session operations. Each counter sits on its own
// cache line; a nil or disabled *Metrics ignores every update.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of [Metrics].
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns counters configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to id. It is a no-op on nil or disabled metrics.
func (m *Metrics) Inc(id MetricID) {
	m.Add(id, 1)
}

// Add adds n to id.
func (m *Metrics) Add(id MetricID, n uint64) {
	if m == nil || !m.enabled || id >= metricIDCount || n == 0 {
		return
	}
	atomic.AddUint64(&m.counters[id].value, n)
}

// Observe records d for a latency metric.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricLogoutLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter, and the latency histogram when enabled.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricLogoutLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricLogoutLatency].buckets[i])
		}
		s.Histograms[MetricLogoutLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()
	for i, bound := range HistogramBounds {
		if ms <= bound {
			return i
		}
	}
	return histBucketCount - 1
}
