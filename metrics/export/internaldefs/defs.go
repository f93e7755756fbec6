package internaldefs

import (
	vetsession "github.com/MrEthical07/vetsession"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   vetsession.MetricID
	Name string
	Help string
}

// HistogramDef names one engine latency histogram for exporters.
type HistogramDef struct {
	ID   vetsession.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter.
var CounterDefs = []CounterDef{
	{ID: vetsession.MetricLoginSuccess, Name: "vetsession_login_success_total", Help: "Credentials accepted at login."},
	{ID: vetsession.MetricLoginRejected, Name: "vetsession_login_rejected_total", Help: "Credentials refused at login."},
	{ID: vetsession.MetricSessionLoaded, Name: "vetsession_session_loaded_total", Help: "Loads that produced an authenticated session."},
	{ID: vetsession.MetricSessionAbsent, Name: "vetsession_session_absent_total", Help: "Loads with no stored credential."},
	{ID: vetsession.MetricSessionExpired, Name: "vetsession_session_expired_total", Help: "Stored credentials found expired and purged."},
	{ID: vetsession.MetricSessionMalformed, Name: "vetsession_session_malformed_total", Help: "Stored credentials that did not decode and were purged."},
	{ID: vetsession.MetricSessionEmptyRoles, Name: "vetsession_session_empty_roles_total", Help: "Stored credentials without roles, purged."},
	{ID: vetsession.MetricStorageReadFailure, Name: "vetsession_storage_read_failure_total", Help: "Failed primary store reads."},
	{ID: vetsession.MetricStorageWriteFailure, Name: "vetsession_storage_write_failure_total", Help: "Logins whose session was not fully persisted."},
	{ID: vetsession.MetricViewResolved, Name: "vetsession_view_resolved_total", Help: "Resolved views."},
	{ID: vetsession.MetricRoleMismatch, Name: "vetsession_role_mismatch_total", Help: "Views whose path role the session does not hold."},
	{ID: vetsession.MetricLogout, Name: "vetsession_logout_total", Help: "Logouts."},
	{ID: vetsession.MetricLogoutStepFailure, Name: "vetsession_logout_step_failure_total", Help: "Failed logout steps."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: vetsession.MetricLogoutLatency, Name: "vetsession_logout_latency_seconds", Help: "Logout duration."},
}

// HistogramBoundSuffix names each latency bucket bound in seconds, for exporters that emit one
// series per bucket.
var HistogramBoundSuffix = [BucketCount]string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// BucketCount is the number of latency buckets, including the unbounded last one.
const BucketCount = len(vetsession.HistogramBounds) + 1

// UpperBoundsSeconds returns the finite bucket bounds in seconds.
func UpperBoundsSeconds() []float64 {
	out := make([]float64, 0, len(vetsession.HistogramBounds))
	for _, ms := range vetsession.HistogramBounds {
		out = append(out, float64(ms)/1000)
	}
	return out
}

// NormalizeBuckets pads or truncates raw to BucketCount entries.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(in [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var total uint64
	for i, v := range in {
		total += v
		out[i] = total
	}
	return out
}
