package internaldefs

import (
	sessionvault "github.com/kestrelhq/sessionvault"
)

// CounterDef binds one Manager counter to its stable exported name.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable.
type CounterDef struct {
	ID   sessionvault.MetricID
	Name string
	Help string
}

// HistogramDef binds one Manager histogram to its stable exported name.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable.
type HistogramDef struct {
	ID   sessionvault.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in definition order.
var CounterDefs = []CounterDef{
	{ID: sessionvault.MetricValidateSuccess, Name: "sessionvault_validate_success_total", Help: "Validity checks that granted access."},
	{ID: sessionvault.MetricValidateDenied, Name: "sessionvault_validate_denied_total", Help: "Validity checks that denied access."},
	{ID: sessionvault.MetricValidateCacheHit, Name: "sessionvault_validate_cache_hit_total", Help: "Fast-mode checks answered from the verdict cache."},
	{ID: sessionvault.MetricValidateOffline, Name: "sessionvault_validate_offline_total", Help: "Checks resolved by the offline-valid degradation."},
	{ID: sessionvault.MetricSaveSuccess, Name: "sessionvault_save_success_total", Help: "Persisted sessions."},
	{ID: sessionvault.MetricSaveFailure, Name: "sessionvault_save_failure_total", Help: "Failed session saves."},
	{ID: sessionvault.MetricRefreshSuccess, Name: "sessionvault_refresh_success_total", Help: "Successful token refreshes."},
	{ID: sessionvault.MetricRefreshFailure, Name: "sessionvault_refresh_failure_total", Help: "Failed token refreshes."},
	{ID: sessionvault.MetricRefreshOfflineKept, Name: "sessionvault_refresh_offline_kept_total", Help: "Transient refresh failures that kept the local session."},
	{ID: sessionvault.MetricSessionCleared, Name: "sessionvault_session_cleared_total", Help: "Explicit session clears."},
	{ID: sessionvault.MetricCorruptionDetected, Name: "sessionvault_corruption_detected_total", Help: "Corrupt persisted session records."},
	{ID: sessionvault.MetricFallbackEngaged, Name: "sessionvault_fallback_engaged_total", Help: "Stores built on the low-assurance fallback path."},
	{ID: sessionvault.MetricProviderRetry, Name: "sessionvault_provider_retry_total", Help: "Retried identity-provider calls."},
}

// HistogramDefs lists every exported histogram in definition order.
var HistogramDefs = []HistogramDef{
	{ID: sessionvault.MetricValidateLatency, Name: "sessionvault_validate_latency_seconds", Help: "Validity-check latency histogram."},
}

// HistogramBounds are the upper bucket bounds in seconds, Prometheus
// exposition form.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix mirrors HistogramBounds with characters legal in
// OTel instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies a snapshot bucket slice into the fixed-width
// array exporters iterate over, zero-filling when the slice is short.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to the cumulative form the
// Prometheus exposition format requires.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
