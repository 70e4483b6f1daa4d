// Package prometheus renders session-manager metrics in Prometheus text
// exposition format.
//
// [NewPrometheusExporter] accepts a [sessionvault.Manager] and exposes an
// [http.Handler] that renders all counters and histograms. Counter names are
// prefixed sessionvault_*_total; the single histogram is
// sessionvault_validate_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate manager state.
package prometheus
