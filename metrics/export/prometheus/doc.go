// Package prometheus exposes vetsession engine metrics through client_golang.
//
// [NewCollector] wraps an [vetsession.Engine] as a prometheus.Collector that callers
// register on their own registry; [Handler] serves one collector on a private registry.
// Counter names are prefixed vetsession_*_total; the single histogram is
// vetsession_logout_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry.
//   - Mutate engine state.
package prometheus
