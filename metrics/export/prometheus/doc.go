// Package prometheus provides Prometheus collectors for authcore metrics.
//
// [NewCollector] accepts an [authcore.Engine] and implements
// [prometheus.Collector]; [Handler] wraps it in a ready-to-mount scrape
// endpoint. Counter names are prefixed authcore_*_total; the single
// histogram is authcore_validate_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry. Callers mount the
//     Handler or register the Collector themselves.
//   - Mutate engine state.
package prometheus
