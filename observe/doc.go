// Package observe provides telemetry export for the query cache.
//
// It is a pure instrumentation library: no resolution, no transport, no
// I/O beyond exporter setup. The orchestrator feeds it alongside the
// in-process telemetry aggregator; observe handles the push/pull side
// (OTLP, Prometheus, stdout), structured JSON logging, and query spans.
package observe
