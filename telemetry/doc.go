// Package telemetry accumulates query cache statistics.
//
// The Aggregator keeps rolling hit/miss counters and a bounded ring of
// latency samples, and computes hit rate and nearest-rank latency
// percentiles on demand. It is the readback source for GetTelemetry;
// export pipelines (OTel, Prometheus) are fed separately by the observe
// package.
package telemetry
