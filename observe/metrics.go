package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metrics records query cache metrics through an OTel meter.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Context: must return quickly; recording never blocks resolution.
// - Errors: recording must not panic.
type Metrics struct {
	queriesTotal    metric.Int64Counter
	hitsTotal       metric.Int64Counter
	missesTotal     metric.Int64Counter
	errorsTotal     metric.Int64Counter
	refreshTotal    metric.Int64Counter
	resolveDuration metric.Float64Histogram
}

// NewMetrics creates cache metrics instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	queriesTotal, err := meter.Int64Counter(
		"querycache.queries.total",
		metric.WithDescription("Total number of accepted queries"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return nil, err
	}

	hitsTotal, err := meter.Int64Counter(
		"querycache.hits.total",
		metric.WithDescription("Local cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	missesTotal, err := meter.Int64Counter(
		"querycache.misses.total",
		metric.WithDescription("Local cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, err
	}

	errorsTotal, err := meter.Int64Counter(
		"querycache.errors.total",
		metric.WithDescription("Queries that exhausted authoritative retries"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	refreshTotal, err := meter.Int64Counter(
		"querycache.refresh.total",
		metric.WithDescription("Background refresh jobs by outcome"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, err
	}

	resolveDuration, err := meter.Float64Histogram(
		"querycache.resolve.duration_ms",
		metric.WithDescription("Resolution latency in milliseconds by tier"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		queriesTotal:    queriesTotal,
		hitsTotal:       hitsTotal,
		missesTotal:     missesTotal,
		errorsTotal:     errorsTotal,
		refreshTotal:    refreshTotal,
		resolveDuration: resolveDuration,
	}, nil
}

// NopMetrics returns Metrics backed by a no-op meter.
func NopMetrics() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider().Meter("noop"))
	return m
}

// RecordQuery counts an accepted query.
func (m *Metrics) RecordQuery(ctx context.Context) {
	m.queriesTotal.Add(ctx, 1)
}

// RecordHit counts a local cache hit and samples its lookup latency.
func (m *Metrics) RecordHit(ctx context.Context, duration time.Duration) {
	m.hitsTotal.Add(ctx, 1)
	m.recordDuration(ctx, "local-cache", duration)
}

// RecordMiss counts a local cache miss and samples its lookup latency.
func (m *Metrics) RecordMiss(ctx context.Context, duration time.Duration) {
	m.missesTotal.Add(ctx, 1)
	m.recordDuration(ctx, "local-cache", duration)
}

// RecordResolve samples a tier resolution by name.
func (m *Metrics) RecordResolve(ctx context.Context, tier string, duration time.Duration) {
	m.recordDuration(ctx, tier, duration)
}

// RecordError counts a query that ended in the error state.
func (m *Metrics) RecordError(ctx context.Context) {
	m.errorsTotal.Add(ctx, 1)
}

// RecordRefresh counts a background refresh job by outcome
// (success | failure | abandoned).
func (m *Metrics) RecordRefresh(ctx context.Context, outcome string) {
	m.refreshTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("refresh.outcome", outcome),
	))
}

func (m *Metrics) recordDuration(ctx context.Context, tier string, duration time.Duration) {
	m.resolveDuration.Record(ctx, float64(duration)/float64(time.Millisecond),
		metric.WithAttributes(attribute.String("cache.tier", tier)))
}
