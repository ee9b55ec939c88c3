package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// QueryTracer wraps OpenTelemetry tracing with query-lifecycle span
// management. One span covers a foreground lifecycle from acceptance to
// final delivery.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndQuery must be best-effort and must not panic.
type QueryTracer interface {
	// StartQuery starts a span for one foreground query lifecycle.
	StartQuery(ctx context.Context, key string) (context.Context, trace.Span)

	// EndQuery ends the span, recording the serving tier and any error.
	EndQuery(span trace.Span, tier string, err error)
}

// queryTracer is the concrete implementation of QueryTracer.
type queryTracer struct {
	tracer trace.Tracer
}

// NewQueryTracer creates a QueryTracer wrapping the given OTel tracer.
func NewQueryTracer(t trace.Tracer) QueryTracer {
	return &queryTracer{tracer: t}
}

// StartQuery starts a new lifecycle span.
func (t *queryTracer) StartQuery(ctx context.Context, key string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "querycache.Query",
		trace.WithAttributes(
			attribute.String("query.key", key),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndQuery ends the span and records the outcome.
func (t *queryTracer) EndQuery(span trace.Span, tier string, err error) {
	span.SetAttributes(attribute.String("cache.tier", tier))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// NopQueryTracer returns a QueryTracer backed by a no-op tracer.
func NopQueryTracer() QueryTracer {
	return &queryTracer{
		tracer: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}
