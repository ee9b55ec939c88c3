package resolve

import (
	"context"
	"encoding/json"
)

// FastApproxEngine is the fast-approximate tier: an in-process compute
// engine producing provisional, non-authoritative answers in tens to
// hundreds of milliseconds.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Resolve must honor cancellation/deadlines.
// - Errors: ErrTierUnsupported is a valid outcome, not a failure; it
//   means the engine cannot answer this query shape.
type FastApproxEngine interface {
	// Resolve produces a provisional payload for the query.
	Resolve(ctx context.Context, query string, params map[string]any) (json.RawMessage, error)
}

// AuthoritativeService is the authoritative tier: the remote data service
// whose answers are correct by definition. It is the only tier permitted
// to fail.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Resolve must honor cancellation/deadlines; expected latency
//   is up to seconds.
// - Errors: any non-nil error is retried by the caller up to its attempt
//   budget.
type AuthoritativeService interface {
	// Resolve produces the authoritative payload for the query.
	Resolve(ctx context.Context, query string, params map[string]any) (json.RawMessage, error)
}

// FastApproxFunc adapts a function to the FastApproxEngine interface.
type FastApproxFunc func(ctx context.Context, query string, params map[string]any) (json.RawMessage, error)

// Resolve calls the function.
func (f FastApproxFunc) Resolve(ctx context.Context, query string, params map[string]any) (json.RawMessage, error) {
	return f(ctx, query, params)
}

// AuthoritativeFunc adapts a function to the AuthoritativeService interface.
type AuthoritativeFunc func(ctx context.Context, query string, params map[string]any) (json.RawMessage, error)

// Resolve calls the function.
func (f AuthoritativeFunc) Resolve(ctx context.Context, query string, params map[string]any) (json.RawMessage, error) {
	return f(ctx, query, params)
}
