package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/tiercache/cache"
	"github.com/jonwraymond/tiercache/resilience"
)

// Request identifies one tier lookup issued by the orchestrator. Gen is
// the lifecycle generation; responses carrying a stale generation are
// ignored by the consumer, which is how timed-out lookups are cancelled.
type Request struct {
	Gen    uint64
	Key    string
	Query  string
	Params map[string]any
}

// Response is the typed message a tier lookup posts back to the
// orchestrator's event loop.
type Response struct {
	Gen      uint64
	Key      string
	Tier     cache.Source
	Record   cache.Record
	Attempts int
	Elapsed  time.Duration
	Err      error
}

// Config configures tier invocation.
type Config struct {
	// FastApproxTimeout bounds a fast-approximate lookup.
	// Default: 5 seconds
	FastApproxTimeout time.Duration

	// AuthoritativeTimeout bounds a single authoritative attempt.
	// Default: 10 seconds
	AuthoritativeTimeout time.Duration

	// MaxAttempts is the authoritative attempt budget per chain.
	// Default: 3
	MaxAttempts int

	// RetryInitialDelay is the backoff seed between authoritative
	// attempts. Default: 100ms exponential with jitter.
	RetryInitialDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.FastApproxTimeout <= 0 {
		c.FastApproxTimeout = 5 * time.Second
	}
	if c.AuthoritativeTimeout <= 0 {
		c.AuthoritativeTimeout = 10 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryInitialDelay <= 0 {
		c.RetryInitialDelay = 100 * time.Millisecond
	}
	return c
}

// Client invokes the three resolution tiers on behalf of the orchestrator.
//
// Contract:
// - Concurrency: safe for concurrent use; concurrent authoritative
//   resolutions of the same key collapse into one in-flight call.
// - Context: lookups honor cancellation; a cancelled lookup posts no
//   response.
// - Errors: tier errors travel inside Response.Err, never as panics.
type Client struct {
	store cache.Store
	fast  FastApproxEngine // may be nil
	auth  AuthoritativeService
	cfg   Config
	group singleflight.Group
}

// NewClient creates a tier client. fast may be nil when no
// fast-approximate capability is deployed.
func NewClient(store cache.Store, auth AuthoritativeService, fast FastApproxEngine, cfg Config) *Client {
	return &Client{
		store: store,
		fast:  fast,
		auth:  auth,
		cfg:   cfg.withDefaults(),
	}
}

// LookupLocal checks the local tier synchronously. Expected latency is
// microseconds to low milliseconds; misses are (Record{}, false).
func (c *Client) LookupLocal(ctx context.Context, key string) (cache.Record, bool) {
	if c.store == nil {
		return cache.Record{}, false
	}
	return c.store.Get(ctx, key)
}

// LookupFastApprox resolves against the fast-approximate tier, posting
// exactly one Response to out unless ctx is cancelled first. Timeouts and
// unsupported queries arrive as Response.Err; the caller masks them.
func (c *Client) LookupFastApprox(ctx context.Context, req Request, out chan<- Response) {
	start := time.Now()
	go func() {
		resp := Response{Gen: req.Gen, Key: req.Key, Tier: cache.SourceFastApprox}

		if c.fast == nil {
			resp.Err = ErrTierUnsupported
			resp.Elapsed = time.Since(start)
			post(ctx, out, resp)
			return
		}

		var payload json.RawMessage
		err := resilience.ExecuteWithTimeout(ctx, c.cfg.FastApproxTimeout, func(ctx context.Context) error {
			p, rerr := c.fast.Resolve(ctx, req.Query, req.Params)
			if rerr != nil {
				return rerr
			}
			payload = p
			return nil
		})

		resp.Elapsed = time.Since(start)
		switch {
		case err == nil:
			resp.Record = cache.Record{
				Key:        req.Key,
				Payload:    payload,
				Source:     cache.SourceFastApprox,
				ResolvedAt: time.Now(),
			}
		case errors.Is(err, ErrTierUnsupported):
			resp.Err = err
		case errors.Is(err, resilience.ErrTimeout):
			resp.Err = ErrTierUnavailable
		default:
			resp.Err = err
		}
		post(ctx, out, resp)
	}()
}

// LookupAuthoritative runs the authoritative attempt chain asynchronously,
// posting exactly one Response to out unless ctx is cancelled first.
func (c *Client) LookupAuthoritative(ctx context.Context, req Request, out chan<- Response) {
	go func() {
		post(ctx, out, c.ResolveAuthoritative(ctx, req))
	}()
}

// flightResult carries a completed attempt chain through singleflight.
type flightResult struct {
	payload    json.RawMessage
	attempts   int
	resolvedAt time.Time
}

// ResolveAuthoritative performs the authoritative attempt chain
// synchronously: up to MaxAttempts attempts, each bounded by
// AuthoritativeTimeout, with backoff in between. Concurrent chains for
// the same key share one resolution. The shared chain runs detached
// from the initiating caller's context, so a caller abandoning its
// wait never cancels the chain for the callers that joined it; each
// caller's own wait is bounded by its own ctx.
func (c *Client) ResolveAuthoritative(ctx context.Context, req Request) Response {
	start := time.Now()

	ch := c.group.DoChan(req.Key, func() (any, error) {
		fctx := context.WithoutCancel(ctx)

		retry := resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts:  c.cfg.MaxAttempts,
			InitialDelay: c.cfg.RetryInitialDelay,
		})

		var payload json.RawMessage
		attempts, rerr := retry.ExecuteCount(fctx, func(ctx context.Context) error {
			return resilience.ExecuteWithTimeout(ctx, c.cfg.AuthoritativeTimeout, func(ctx context.Context) error {
				p, aerr := c.auth.Resolve(ctx, req.Query, req.Params)
				if aerr != nil {
					return aerr
				}
				payload = p
				return nil
			})
		})
		if rerr != nil {
			return flightResult{attempts: attempts}, rerr
		}
		return flightResult{payload: payload, attempts: attempts, resolvedAt: time.Now()}, nil
	})

	resp := Response{
		Gen:  req.Gen,
		Key:  req.Key,
		Tier: cache.SourceAuthoritative,
	}

	var fr flightResult
	var err error
	select {
	case res := <-ch:
		fr, _ = res.Val.(flightResult)
		err = res.Err
	case <-ctx.Done():
		// This caller stops waiting; the chain keeps running for the
		// others.
		resp.Elapsed = time.Since(start)
		resp.Err = ctx.Err()
		return resp
	}

	resp.Attempts = fr.attempts
	resp.Elapsed = time.Since(start)

	if err != nil {
		if errors.Is(err, resilience.ErrTimeout) {
			err = ErrAuthoritativeTimeout
		}
		resp.Err = &AuthoritativeError{Attempts: fr.attempts, Err: err}
		return resp
	}

	resp.Record = cache.Record{
		Key:           req.Key,
		Payload:       fr.payload,
		Source:        cache.SourceAuthoritative,
		Authoritative: true,
		ResolvedAt:    fr.resolvedAt,
	}
	return resp
}

// post delivers a response unless the lookup was cancelled.
func post(ctx context.Context, out chan<- Response, resp Response) {
	select {
	case out <- resp:
	case <-ctx.Done():
	}
}
