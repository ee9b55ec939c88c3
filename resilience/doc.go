// Package resilience provides the failure-handling primitives used on the
// authoritative resolution path.
//
// The package implements three patterns:
//
//   - Retry: bounded re-attempts with configurable backoff strategies
//     (exponential, linear, constant), used for the authoritative tier's
//     per-query attempt chain.
//
//   - Timeout: a hard per-attempt deadline on a single operation.
//
//   - Watchdog: an overall bound on an operation that abandons it rather
//     than failing it, used for background refresh jobs.
//
// Each primitive wraps a func(context.Context) error:
//
//	retry := resilience.NewRetry(resilience.RetryConfig{
//	    MaxAttempts:  3,
//	    InitialDelay: 100 * time.Millisecond,
//	})
//
//	err := retry.Execute(ctx, func(ctx context.Context) error {
//	    return resilience.ExecuteWithTimeout(ctx, 10*time.Second, resolveAuthoritative)
//	})
package resilience
