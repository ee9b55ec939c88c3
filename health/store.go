package health

import (
	"context"
	"time"

	"github.com/jonwraymond/tiercache/cache"
)

// StoreChecker probes the local cache store's reachability.
type StoreChecker struct {
	store   cache.Store
	timeout time.Duration
}

// NewStoreChecker creates a checker for the given store. timeout <= 0
// defaults to 2 seconds.
func NewStoreChecker(store cache.Store, timeout time.Duration) *StoreChecker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &StoreChecker{store: store, timeout: timeout}
}

// Name returns the checker name.
func (c *StoreChecker) Name() string {
	return "local-store"
}

// Check pings the store when it supports pinging. Stores without a Ping
// method (in-memory) are reported healthy.
func (c *StoreChecker) Check(ctx context.Context) Result {
	start := time.Now()

	pinger, ok := c.store.(cache.Pinger)
	if !ok {
		return Healthy("store does not require probing").WithDuration(time.Since(start))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := pinger.Ping(ctx); err != nil {
		return Unhealthy("store unreachable", err).WithDuration(time.Since(start))
	}
	return Healthy("store reachable").WithDuration(time.Since(start))
}

// Ensure StoreChecker implements Checker
var _ Checker = (*StoreChecker)(nil)
