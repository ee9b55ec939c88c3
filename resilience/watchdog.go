package resilience

import (
	"context"
	"time"
)

// WatchdogConfig configures the watchdog.
type WatchdogConfig struct {
	// Limit is the overall bound on the operation, regardless of its
	// internal retry state.
	// Default: 15 seconds
	Limit time.Duration
}

// Watchdog bounds an operation's total runtime. Unlike Timeout it is meant
// for best-effort work: when the limit fires the caller stops waiting and
// the operation's eventual result is discarded, not surfaced as a failure.
type Watchdog struct {
	config WatchdogConfig
}

// NewWatchdog creates a new watchdog.
func NewWatchdog(config WatchdogConfig) *Watchdog {
	// Apply defaults
	if config.Limit <= 0 {
		config.Limit = 15 * time.Second
	}

	return &Watchdog{config: config}
}

// Run executes the operation under the watchdog. It returns the
// operation's error, ErrAbandoned when the limit fires first, or the
// context error on cancellation. The operation's context is cancelled on
// abandonment so well-behaved operations can unwind.
func (w *Watchdog) Run(ctx context.Context, op func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(ctx)
	}()

	timer := time.NewTimer(w.config.Limit)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return ErrAbandoned
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Config returns the watchdog configuration.
func (w *Watchdog) Config() WatchdogConfig {
	return w.config
}
