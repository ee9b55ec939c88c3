package resilience

import "errors"

// Sentinel errors for resilience operations.
var (
	// ErrMaxRetriesExceeded is returned when max retry attempts are exhausted.
	ErrMaxRetriesExceeded = errors.New("resilience: max retries exceeded")

	// ErrTimeout is returned when a single attempt exceeds its deadline.
	ErrTimeout = errors.New("resilience: operation timed out")

	// ErrAbandoned is returned when a watchdog gives up waiting on an
	// operation. The operation itself may still be running; its result is
	// discarded.
	ErrAbandoned = errors.New("resilience: operation abandoned by watchdog")
)
