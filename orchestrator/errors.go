package orchestrator

import "errors"

// Sentinel errors for the orchestrator's public API.
var (
	// ErrClosed means the orchestrator has been shut down.
	ErrClosed = errors.New("orchestrator: closed")

	// ErrNilService means no authoritative service was provided.
	ErrNilService = errors.New("orchestrator: nil authoritative service")

	// ErrNoPriorQuery means Retry was called before any Query.
	ErrNoPriorQuery = errors.New("orchestrator: no prior query to retry")
)
