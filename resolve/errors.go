package resolve

import (
	"errors"
	"fmt"
)

// Sentinel errors for tier resolution.
var (
	// ErrTierUnsupported means the tier does not implement the requested
	// capability. A valid, non-error outcome for the fast-approximate
	// tier; the orchestrator recovers silently.
	ErrTierUnsupported = errors.New("resolve: tier not supported")

	// ErrTierUnavailable means the tier could not be reached or did not
	// answer in time. Recovered silently for the fast-approximate tier.
	ErrTierUnavailable = errors.New("resolve: tier unavailable")

	// ErrAuthoritativeTimeout means a single authoritative attempt
	// exceeded its deadline.
	ErrAuthoritativeTimeout = errors.New("resolve: authoritative resolution timed out")

	// ErrInitialization means the local store was unreachable at startup.
	// Fatal to the orchestrator; never retried.
	ErrInitialization = errors.New("resolve: local cache initialization failed")
)

// AuthoritativeError reports an exhausted authoritative attempt chain.
type AuthoritativeError struct {
	// Attempts is how many attempts were made before giving up.
	Attempts int

	// Err is the last attempt's error.
	Err error
}

func (e *AuthoritativeError) Error() string {
	return fmt.Sprintf("resolve: authoritative resolution failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *AuthoritativeError) Unwrap() error {
	return e.Err
}
