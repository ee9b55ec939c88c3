package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for store operations.
var (
	ErrNilStore   = errors.New("cache: store is nil")
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
)

// Store is the interface local cache backends implement.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods should honor cancellation/deadlines where applicable.
// - Errors: Get never errors; it returns (Record{}, false) on miss.
// - Ordering: Set must drop writes older than the stored record's
//   ResolvedAt (last write wins by resolution time).
type Store interface {
	// Get retrieves a stored record. Returns (Record{}, false) on miss.
	Get(ctx context.Context, key string) (Record, bool)

	// Set stores a record with the given TTL. TTL=0 means no caching.
	Set(ctx context.Context, key string, rec Record, ttl time.Duration) error

	// Delete removes a stored record. Idempotent - no error on miss.
	Delete(ctx context.Context, key string) error

	// Clear removes every record owned by this subsystem.
	Clear(ctx context.Context) error
}

// Pinger is implemented by stores that can report reachability. The
// orchestrator probes it during initialization and error recovery.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
