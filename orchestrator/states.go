package orchestrator

// State identifies the orchestrator's position in the query lifecycle.
type State int

const (
	// StateInitializing covers store connectivity checks before the
	// first query can be accepted.
	StateInitializing State = iota

	// StateIdle means no foreground lifecycle is in flight.
	StateIdle

	// StateQuerying means a query was accepted and the local tier is
	// being consulted.
	StateQuerying

	// StateCacheHit means the local tier answered.
	StateCacheHit

	// StateCacheMiss means the local tier had no record.
	StateCacheMiss

	// StateFastApproxQuery means the fast-approximate tier is resolving.
	StateFastApproxQuery

	// StateAuthoritativeQuery means the authoritative attempt chain is
	// running.
	StateAuthoritativeQuery

	// StateRehydrated means an authoritative result replaced a
	// provisional one.
	StateRehydrated

	// StateRevalidated means an authoritative result arrived with no
	// provisional result preceding it.
	StateRevalidated

	// StateBackgroundRefreshing means a refresh job is in flight and no
	// foreground lifecycle is active.
	StateBackgroundRefreshing

	// StateError means authoritative retries were exhausted. Cached
	// reads stay serviceable; new resolution waits for recovery.
	StateError
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateIdle:
		return "idle"
	case StateQuerying:
		return "querying"
	case StateCacheHit:
		return "cache_hit"
	case StateCacheMiss:
		return "cache_miss"
	case StateFastApproxQuery:
		return "fast_approx_query"
	case StateAuthoritativeQuery:
		return "authoritative_query"
	case StateRehydrated:
		return "rehydrated"
	case StateRevalidated:
		return "revalidated"
	case StateBackgroundRefreshing:
		return "background_refreshing"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
