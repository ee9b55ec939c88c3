// Package orchestrator drives the tiered query lifecycle: local cache
// first, then the fast-approximate tier for a provisional answer, then
// the authoritative tier with retry and backoff. Results stream to the
// caller over a per-query subscription, provisional first when one is
// available, authoritative once resolution completes.
//
// A single control loop consumes every tier response, timer, and
// command as a typed message, so state transitions and timeout races
// are serialized and reproducible. Stale cache hits are served
// immediately and revalidated by a background refresh that never
// blocks, fails, or emits to a foreground subscriber.
package orchestrator
