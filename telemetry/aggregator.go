package telemetry

import (
	"math"
	"sort"
	"sync"
	"time"
)

// DefaultRingCapacity is the default latency sample ring size.
const DefaultRingCapacity = 1000

// Snapshot is a point-in-time view of the aggregated statistics.
type Snapshot struct {
	TotalQueries uint64
	CacheHits    uint64
	CacheMisses  uint64

	// HitRatePercent is 100 * hits / (hits + misses), or 0 when no
	// lookups have been recorded.
	HitRatePercent float64

	// SampleCount is the number of latency samples currently in the ring.
	SampleCount int

	AvgLatencyMs float64
	P95LatencyMs float64
	P99LatencyMs float64
}

// Aggregator accumulates query statistics. Process-wide and long-lived:
// created at startup, never destroyed, resettable on demand.
//
// Contract:
// - Concurrency: safe for concurrent use; mutations are serialized.
// - Errors: methods never fail and never panic.
type Aggregator struct {
	mu sync.Mutex

	totalQueries uint64
	hits         uint64
	misses       uint64

	// Fixed-capacity ring of latency samples in milliseconds; oldest
	// evicted first.
	ring []float64
	next int
	size int
}

// NewAggregator creates an aggregator with the given latency ring
// capacity. Capacity <= 0 uses DefaultRingCapacity.
func NewAggregator(capacity int) *Aggregator {
	if capacity <= 0 {
		capacity = DefaultRingCapacity
	}
	return &Aggregator{
		ring: make([]float64, capacity),
	}
}

// RecordQuery counts an accepted query. Exactly one RecordHit or
// RecordMiss follows it once the local lookup completes.
func (a *Aggregator) RecordQuery() {
	a.mu.Lock()
	a.totalQueries++
	a.mu.Unlock()
}

// RecordHit counts a local cache hit with its lookup latency.
func (a *Aggregator) RecordHit(latency time.Duration) {
	a.mu.Lock()
	a.hits++
	a.pushLocked(latency)
	a.mu.Unlock()
}

// RecordMiss counts a local cache miss with its lookup latency.
func (a *Aggregator) RecordMiss(latency time.Duration) {
	a.mu.Lock()
	a.misses++
	a.pushLocked(latency)
	a.mu.Unlock()
}

// RecordAuthoritative samples a completed authoritative resolution.
func (a *Aggregator) RecordAuthoritative(latency time.Duration) {
	a.mu.Lock()
	a.pushLocked(latency)
	a.mu.Unlock()
}

// Reset clears all counters and samples.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	a.totalQueries = 0
	a.hits = 0
	a.misses = 0
	a.next = 0
	a.size = 0
	a.mu.Unlock()
}

// Snapshot computes the current statistics.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := Snapshot{
		TotalQueries: a.totalQueries,
		CacheHits:    a.hits,
		CacheMisses:  a.misses,
		SampleCount:  a.size,
	}

	if lookups := a.hits + a.misses; lookups > 0 {
		snap.HitRatePercent = 100 * float64(a.hits) / float64(lookups)
	}

	if a.size == 0 {
		return snap
	}

	samples := make([]float64, a.size)
	copy(samples, a.ring[:a.size])

	var sum float64
	for _, s := range samples {
		sum += s
	}
	snap.AvgLatencyMs = sum / float64(len(samples))

	sort.Float64s(samples)
	snap.P95LatencyMs = nearestRank(samples, 95)
	snap.P99LatencyMs = nearestRank(samples, 99)

	return snap
}

func (a *Aggregator) pushLocked(latency time.Duration) {
	a.ring[a.next] = float64(latency) / float64(time.Millisecond)
	a.next = (a.next + 1) % len(a.ring)
	if a.size < len(a.ring) {
		a.size++
	}
}

// nearestRank returns the p-th percentile of sorted samples using the
// nearest-rank method: the value at rank ceil(p/100 * n), 1-indexed.
func nearestRank(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	rank := int(math.Ceil(p / 100 * float64(n)))
	if rank < 1 {
		rank = 1
	}
	if rank > n {
		rank = n
	}
	return sorted[rank-1]
}
