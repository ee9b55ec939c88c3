package cache

import "time"

// Policy configures staleness and retention for the local tier.
type Policy struct {
	// StalenessThreshold is the age beyond which a record is considered
	// stale and eligible for background revalidation.
	StalenessThreshold time.Duration

	// TTL is the retention applied to local store writes.
	// If zero, caching is disabled.
	TTL time.Duration

	// MaxTTL is the maximum allowed TTL. Override TTLs are clamped to this.
	// If zero, no maximum is enforced.
	MaxTTL time.Duration
}

// DefaultPolicy returns the default policy.
// StalenessThreshold: 180s, TTL: 1 hour, MaxTTL: 24 hours.
func DefaultPolicy() Policy {
	return Policy{
		StalenessThreshold: 180 * time.Second,
		TTL:                1 * time.Hour,
		MaxTTL:             24 * time.Hour,
	}
}

// ShouldCache returns true if caching is enabled by this policy.
func (p Policy) ShouldCache() bool {
	return p.TTL > 0
}

// IsStale reports whether the record has outlived the staleness threshold.
func (p Policy) IsStale(rec Record, now time.Time) bool {
	if p.StalenessThreshold <= 0 {
		return false
	}
	return rec.Age(now) > p.StalenessThreshold
}

// EffectiveTTL returns the TTL to use, applying defaults and clamping.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	ttl := override
	if ttl <= 0 {
		ttl = p.TTL
	}

	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}

	return ttl
}
