package orchestrator

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every tunable of the query lifecycle. The zero value is
// usable; New applies the documented defaults.
type Config struct {
	// FastApproxTimeout bounds the fast-approximate lookup. The
	// lifecycle proceeds without a provisional value when it expires.
	// Default: 5 seconds
	FastApproxTimeout time.Duration `env:"TIERCACHE_FAST_APPROX_TIMEOUT" envDefault:"5s"`

	// AuthoritativeTimeout bounds one authoritative attempt.
	// Default: 10 seconds
	AuthoritativeTimeout time.Duration `env:"TIERCACHE_AUTHORITATIVE_TIMEOUT" envDefault:"10s"`

	// MaxAttempts is the authoritative attempt budget before the
	// lifecycle fails. Default: 3
	MaxAttempts int `env:"TIERCACHE_MAX_ATTEMPTS" envDefault:"3"`

	// StalenessThreshold is the record age past which a cache hit is
	// delivered stale and scheduled for refresh. Default: 180 seconds
	StalenessThreshold time.Duration `env:"TIERCACHE_STALENESS_THRESHOLD" envDefault:"180s"`

	// RefreshInterval is the minimum gap between idle-triggered
	// background refreshes of the last key. Default: 5 minutes
	RefreshInterval time.Duration `env:"TIERCACHE_REFRESH_INTERVAL" envDefault:"5m"`

	// RefreshWatchdog abandons a background refresh outright,
	// regardless of its internal retry state. Default: 15 seconds
	RefreshWatchdog time.Duration `env:"TIERCACHE_REFRESH_WATCHDOG" envDefault:"15s"`

	// SettleDelay holds the Rehydrated/Revalidated state before Idle so
	// downstream consumers observe the transition. Default: 500ms
	SettleDelay time.Duration `env:"TIERCACHE_SETTLE_DELAY" envDefault:"500ms"`

	// ErrorRecoveryDelay is the wait before the Error state probes the
	// store and re-enters Idle. Default: 5 seconds
	ErrorRecoveryDelay time.Duration `env:"TIERCACHE_ERROR_RECOVERY_DELAY" envDefault:"5s"`

	// IdleCheckInterval is how often an idle orchestrator evaluates
	// refresh eligibility. Default: 30 seconds
	IdleCheckInterval time.Duration `env:"TIERCACHE_IDLE_CHECK_INTERVAL" envDefault:"30s"`

	// LatencyRingCapacity bounds the telemetry latency sample ring.
	// Default: 1000
	LatencyRingCapacity int `env:"TIERCACHE_LATENCY_RING_CAPACITY" envDefault:"1000"`

	// CacheTTL is the local store TTL applied to resolved records.
	// Default: 1 hour
	CacheTTL time.Duration `env:"TIERCACHE_CACHE_TTL" envDefault:"1h"`

	// DisableBackgroundRefresh turns off stale-while-revalidate
	// refreshing. The zero value keeps it enabled, matching the other
	// fields' zero-means-default behavior. Default: false
	DisableBackgroundRefresh bool `env:"TIERCACHE_DISABLE_BACKGROUND_REFRESH" envDefault:"false"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		FastApproxTimeout:    5 * time.Second,
		AuthoritativeTimeout: 10 * time.Second,
		MaxAttempts:          3,
		StalenessThreshold:   180 * time.Second,
		RefreshInterval:      5 * time.Minute,
		RefreshWatchdog:      15 * time.Second,
		SettleDelay:          500 * time.Millisecond,
		ErrorRecoveryDelay:   5 * time.Second,
		IdleCheckInterval:    30 * time.Second,
		LatencyRingCapacity:  1000,
		CacheTTL:             time.Hour,
	}
}

// ConfigFromEnv builds a Config from TIERCACHE_* environment variables,
// falling back to the defaults for unset variables.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("orchestrator: parse environment: %w", err)
	}
	return cfg, nil
}

// withDefaults fills zero-valued fields so a partially populated Config
// behaves like DefaultConfig for the rest.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.FastApproxTimeout <= 0 {
		c.FastApproxTimeout = d.FastApproxTimeout
	}
	if c.AuthoritativeTimeout <= 0 {
		c.AuthoritativeTimeout = d.AuthoritativeTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.StalenessThreshold <= 0 {
		c.StalenessThreshold = d.StalenessThreshold
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = d.RefreshInterval
	}
	if c.RefreshWatchdog <= 0 {
		c.RefreshWatchdog = d.RefreshWatchdog
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = d.SettleDelay
	}
	if c.ErrorRecoveryDelay <= 0 {
		c.ErrorRecoveryDelay = d.ErrorRecoveryDelay
	}
	if c.IdleCheckInterval <= 0 {
		c.IdleCheckInterval = d.IdleCheckInterval
	}
	if c.LatencyRingCapacity <= 0 {
		c.LatencyRingCapacity = d.LatencyRingCapacity
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = d.CacheTTL
	}
	return c
}
