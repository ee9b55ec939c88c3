package orchestrator

import "time"

// RefreshStatus is the lifecycle status of a background refresh job.
type RefreshStatus int

const (
	RefreshRunning RefreshStatus = iota
	RefreshDone
	RefreshFailed
)

func (s RefreshStatus) String() string {
	switch s {
	case RefreshRunning:
		return "running"
	case RefreshDone:
		return "done"
	case RefreshFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RefreshJob tracks one background revalidation. At most one job is
// outstanding at a time.
type RefreshJob struct {
	ID        uint64
	Key       string
	StartedAt time.Time
	Status    RefreshStatus
}

// scheduler decides when the last-resolved key warrants a background
// refresh. It is owned by the control loop and needs no locking.
type scheduler struct {
	enabled     bool
	interval    time.Duration
	lastKey     string
	lastQuery   string
	lastParams  map[string]any
	lastRefresh time.Time
	active      *RefreshJob
	nextID      uint64
}

func newScheduler(enabled bool, interval time.Duration) *scheduler {
	return &scheduler{enabled: enabled, interval: interval}
}

// noteResolved records that key was freshly resolved, resetting the
// refresh clock and remembering the query for later re-resolution.
func (s *scheduler) noteResolved(key, query string, params map[string]any, at time.Time) {
	s.lastKey = key
	s.lastQuery = query
	s.lastParams = params
	s.lastRefresh = at
}

// noteQueried remembers the query without resetting the refresh clock,
// for stale hits where the cached record predates this lifecycle.
func (s *scheduler) noteQueried(key, query string, params map[string]any) {
	s.lastKey = key
	s.lastQuery = query
	s.lastParams = params
}

// eligible reports whether the idle check should start a refresh now.
func (s *scheduler) eligible(now time.Time) bool {
	return s.enabled &&
		s.lastKey != "" &&
		s.active == nil &&
		now.Sub(s.lastRefresh) > s.interval
}

// start registers a running job for key. It returns nil while another
// job is outstanding or refreshing is disabled.
func (s *scheduler) start(key string, now time.Time) *RefreshJob {
	if !s.enabled || s.active != nil {
		return nil
	}
	s.nextID++
	s.active = &RefreshJob{
		ID:        s.nextID,
		Key:       key,
		StartedAt: now,
		Status:    RefreshRunning,
	}
	return s.active
}

// finish clears the job if id still names the active one. Success
// resets the refresh clock.
func (s *scheduler) finish(id uint64, status RefreshStatus, now time.Time) {
	if s.active == nil || s.active.ID != id {
		return
	}
	s.active.Status = status
	if status == RefreshDone {
		s.lastRefresh = now
	}
	s.active = nil
}

func (s *scheduler) setEnabled(enabled bool) {
	s.enabled = enabled
}
