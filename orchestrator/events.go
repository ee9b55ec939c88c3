package orchestrator

import (
	"encoding/json"
	"sync"

	"github.com/jonwraymond/tiercache/cache"
)

// subscriptionBuffer is the event channel capacity. A lifecycle emits at
// most three events (provisional, fallback, final or error), so the
// buffer absorbs a slow consumer without stalling the control loop.
const subscriptionBuffer = 8

// ResultEvent is one delivery on a query subscription. A lifecycle
// yields either a single event (cache hit, or authoritative with no
// provisional value) or a provisional event followed by a final one.
type ResultEvent struct {
	// Source is the tier that produced Payload.
	Source cache.Source

	// Payload is the resolved value. Nil on error events with no
	// fallback.
	Payload json.RawMessage

	// Authoritative reports whether Payload came from the
	// authoritative tier (directly or via a cached authoritative
	// record).
	Authoritative bool

	// Stale reports whether Payload exceeded the staleness threshold
	// at delivery time.
	Stale bool

	// LatencyMs is the elapsed time of the tier lookup that produced
	// this event, in milliseconds.
	LatencyMs float64

	// Err is non-nil when authoritative resolution was exhausted. An
	// error event is always the last event on a subscription.
	Err error
}

// Subscription delivers the events of one query lifecycle.
//
// Contract:
// - Concurrency: Events may be read from one goroutine; the channel is
//   closed when the lifecycle completes.
// - Errors: a terminal failure arrives as ResultEvent.Err, then close.
type Subscription struct {
	events chan ResultEvent
	once   sync.Once
}

func newSubscription() *Subscription {
	return &Subscription{events: make(chan ResultEvent, subscriptionBuffer)}
}

// Events returns the delivery channel. It closes when no further events
// will arrive.
func (s *Subscription) Events() <-chan ResultEvent {
	return s.events
}

// emit delivers an event without blocking the control loop. Events
// beyond the buffer are dropped; a lifecycle never emits enough to
// overflow a consumer that drains at all.
func (s *Subscription) emit(ev ResultEvent) {
	select {
	case s.events <- ev:
	default:
	}
}

func (s *Subscription) close() {
	s.once.Do(func() { close(s.events) })
}
