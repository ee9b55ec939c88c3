package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/tiercache/cache"
	"github.com/jonwraymond/tiercache/health"
	"github.com/jonwraymond/tiercache/observe"
	"github.com/jonwraymond/tiercache/resilience"
	"github.com/jonwraymond/tiercache/resolve"
	"github.com/jonwraymond/tiercache/telemetry"
)

type commandKind int

const (
	cmdQuery commandKind = iota
	cmdRetry
	cmdSetRefresh
)

// command is one inbound request to the control loop.
type command struct {
	kind    commandKind
	key     string
	query   string
	params  map[string]any
	sub     *Subscription
	enabled bool
	errc    chan error
}

// refreshOutcome is the completion message of a background refresh job.
type refreshOutcome struct {
	jobID uint64
	key   string
	resp  resolve.Response
	err   error
}

// probeOutcome is the completion message of an error-recovery probe.
type probeOutcome struct {
	seq    uint64
	result health.Result
}

// lifecycle is one foreground query in flight.
type lifecycle struct {
	gen         uint64
	key         string
	query       string
	params      map[string]any
	sub         *Subscription
	ctx         context.Context
	cancel      context.CancelFunc
	span        trace.Span
	provisional bool
}

// Orchestrator is the query lifecycle state machine.
//
// Contract:
// - Concurrency: safe for concurrent use. One control loop processes
//   transitions; one foreground lifecycle runs at a time and later
//   queries queue in arrival order.
// - Context: Query honors cancellation while enqueueing; delivered
//   subscriptions outlive the passed context.
// - Errors: tier failures below the authoritative tier are masked.
//   Exhausted authoritative retries surface as a ResultEvent.Err and
//   the Error state, which auto-recovers after a store probe.
type Orchestrator struct {
	cfg     Config
	store   cache.Store
	fast    resolve.FastApproxEngine
	auth    resolve.AuthoritativeService
	client  *resolve.Client
	keyer   cache.Keyer
	policy  cache.Policy
	agg     *telemetry.Aggregator
	metrics *observe.Metrics
	logger  observe.Logger
	tracer  observe.QueryTracer
	checker health.Checker

	ctx    context.Context
	cancel context.CancelFunc

	cmds     chan command
	resps    chan resolve.Response
	refreshc chan refreshOutcome
	probec   chan probeOutcome
	stopped  chan struct{}

	// Loop-owned fields, touched only by run and its helpers.
	sched    *scheduler
	cur      *lifecycle
	queue    []command
	gen      uint64
	probeSeq uint64
	settle   *time.Timer
	recovery *time.Timer

	// mu guards state and latest for readers outside the loop.
	mu        sync.RWMutex
	state     State
	latest    cache.Record
	hasLatest bool

	closeOnce sync.Once
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(o *Orchestrator) { o.cfg = cfg }
}

// WithFastApprox installs the fast-approximate tier. Without it every
// cache miss goes straight to the authoritative tier.
func WithFastApprox(engine resolve.FastApproxEngine) Option {
	return func(o *Orchestrator) { o.fast = engine }
}

// WithKeyer replaces the default query key derivation.
func WithKeyer(k cache.Keyer) Option {
	return func(o *Orchestrator) { o.keyer = k }
}

// WithLogger installs a structured logger.
func WithLogger(l observe.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithMetrics installs OTel metrics instruments.
func WithMetrics(m *observe.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithTracer installs lifecycle span tracing.
func WithTracer(t observe.QueryTracer) Option {
	return func(o *Orchestrator) { o.tracer = t }
}

// WithHealthChecker replaces the store checker used at startup and by
// error recovery.
func WithHealthChecker(c health.Checker) Option {
	return func(o *Orchestrator) { o.checker = c }
}

// New creates an orchestrator over the given store and authoritative
// service and starts its control loop. The store is probed once; an
// unreachable store fails construction with resolve.ErrInitialization.
func New(store cache.Store, auth resolve.AuthoritativeService, opts ...Option) (*Orchestrator, error) {
	if store == nil {
		return nil, cache.ErrNilStore
	}
	if auth == nil {
		return nil, ErrNilService
	}

	o := &Orchestrator{
		cfg:     DefaultConfig(),
		store:   store,
		auth:    auth,
		keyer:   cache.NewDefaultKeyer(),
		logger:  observe.NopLogger(),
		metrics: observe.NopMetrics(),
		tracer:  observe.NopQueryTracer(),
		state:   StateInitializing,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.cfg = o.cfg.withDefaults()

	o.policy = cache.DefaultPolicy()
	o.policy.StalenessThreshold = o.cfg.StalenessThreshold
	o.policy.TTL = o.cfg.CacheTTL

	if o.checker == nil {
		o.checker = health.NewStoreChecker(store, 0)
	}
	if res := o.checker.Check(context.Background()); res.Status == health.StatusUnhealthy {
		return nil, fmt.Errorf("%w: %s", resolve.ErrInitialization, res.Message)
	}

	o.agg = telemetry.NewAggregator(o.cfg.LatencyRingCapacity)
	o.client = resolve.NewClient(store, auth, o.fast, resolve.Config{
		FastApproxTimeout:    o.cfg.FastApproxTimeout,
		AuthoritativeTimeout: o.cfg.AuthoritativeTimeout,
		MaxAttempts:          o.cfg.MaxAttempts,
	})
	o.sched = newScheduler(!o.cfg.DisableBackgroundRefresh, o.cfg.RefreshInterval)

	o.ctx, o.cancel = context.WithCancel(context.Background())
	o.cmds = make(chan command, 16)
	o.resps = make(chan resolve.Response, 8)
	o.refreshc = make(chan refreshOutcome, 1)
	o.probec = make(chan probeOutcome, 1)
	o.stopped = make(chan struct{})

	o.setState(StateIdle)
	go o.run()
	return o, nil
}

// Query accepts a query and returns the subscription its results are
// delivered on. The subscription yields a provisional event when the
// fast-approximate tier answers, then the authoritative event; a fresh
// cache hit yields a single event. ctx bounds acceptance only.
func (o *Orchestrator) Query(ctx context.Context, query string, params map[string]any) (*Subscription, error) {
	key, err := o.keyer.Key(query, params)
	if err != nil {
		return nil, err
	}
	if err := cache.ValidateKey(key); err != nil {
		return nil, err
	}

	if o.ctx.Err() != nil {
		return nil, ErrClosed
	}
	sub := newSubscription()
	select {
	case o.cmds <- command{kind: cmdQuery, key: key, query: query, params: params, sub: sub}:
		return sub, nil
	case <-o.ctx.Done():
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Retry re-issues the most recent query with a fresh attempt budget.
// Meant for recovering from the Error state, though it is accepted in
// any state.
func (o *Orchestrator) Retry() (*Subscription, error) {
	if o.ctx.Err() != nil {
		return nil, ErrClosed
	}
	sub := newSubscription()
	errc := make(chan error, 1)

	select {
	case o.cmds <- command{kind: cmdRetry, sub: sub, errc: errc}:
	case <-o.ctx.Done():
		return nil, ErrClosed
	}

	select {
	case err := <-errc:
		if err != nil {
			return nil, err
		}
		return sub, nil
	case <-o.ctx.Done():
		return nil, ErrClosed
	}
}

// Invalidate removes one entry from the local cache.
func (o *Orchestrator) Invalidate(ctx context.Context, key string) error {
	if err := cache.ValidateKey(key); err != nil {
		return err
	}
	return o.store.Delete(ctx, key)
}

// InvalidateAll clears the local cache.
func (o *Orchestrator) InvalidateAll(ctx context.Context) error {
	return o.store.Clear(ctx)
}

// SetBackgroundRefresh toggles stale-while-revalidate refreshing. An
// in-flight refresh job is allowed to finish.
func (o *Orchestrator) SetBackgroundRefresh(enabled bool) {
	select {
	case o.cmds <- command{kind: cmdSetRefresh, enabled: enabled}:
	case <-o.ctx.Done():
	}
}

// GetTelemetry returns the current telemetry snapshot.
func (o *Orchestrator) GetTelemetry() telemetry.Snapshot {
	return o.agg.Snapshot()
}

// ResetTelemetry zeroes all counters and latency samples.
func (o *Orchestrator) ResetTelemetry() {
	o.agg.Reset()
}

// Latest returns a copy of the most recent result, when one exists.
func (o *Orchestrator) Latest() (cache.Record, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.latest, o.hasLatest
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// Close stops the control loop and closes open subscriptions. Safe to
// call more than once.
func (o *Orchestrator) Close() error {
	o.closeOnce.Do(func() {
		o.cancel()
		<-o.stopped
	})
	return nil
}

// run is the control loop. Every transition source is a channel, so
// transitions are totally ordered.
func (o *Orchestrator) run() {
	defer close(o.stopped)

	idle := time.NewTicker(o.cfg.IdleCheckInterval)
	defer idle.Stop()

	for {
		var settleC, recoveryC <-chan time.Time
		if o.settle != nil {
			settleC = o.settle.C
		}
		if o.recovery != nil {
			recoveryC = o.recovery.C
		}

		select {
		case <-o.ctx.Done():
			o.shutdown()
			return
		case cmd := <-o.cmds:
			o.handleCommand(cmd)
		case resp := <-o.resps:
			o.handleTierResponse(resp)
		case out := <-o.refreshc:
			o.handleRefreshOutcome(out)
		case out := <-o.probec:
			o.handleProbeOutcome(out)
		case <-settleC:
			o.settle = nil
			o.becomeIdle()
		case <-recoveryC:
			o.recovery = nil
			o.startRecoveryProbe()
		case <-idle.C:
			if o.State() == StateIdle {
				o.maybeRefresh(time.Now())
			}
		}
	}
}

func (o *Orchestrator) handleCommand(cmd command) {
	switch cmd.kind {
	case cmdQuery:
		o.acceptQuery(cmd)
	case cmdRetry:
		if o.sched.lastKey == "" {
			cmd.errc <- ErrNoPriorQuery
			cmd.sub.close()
			return
		}
		cmd.errc <- nil
		o.acceptQuery(command{
			kind:   cmdQuery,
			key:    o.sched.lastKey,
			query:  o.sched.lastQuery,
			params: o.sched.lastParams,
			sub:    cmd.sub,
		})
	case cmdSetRefresh:
		o.sched.setEnabled(cmd.enabled)
		o.logger.Info(o.ctx, "background refresh toggled",
			observe.Field{Key: "enabled", Value: cmd.enabled})
	}
}

// acceptQuery counts the query and either starts it or queues it behind
// the running lifecycle. A query arriving in Error preempts recovery.
func (o *Orchestrator) acceptQuery(cmd command) {
	o.agg.RecordQuery()
	o.metrics.RecordQuery(o.ctx)

	if o.State() == StateError {
		stopTimer(&o.recovery)
		o.probeSeq++
	}

	if o.cur != nil || o.settle != nil {
		o.queue = append(o.queue, cmd)
		return
	}
	o.startLifecycle(cmd)
}

func (o *Orchestrator) startLifecycle(cmd command) {
	o.gen++
	lctx, cancel := context.WithCancel(o.ctx)
	sctx, span := o.tracer.StartQuery(lctx, cmd.key)

	lc := &lifecycle{
		gen:    o.gen,
		key:    cmd.key,
		query:  cmd.query,
		params: cmd.params,
		sub:    cmd.sub,
		ctx:    sctx,
		cancel: cancel,
		span:   span,
	}
	o.cur = lc
	o.setState(StateQuerying)
	o.sched.noteQueried(lc.key, lc.query, lc.params)

	start := time.Now()
	rec, found := o.client.LookupLocal(lc.ctx, lc.key)
	latency := time.Since(start)

	if found {
		o.completeHit(lc, rec, latency)
		return
	}

	o.agg.RecordMiss(latency)
	o.metrics.RecordMiss(o.ctx, latency)
	o.setState(StateCacheMiss)
	o.logger.WithQuery(lc.key).Debug(o.ctx, "cache miss")

	o.setState(StateFastApproxQuery)
	o.client.LookupFastApprox(lc.ctx, resolve.Request{
		Gen:    lc.gen,
		Key:    lc.key,
		Query:  lc.query,
		Params: lc.params,
	}, o.resps)
}

// completeHit delivers a cache hit as the lifecycle's only event. A
// stale hit additionally schedules a background refresh.
func (o *Orchestrator) completeHit(lc *lifecycle, rec cache.Record, latency time.Duration) {
	now := time.Now()
	stale := o.policy.IsStale(rec, now)
	rec.Stale = stale

	o.setState(StateCacheHit)
	o.agg.RecordHit(latency)
	o.metrics.RecordHit(o.ctx, latency)

	lc.sub.emit(ResultEvent{
		Source:        cache.SourceLocalCache,
		Payload:       rec.Payload,
		Authoritative: rec.Authoritative,
		Stale:         stale,
		LatencyMs:     toMillis(latency),
	})
	lc.sub.close()
	o.setLatest(rec)
	if !stale {
		// The record's resolve time is when this key was last refreshed.
		o.sched.noteResolved(lc.key, lc.query, lc.params, rec.ResolvedAt)
	}

	o.tracer.EndQuery(lc.span, "local", nil)
	o.logger.WithQuery(lc.key).Debug(o.ctx, "cache hit",
		observe.Field{Key: "stale", Value: stale})

	lc.cancel()
	o.cur = nil

	if stale {
		o.startRefresh(now)
	}
	o.becomeIdle()
}

func (o *Orchestrator) handleTierResponse(resp resolve.Response) {
	lc := o.cur
	if lc == nil || resp.Gen != lc.gen {
		// Late response from a finished lifecycle. Ignoring it is the
		// cancellation mechanism.
		return
	}

	switch resp.Tier {
	case cache.SourceFastApprox:
		o.handleFastApprox(lc, resp)
	case cache.SourceAuthoritative:
		if resp.Err != nil {
			o.failLifecycle(lc, resp)
			return
		}
		o.completeAuthoritative(lc, resp)
	}
}

// handleFastApprox delivers a provisional result when the tier
// answered, masks its errors either way, and moves on to the
// authoritative tier.
func (o *Orchestrator) handleFastApprox(lc *lifecycle, resp resolve.Response) {
	if resp.Err == nil {
		lc.provisional = true
		lc.sub.emit(ResultEvent{
			Source:    cache.SourceFastApprox,
			Payload:   resp.Record.Payload,
			LatencyMs: toMillis(resp.Elapsed),
		})
		o.setLatest(resp.Record)
		o.metrics.RecordResolve(o.ctx, "fast_approx", resp.Elapsed)
		o.logger.WithQuery(lc.key).Debug(o.ctx, "provisional result delivered")
	} else if !errors.Is(resp.Err, resolve.ErrTierUnsupported) {
		o.logger.WithQuery(lc.key).Debug(o.ctx, "fast approximate tier skipped",
			observe.Field{Key: "reason", Value: resp.Err.Error()})
	}

	o.setState(StateAuthoritativeQuery)
	o.client.LookupAuthoritative(lc.ctx, resolve.Request{
		Gen:    lc.gen,
		Key:    lc.key,
		Query:  lc.query,
		Params: lc.params,
	}, o.resps)
}

func (o *Orchestrator) completeAuthoritative(lc *lifecycle, resp resolve.Response) {
	rec := resp.Record
	if err := o.store.Set(o.ctx, lc.key, rec, o.cfg.CacheTTL); err != nil {
		o.logger.WithQuery(lc.key).Warn(o.ctx, "cache write failed",
			observe.Field{Key: "error", Value: err.Error()})
	}

	o.agg.RecordAuthoritative(resp.Elapsed)
	o.metrics.RecordResolve(o.ctx, "authoritative", resp.Elapsed)

	lc.sub.emit(ResultEvent{
		Source:        cache.SourceAuthoritative,
		Payload:       rec.Payload,
		Authoritative: true,
		LatencyMs:     toMillis(resp.Elapsed),
	})
	lc.sub.close()
	o.setLatest(rec)
	o.sched.noteResolved(lc.key, lc.query, lc.params, time.Now())

	if lc.provisional {
		o.setState(StateRehydrated)
	} else {
		o.setState(StateRevalidated)
	}
	o.tracer.EndQuery(lc.span, "authoritative", nil)
	o.logger.WithQuery(lc.key).Info(o.ctx, "authoritative result delivered",
		observe.Field{Key: "attempts", Value: resp.Attempts},
		observe.Field{Key: "provisional_preceded", Value: lc.provisional})

	lc.cancel()
	o.cur = nil
	o.settle = time.NewTimer(o.cfg.SettleDelay)
}

// failLifecycle delivers the terminal error, preceded by a last-known
// snapshot when the store still holds one, and enters the Error state.
func (o *Orchestrator) failLifecycle(lc *lifecycle, resp resolve.Response) {
	o.metrics.RecordError(o.ctx)
	// State flips before the subscription closes so a caller observing
	// the close already sees Error.
	o.setState(StateError)

	if snap, ok := o.store.Get(o.ctx, lc.key); ok {
		lc.sub.emit(ResultEvent{
			Source:        cache.SourceSnapshotFallback,
			Payload:       snap.Payload,
			Authoritative: snap.Authoritative,
			Stale:         true,
		})
	}
	lc.sub.emit(ResultEvent{Err: resp.Err, LatencyMs: toMillis(resp.Elapsed)})
	lc.sub.close()

	o.tracer.EndQuery(lc.span, "authoritative", resp.Err)
	o.logger.WithQuery(lc.key).Error(o.ctx, "authoritative resolution exhausted",
		observe.Field{Key: "attempts", Value: resp.Attempts},
		observe.Field{Key: "error", Value: resp.Err.Error()})

	lc.cancel()
	o.cur = nil

	if len(o.queue) > 0 {
		// Pending queries preempt the error state immediately.
		next := o.queue[0]
		o.queue = o.queue[1:]
		o.startLifecycle(next)
		return
	}
	o.recovery = time.NewTimer(o.cfg.ErrorRecoveryDelay)
}

// becomeIdle starts the next queued query, else settles into Idle or
// BackgroundRefreshing and evaluates refresh eligibility.
func (o *Orchestrator) becomeIdle() {
	if len(o.queue) > 0 {
		next := o.queue[0]
		o.queue = o.queue[1:]
		o.startLifecycle(next)
		return
	}
	if o.sched.active != nil {
		o.setState(StateBackgroundRefreshing)
		return
	}
	o.setState(StateIdle)
	o.maybeRefresh(time.Now())
}

func (o *Orchestrator) maybeRefresh(now time.Time) {
	if !o.sched.eligible(now) {
		return
	}
	o.startRefresh(now)
	if o.cur == nil && o.State() == StateIdle {
		o.setState(StateBackgroundRefreshing)
	}
}

// startRefresh launches a background revalidation of the last key under
// a watchdog. The job's retry chain runs off-loop; only its completion
// message touches orchestrator state.
func (o *Orchestrator) startRefresh(now time.Time) {
	job := o.sched.start(o.sched.lastKey, now)
	if job == nil {
		return
	}

	req := resolve.Request{
		Gen:    job.ID,
		Key:    job.Key,
		Query:  o.sched.lastQuery,
		Params: o.sched.lastParams,
	}
	o.logger.WithQuery(job.Key).Debug(o.ctx, "background refresh started",
		observe.Field{Key: "job_id", Value: job.ID})

	wd := resilience.NewWatchdog(resilience.WatchdogConfig{Limit: o.cfg.RefreshWatchdog})
	go func() {
		var resp resolve.Response
		err := wd.Run(o.ctx, func(ctx context.Context) error {
			resp = o.client.ResolveAuthoritative(ctx, req)
			return resp.Err
		})
		select {
		case o.refreshc <- refreshOutcome{jobID: job.ID, key: job.Key, resp: resp, err: err}:
		case <-o.ctx.Done():
		}
	}()
}

// handleRefreshOutcome finishes a refresh job. Background results flow
// into the store and telemetry only; subscribers never hear about them,
// and failures never raise the Error state.
func (o *Orchestrator) handleRefreshOutcome(out refreshOutcome) {
	now := time.Now()
	log := o.logger.WithQuery(out.key)

	switch {
	case out.err == nil:
		if err := o.store.Set(o.ctx, out.key, out.resp.Record, o.cfg.CacheTTL); err != nil {
			log.Warn(o.ctx, "refresh cache write failed",
				observe.Field{Key: "error", Value: err.Error()})
		}
		o.agg.RecordAuthoritative(out.resp.Elapsed)
		o.metrics.RecordResolve(o.ctx, "authoritative", out.resp.Elapsed)
		o.metrics.RecordRefresh(o.ctx, "success")
		o.sched.finish(out.jobID, RefreshDone, now)
		o.refreshLatest(out.resp.Record)
		log.Debug(o.ctx, "background refresh completed",
			observe.Field{Key: "job_id", Value: out.jobID})

		if o.cur == nil && o.State() == StateBackgroundRefreshing {
			o.setState(StateRevalidated)
			o.settle = time.NewTimer(o.cfg.SettleDelay)
		}

	case errors.Is(out.err, resilience.ErrAbandoned):
		o.metrics.RecordRefresh(o.ctx, "abandoned")
		o.sched.finish(out.jobID, RefreshFailed, now)
		log.Debug(o.ctx, "background refresh abandoned by watchdog",
			observe.Field{Key: "job_id", Value: out.jobID})
		o.settleAfterRefresh()

	default:
		o.metrics.RecordRefresh(o.ctx, "failed")
		o.sched.finish(out.jobID, RefreshFailed, now)
		log.Warn(o.ctx, "background refresh failed",
			observe.Field{Key: "job_id", Value: out.jobID},
			observe.Field{Key: "error", Value: out.err.Error()})
		o.settleAfterRefresh()
	}
}

func (o *Orchestrator) settleAfterRefresh() {
	if o.cur == nil && o.State() == StateBackgroundRefreshing {
		o.setState(StateIdle)
	}
}

// startRecoveryProbe checks store reachability off-loop before leaving
// the Error state.
func (o *Orchestrator) startRecoveryProbe() {
	o.probeSeq++
	seq := o.probeSeq
	go func() {
		res := o.checker.Check(o.ctx)
		select {
		case o.probec <- probeOutcome{seq: seq, result: res}:
		case <-o.ctx.Done():
		}
	}()
}

func (o *Orchestrator) handleProbeOutcome(out probeOutcome) {
	if out.seq != o.probeSeq || o.State() != StateError {
		return
	}
	if out.result.Status == health.StatusUnhealthy {
		o.logger.Warn(o.ctx, "recovery probe failed",
			observe.Field{Key: "message", Value: out.result.Message})
		o.recovery = time.NewTimer(o.cfg.ErrorRecoveryDelay)
		return
	}
	o.logger.Info(o.ctx, "recovered from error state")
	o.becomeIdle()
}

func (o *Orchestrator) shutdown() {
	stopTimer(&o.settle)
	stopTimer(&o.recovery)
	if o.cur != nil {
		o.cur.sub.close()
		o.cur.cancel()
		o.cur = nil
	}
	for _, cmd := range o.queue {
		cmd.sub.close()
	}
	o.queue = nil

	// Drain commands accepted but not yet processed.
	for {
		select {
		case cmd := <-o.cmds:
			if cmd.sub != nil {
				cmd.sub.close()
			}
		default:
			return
		}
	}
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

func (o *Orchestrator) setLatest(rec cache.Record) {
	o.mu.Lock()
	o.latest = rec
	o.hasLatest = true
	o.mu.Unlock()
}

// refreshLatest applies a background result to the latest record with
// last-write-wins, so a refresh racing a newer foreground resolution
// cannot roll it back.
func (o *Orchestrator) refreshLatest(rec cache.Record) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.hasLatest && o.latest.Key == rec.Key && o.latest.ResolvedAt.After(rec.ResolvedAt) {
		return
	}
	if o.hasLatest && o.latest.Key != rec.Key {
		return
	}
	o.latest = rec
	o.hasLatest = true
}

func stopTimer(t **time.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
