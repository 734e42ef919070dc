package pool

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"net"
	"sync"
	"sync/atomic"
	"time"

	apperrors "github.com/go-i2p/connpool/lib/errors"
	"github.com/go-i2p/connpool/lib/metrics"
	"github.com/go-i2p/connpool/lib/resilience"
)

// Sentinel errors, aliased from the central definitions so callers can
// check them without importing lib/errors.
var (
	// ErrPoolClosed is returned when operating on a closed pool.
	ErrPoolClosed = apperrors.ErrPoolClosed
	// ErrPoolExhausted is returned when no connection became available in time.
	ErrPoolExhausted = apperrors.ErrPoolExhausted
	// ErrConnInvalid is returned by operations on a released handle.
	ErrConnInvalid = apperrors.ErrConnInvalid
	// ErrBadBackend is returned when the backend keeps producing dead connections.
	ErrBadBackend = apperrors.ErrBadBackend
)

// Factory opens, probes, and closes real connections for a pool.
// Implementations must be safe for concurrent use.
type Factory interface {
	// Open dials a new connection to the backend.
	Open(ctx context.Context) (net.Conn, error)
	// Ping reports whether an existing connection is still usable.
	Ping(conn net.Conn) bool
	// Close tears down a real connection once the pool is done with it.
	Close(conn net.Conn) error
	// Fingerprint identifies the backend this factory connects to.
	// Pools stamp connections with a hash of it so connections opened
	// against a replaced backend are never pooled again.
	Fingerprint() string
}

// Pool is a connection pool. Handles acquired from it return to the
// pool when closed; the real connections are reused until they go
// stale, fail validation, or the pool shuts down.
type Pool struct {
	mu       sync.Mutex
	cond     *sync.Cond
	factory  Factory
	config   Config
	breaker  *resilience.CircuitBreaker
	typeCode uint32

	idle   []*PooledConn
	active []*PooledConn

	numOpen int
	closed  bool

	stopSweep chan struct{}
	sweepDone chan struct{}

	// Metrics
	acquireCount    uint64
	acquireSuccess  uint64
	acquireFailed   uint64
	releaseCount    uint64
	badConns        uint64
	claimedOverdue  uint64
	releasedLate    uint64
	recycled        uint64
	discarded       uint64
	ignoredReleases uint64
	hadToWait       uint64
	waitNanos       int64
	checkoutNanos   int64
	overdueNanos    int64
}

// New creates a new connection pool around the given factory.
// Non-positive config fields fall back to defaults.
func New(factory Factory, cfg Config) (*Pool, error) {
	if factory == nil {
		return nil, apperrors.ErrNilFactory
	}
	cfg.applyDefaults()

	p := &Pool{
		factory:   factory,
		config:    cfg,
		typeCode:  typeCodeOf(factory),
		idle:      make([]*PooledConn, 0, cfg.MaxIdle),
		active:    make([]*PooledConn, 0, cfg.MaxActive),
		stopSweep: make(chan struct{}),
		sweepDone: make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)
	p.breaker = p.newBreaker(cfg.Breaker, p.typeCode)

	if cfg.SweepInterval > 0 {
		go p.sweepLoop()
	} else {
		close(p.sweepDone)
	}

	log.WithField("maxActive", cfg.MaxActive).WithField("maxIdle", cfg.MaxIdle).Debug("pool created")
	return p, nil
}

// typeCodeOf hashes a factory's fingerprint into a backend stamp.
func typeCodeOf(f Factory) uint32 {
	h := fnv.New32a()
	h.Write([]byte(f.Fingerprint()))
	return h.Sum32()
}

// newBreaker constructs the circuit breaker guarding the pool's open
// attempts, or nil when disabled. The breaker is named after the
// backend stamp rather than the fingerprint so credentials never reach
// log lines. When the breaker opens the pool drains its idle
// connections; the breaker's state callback runs on its own goroutine,
// so the drain takes the pool lock without deadlocking.
func (p *Pool) newBreaker(cfg BreakerConfig, typeCode uint32) *resilience.CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}
	cb := resilience.NewCircuitBreaker(fmt.Sprintf("backend-%08x", typeCode), resilience.CircuitBreakerConfig{
		FailureThreshold:    cfg.FailureThreshold,
		SuccessThreshold:    cfg.SuccessThreshold,
		Timeout:             cfg.OpenTimeout,
		MaxHalfOpenRequests: cfg.MaxHalfOpenProbes,
	})
	cb.SetStateChangeCallback(func(from, to resilience.CircuitState) {
		resilience.MetricsCallback(from, to)
		if to == resilience.CircuitOpen {
			p.drainIdle()
		}
	})
	return cb
}

// drainIdle closes every idle connection. Runs when the circuit
// breaker opens so connections to a failing backend are not handed out
// while new opens are being rejected.
func (p *Pool) drainIdle() {
	p.mu.Lock()
	f := p.factory
	n := len(p.idle)
	for _, pc := range p.idle {
		pc.Invalidate()
		p.numOpen--
		atomic.AddUint64(&p.discarded, 1)
		go closeQuietly(f, pc.real)
	}
	p.idle = p.idle[:0]
	if n > 0 {
		p.cond.Broadcast()
	}
	p.mu.Unlock()

	if n > 0 {
		log.WithField("closed", n).Warn("backend failing, drained idle connections")
	}
}

// Acquire gets a connection from the pool.
// It reuses an idle connection when one passes validation, opens a new
// one while under the MaxActive limit, claims the oldest overdue
// checkout when the pool is full, and otherwise blocks until a
// connection is released, the context is canceled, or WaitTimeout
// elapses.
func (p *Pool) Acquire(ctx context.Context) (*PooledConn, error) {
	atomic.AddUint64(&p.acquireCount, 1)
	PoolAcquireTotal.Inc()
	timer := metrics.NewTimer(PoolAcquireLatency)

	p.mu.Lock()
	waitTimeout := p.config.WaitTimeout
	p.mu.Unlock()

	// Use configured timeout if context has no deadline
	acquireCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && waitTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, waitTimeout)
		defer cancel()
	}

	badAttempts := 0

	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		if p.closed {
			p.recordAcquireFailure()
			return nil, ErrPoolClosed
		}

		// Check context cancellation
		select {
		case <-acquireCtx.Done():
			p.recordAcquireFailure()
			if errors.Is(acquireCtx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("no connection became available: %w", ErrPoolExhausted)
			}
			return nil, acquireCtx.Err()
		default:
		}

		// Reuse an idle connection
		if pc, ok := p.popIdleLocked(); ok {
			if p.validateLocked(pc) {
				p.checkoutLocked(pc)
				timer.ObserveDuration()
				log.WithField("conn", pc.ID()).Debug("acquired idle connection from pool")
				return pc, nil
			}
			p.retireLocked(pc)
			badAttempts++
			if badAttempts > p.config.MaxIdle+p.config.BadConnTolerance {
				p.recordAcquireFailure()
				return nil, fmt.Errorf("could not get a good connection to the backend: %w", ErrBadBackend)
			}
			continue
		}

		// Open a new connection if under the limit
		if p.numOpen < p.config.MaxActive {
			f, tc, br := p.factory, p.typeCode, p.breaker
			if br != nil && !br.Allow() {
				p.recordAcquireFailure()
				return nil, fmt.Errorf("%w: %w", apperrors.ErrBackendUnavailable, resilience.ErrCircuitOpen)
			}
			p.numOpen++
			p.mu.Unlock()

			real, err := f.Open(acquireCtx)
			if err != nil {
				// Don't count context cancellation as a backend failure
				if br != nil && acquireCtx.Err() == nil {
					br.RecordFailure()
				}
				p.mu.Lock()
				p.numOpen--
				p.cond.Signal()
				p.recordAcquireFailure()
				log.WithError(err).Debug("failed to open new connection")
				return nil, apperrors.Wrap(apperrors.CodeOpenFailed, "open backend connection", err)
			}
			if br != nil {
				br.RecordSuccess()
			}

			p.mu.Lock()
			if p.closed {
				p.numOpen--
				go closeQuietly(f, real)
				p.recordAcquireFailure()
				return nil, ErrPoolClosed
			}
			pc := newPooledConn(real, p, tc)
			p.checkoutLocked(pc)
			timer.ObserveDuration()
			log.WithField("conn", pc.ID()).Debug("opened new connection")
			return pc, nil
		}

		// Pool is full: reclaim the oldest checkout if it is overdue
		if pc := p.claimOverdueLocked(); pc != nil {
			if p.validateLocked(pc) {
				p.checkoutLocked(pc)
				timer.ObserveDuration()
				log.WithField("conn", pc.ID()).Debug("acquired claimed connection")
				return pc, nil
			}
			p.retireLocked(pc)
			badAttempts++
			if badAttempts > p.config.MaxIdle+p.config.BadConnTolerance {
				p.recordAcquireFailure()
				return nil, fmt.Errorf("could not get a good connection to the backend: %w", ErrBadBackend)
			}
			continue
		}

		// Wait for a connection to be released
		log.Debug("waiting for available connection")
		atomic.AddUint64(&p.hadToWait, 1)
		waitStart := time.Now()
		p.waitWithContext(acquireCtx)
		atomic.AddInt64(&p.waitNanos, int64(time.Since(waitStart)))
	}
}

// popIdleLocked takes the oldest idle connection, dropping any that no
// longer match the backend stamp or sat idle past MaxIdleTime (caller
// must hold lock).
func (p *Pool) popIdleLocked() (*PooledConn, bool) {
	for len(p.idle) > 0 {
		pc := p.idle[0]
		p.idle = p.idle[1:]

		if pc.typeCode != p.typeCode {
			log.WithField("conn", pc.ID()).Debug("dropping idle connection from replaced backend")
			p.retireLocked(pc)
			continue
		}

		if pc.SinceLastUse() > p.config.MaxIdleTime {
			log.WithField("conn", pc.ID()).Debug("dropping stale idle connection")
			p.retireLocked(pc)
			continue
		}

		return pc, true
	}
	return nil, false
}

// claimOverdueLocked reclaims the oldest active connection if its
// holder kept it past MaxCheckoutTime. The holder's handle is
// invalidated and the real connection is handed to the claimant under
// a fresh wrapper (caller must hold lock).
func (p *Pool) claimOverdueLocked() *PooledConn {
	if len(p.active) == 0 {
		return nil
	}
	oldest := p.active[0]
	elapsed := time.Since(oldest.checkoutAt)
	if elapsed <= p.config.MaxCheckoutTime {
		return nil
	}

	atomic.AddUint64(&p.claimedOverdue, 1)
	PoolOverdueClaimsTotal.Inc()
	atomic.AddInt64(&p.overdueNanos, int64(elapsed))
	p.active = p.active[1:]
	oldest.Invalidate()
	fresh := oldest.renew()
	log.WithField("conn", fresh.ID()).
		WithField("checkedOutFor", elapsed).
		Warn("claimed overdue connection from slow consumer")
	return fresh
}

// validateLocked reports whether a connection is fit to hand out or
// pool. Probes the backend when pinging is enabled and the connection
// has been unused longer than the grace window. Probe results feed the
// circuit breaker so a backend that keeps killing connections opens it
// (caller must hold lock).
func (p *Pool) validateLocked(pc *PooledConn) bool {
	if !p.config.PingEnabled {
		return true
	}
	if p.config.ValidationGrace > 0 && pc.SinceLastUse() <= p.config.ValidationGrace {
		return true
	}
	if p.factory.Ping(pc.real) {
		if p.breaker != nil {
			p.breaker.RecordSuccess()
		}
		return true
	}
	if p.breaker != nil {
		p.breaker.RecordFailure()
	}
	atomic.AddUint64(&p.badConns, 1)
	PoolValidationFailsTotal.Inc()
	log.WithField("conn", pc.ID()).Debug("connection failed ping")
	return false
}

// validate is the unlocked wrapper used by PooledConn.Healthy.
func (p *Pool) validate(pc *PooledConn) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.validateLocked(pc)
}

// checkoutLocked hands a connection to a consumer (caller must hold lock).
func (p *Pool) checkoutLocked(pc *PooledConn) {
	now := time.Now()
	pc.checkoutAt = now
	pc.lastUsedAt = now
	p.active = append(p.active, pc)
	atomic.AddUint64(&p.acquireSuccess, 1)
	PoolAcquireSuccessTotal.Inc()
}

func (p *Pool) recordAcquireFailure() {
	atomic.AddUint64(&p.acquireFailed, 1)
	PoolAcquireFailedTotal.Inc()
}

// retireLocked invalidates a handle and closes its real connection,
// freeing the slot (caller must hold lock).
func (p *Pool) retireLocked(pc *PooledConn) {
	pc.Invalidate()
	p.numOpen--
	atomic.AddUint64(&p.discarded, 1)
	go closeQuietly(p.factory, pc.real)
	p.cond.Signal()
}

// removeActiveLocked drops a handle from the active list, reporting
// whether it was tracked there (caller must hold lock).
func (p *Pool) removeActiveLocked(pc *PooledConn) bool {
	for i, c := range p.active {
		if c == pc {
			p.active = append(p.active[:i], p.active[i+1:]...)
			return true
		}
	}
	return false
}

// waitWithContext waits for a condition signal or context cancellation.
func (p *Pool) waitWithContext(ctx context.Context) {
	// Start a goroutine to signal on context cancellation
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			p.mu.Lock()
			p.cond.Broadcast()
			p.mu.Unlock()
		case <-done:
		}
	}()
	p.cond.Wait()
	close(done)
}

// Release returns a connection to the pool. The handle dies either
// way; the real connection is pooled under a fresh wrapper when the
// handle was still valid, the connection passes validation, it was not
// kept out past MaxCheckoutTime, it still matches the backend stamp,
// and idle capacity remains. Otherwise it is closed.
//
// A release the pool is not expecting (a double release, or a handle
// whose connection was already reclaimed) is a counted no-op. A handle
// belonging to a different pool returns ErrForeignConn. PooledConn.Close
// swallows both, so consumer cleanup paths never fail.
func (p *Pool) Release(pc *PooledConn) error {
	if pc == nil {
		return nil
	}
	if pc.pool != p {
		atomic.AddUint64(&p.ignoredReleases, 1)
		log.WithField("conn", pc.ID()).Warn("handle released to a pool that did not issue it")
		return apperrors.ErrForeignConn
	}

	atomic.AddUint64(&p.releaseCount, 1)
	PoolReleaseTotal.Inc()

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.removeActiveLocked(pc) {
		atomic.AddUint64(&p.ignoredReleases, 1)
		log.WithField("conn", pc.ID()).Debug("handle not checked out, ignoring release")
		return nil
	}

	heldFor := time.Since(pc.checkoutAt)
	atomic.AddInt64(&p.checkoutNanos, int64(heldFor))

	if p.closed {
		pc.Invalidate()
		p.numOpen--
		go closeQuietly(p.factory, pc.real)
		log.WithField("conn", pc.ID()).Debug("pool closed, closing connection")
		return nil
	}

	if !pc.valid.Load() {
		log.WithField("conn", pc.ID()).Debug("handle was invalidated by its holder, closing connection")
		p.retireLocked(pc)
		return nil
	}

	if heldFor > p.config.MaxCheckoutTime {
		atomic.AddUint64(&p.releasedLate, 1)
		log.WithField("conn", pc.ID()).
			WithField("checkedOutFor", heldFor).
			Debug("connection was checked out too long, closing")
		p.retireLocked(pc)
		return nil
	}

	if !p.validateLocked(pc) {
		log.WithField("conn", pc.ID()).Debug("connection failed validation on release, closing")
		p.retireLocked(pc)
		return nil
	}

	if len(p.idle) < p.config.MaxIdle && pc.typeCode == p.typeCode {
		// The release probe above measures from checkout; the idle
		// staleness clock starts here.
		pc.lastUsedAt = time.Now()
		pc.Invalidate()
		fresh := pc.renew()
		p.idle = append(p.idle, fresh)
		atomic.AddUint64(&p.recycled, 1)
		p.cond.Signal()
		log.WithField("conn", fresh.ID()).Debug("connection returned to pool")
		return nil
	}

	log.WithField("conn", pc.ID()).Debug("no idle capacity for connection, closing")
	p.retireLocked(pc)
	return nil
}

// Discard removes a connection from the pool and closes it immediately.
// Use this when a connection is known to be bad and not worth a
// validation probe on release.
func (p *Pool) Discard(pc *PooledConn) error {
	if pc == nil {
		return nil
	}
	if pc.pool != p {
		atomic.AddUint64(&p.ignoredReleases, 1)
		return apperrors.ErrForeignConn
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.removeActiveLocked(pc) {
		atomic.AddUint64(&p.ignoredReleases, 1)
		return nil
	}

	atomic.AddInt64(&p.checkoutNanos, int64(time.Since(pc.checkoutAt)))
	log.WithField("conn", pc.ID()).Debug("discarding bad connection")
	p.retireLocked(pc)
	return nil
}

// ForceCloseAll closes every connection the pool knows about, idle and
// checked out alike. Handles still held by consumers become invalid.
func (p *Pool) ForceCloseAll() {
	p.mu.Lock()
	n := p.forceCloseAllLocked()
	p.mu.Unlock()

	if n > 0 {
		log.WithField("closed", n).Info("force closed all connections")
	}
}

// forceCloseAllLocked implements ForceCloseAll (caller must hold lock).
func (p *Pool) forceCloseAllLocked() int {
	f := p.factory
	n := 0
	for _, pc := range p.active {
		pc.Invalidate()
		p.numOpen--
		go closeQuietly(f, pc.real)
		n++
	}
	p.active = p.active[:0]
	for _, pc := range p.idle {
		pc.Invalidate()
		p.numOpen--
		go closeQuietly(f, pc.real)
		n++
	}
	p.idle = p.idle[:0]
	p.cond.Broadcast()
	return n
}

// Reconfigure applies a new configuration and force-closes all current
// connections so nothing opened under the old settings lingers.
func (p *Pool) Reconfigure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.config = cfg
	p.breaker = p.newBreaker(cfg.Breaker, p.typeCode)
	n := p.forceCloseAllLocked()
	p.mu.Unlock()

	log.WithField("maxActive", cfg.MaxActive).WithField("closed", n).Info("pool reconfigured")
	return nil
}

// SetBackend swaps the factory the pool opens connections with. All
// current connections are force-closed; the backend stamp changes so
// any connection still in flight against the old backend is closed on
// release instead of pooled.
func (p *Pool) SetBackend(f Factory) error {
	if f == nil {
		return apperrors.ErrNilFactory
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.factory = f
	p.typeCode = typeCodeOf(f)
	p.breaker = p.newBreaker(p.config.Breaker, p.typeCode)
	n := p.forceCloseAllLocked()
	p.mu.Unlock()

	log.WithField("closed", n).Info("backend replaced, all connections closed")
	return nil
}

// Breaker returns the circuit breaker guarding open attempts, or nil
// when disabled. The instance is replaced by Reconfigure and SetBackend.
func (p *Pool) Breaker() *resilience.CircuitBreaker {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.breaker
}

// Close closes the pool and its idle connections. Connections still
// checked out are closed as they are released.
func (p *Pool) Close() error {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}

	p.closed = true
	close(p.stopSweep)

	// Close all idle connections
	f := p.factory
	for _, pc := range p.idle {
		pc.Invalidate()
		p.numOpen--
		go closeQuietly(f, pc.real)
	}
	p.idle = nil

	p.cond.Broadcast()
	p.mu.Unlock()

	// Wait for the sweeper goroutine
	<-p.sweepDone

	log.Debug("pool closed")
	return nil
}

// sweepLoop periodically scans idle connections.
func (p *Pool) sweepLoop() {
	defer close(p.sweepDone)

	p.mu.Lock()
	interval := p.config.SweepInterval
	p.mu.Unlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopSweep:
			return
		case <-ticker.C:
			p.runSweep()
		}
	}
}

// runSweep drops idle connections that went stale or stopped answering pings.
func (p *Pool) runSweep() {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()
		return
	}

	var toClose []net.Conn
	healthy := make([]*PooledConn, 0, len(p.idle))

	for _, pc := range p.idle {
		if pc.SinceLastUse() > p.config.MaxIdleTime {
			pc.Invalidate()
			p.numOpen--
			atomic.AddUint64(&p.discarded, 1)
			toClose = append(toClose, pc.real)
			continue
		}

		if !p.validateLocked(pc) {
			pc.Invalidate()
			p.numOpen--
			atomic.AddUint64(&p.discarded, 1)
			toClose = append(toClose, pc.real)
			continue
		}

		healthy = append(healthy, pc)
	}

	p.idle = healthy
	f := p.factory
	if len(toClose) > 0 {
		// Freed slots must wake waiters blocked on a full pool
		p.cond.Broadcast()
	}
	p.mu.Unlock()

	// Close outside the lock
	for _, c := range toClose {
		go closeQuietly(f, c)
	}

	if len(toClose) > 0 {
		log.WithField("closed", len(toClose)).Debug("sweep removed connections")
	}
}

// closeQuietly closes a real connection, logging failures at debug level.
func closeQuietly(f Factory, c net.Conn) {
	if err := f.Close(c); err != nil {
		log.WithError(err).Debug("closing real connection")
	}
}

// Stats holds pool statistics.
type Stats struct {
	// MaxActive is the configured connection limit.
	MaxActive int
	// MaxIdle is the configured idle pool limit.
	MaxIdle int
	// NumOpen is the current number of open connections.
	NumOpen int
	// NumIdle is the current number of idle connections.
	NumIdle int
	// NumInUse is the number of connections currently checked out.
	NumInUse int
	// AcquireCount is the total number of acquire attempts.
	AcquireCount uint64
	// AcquireSuccess is the number of successful acquires.
	AcquireSuccess uint64
	// AcquireFailed is the number of failed acquires.
	AcquireFailed uint64
	// ReleaseCount is the number of releases.
	ReleaseCount uint64
	// BadConnCount is the number of connections that failed validation.
	BadConnCount uint64
	// ClaimedOverdueCount is the number of connections reclaimed from
	// holders that kept them past MaxCheckoutTime.
	ClaimedOverdueCount uint64
	// ReleasedLateCount is the number of connections closed on release
	// because they were checked out too long.
	ReleasedLateCount uint64
	// Recycled is the number of connections returned to the idle pool.
	Recycled uint64
	// Discarded is the number of connections closed by pool policy.
	Discarded uint64
	// ReleasesIgnored is the number of double or foreign releases swallowed.
	ReleasesIgnored uint64
	// HadToWaitCount is the number of times an acquire had to wait.
	HadToWaitCount uint64
	// AccumulatedWaitTime is the total time acquires spent waiting.
	AccumulatedWaitTime time.Duration
	// AccumulatedCheckoutTime is the total time connections spent checked out.
	AccumulatedCheckoutTime time.Duration
	// AccumulatedOverdueCheckoutTime is the total checkout time of
	// connections that were reclaimed as overdue.
	AccumulatedOverdueCheckoutTime time.Duration
}

// Stats returns current pool statistics.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Stats{
		MaxActive:                      p.config.MaxActive,
		MaxIdle:                        p.config.MaxIdle,
		NumOpen:                        p.numOpen,
		NumIdle:                        len(p.idle),
		NumInUse:                       p.numOpen - len(p.idle),
		AcquireCount:                   atomic.LoadUint64(&p.acquireCount),
		AcquireSuccess:                 atomic.LoadUint64(&p.acquireSuccess),
		AcquireFailed:                  atomic.LoadUint64(&p.acquireFailed),
		ReleaseCount:                   atomic.LoadUint64(&p.releaseCount),
		BadConnCount:                   atomic.LoadUint64(&p.badConns),
		ClaimedOverdueCount:            atomic.LoadUint64(&p.claimedOverdue),
		ReleasedLateCount:              atomic.LoadUint64(&p.releasedLate),
		Recycled:                       atomic.LoadUint64(&p.recycled),
		Discarded:                      atomic.LoadUint64(&p.discarded),
		ReleasesIgnored:                atomic.LoadUint64(&p.ignoredReleases),
		HadToWaitCount:                 atomic.LoadUint64(&p.hadToWait),
		AccumulatedWaitTime:            time.Duration(atomic.LoadInt64(&p.waitNanos)),
		AccumulatedCheckoutTime:        time.Duration(atomic.LoadInt64(&p.checkoutNanos)),
		AccumulatedOverdueCheckoutTime: time.Duration(atomic.LoadInt64(&p.overdueNanos)),
	}
}
