package resilience

import (
	"context"
	"net"
	"sync"
	"time"
)

// BackendMonitorConfig configures the backend monitor with circuit breaker.
type BackendMonitorConfig struct {
	// CircuitBreaker configuration
	CircuitBreaker CircuitBreakerConfig

	// Health check configuration
	CheckInterval time.Duration
	ProbeTimeout  time.Duration
}

// DefaultBackendMonitorConfig returns sensible defaults.
func DefaultBackendMonitorConfig() BackendMonitorConfig {
	return BackendMonitorConfig{
		CircuitBreaker: DefaultCircuitBreakerConfig(),
		CheckInterval:  30 * time.Second,
		ProbeTimeout:   5 * time.Second,
	}
}

// BackendMonitor integrates backend health monitoring with the circuit
// breaker pattern. It periodically probes the backend address and uses
// the results to drive circuit state, so a pool sharing the circuit
// stops opening connections while the backend is down.
type BackendMonitor struct {
	mu     sync.RWMutex
	config BackendMonitorConfig

	// Backend address to monitor
	addr string

	// Circuit breaker, possibly shared with a pool
	circuit *CircuitBreaker

	// Health check state
	lastCheck   time.Time
	lastHealthy time.Time
	isHealthy   bool

	// Callbacks
	onUnhealthy func()
	onHealthy   func()
	onRecover   func() error

	// Control
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewBackendMonitor creates a backend monitor with its own circuit breaker.
func NewBackendMonitor(name, addr string, cfg BackendMonitorConfig) *BackendMonitor {
	bm := newBackendMonitor(addr, cfg)
	bm.circuit = NewCircuitBreaker(name+"-circuit", cfg.CircuitBreaker)

	// Set up circuit state change callback for logging and metrics
	bm.circuit.SetStateChangeCallback(func(from, to CircuitState) {
		log.WithField("name", name).
			WithField("from", from.String()).
			WithField("to", to.String()).
			Info("circuit state changed")
		MetricsCallback(from, to)
	})

	return bm
}

// NewBackendMonitorWithCircuit creates a backend monitor that drives an
// existing circuit breaker, typically the one a pool consults before
// opening connections. The caller keeps ownership of the circuit's
// state change callback.
func NewBackendMonitorWithCircuit(addr string, circuit *CircuitBreaker, cfg BackendMonitorConfig) *BackendMonitor {
	bm := newBackendMonitor(addr, cfg)
	bm.circuit = circuit
	return bm
}

func newBackendMonitor(addr string, cfg BackendMonitorConfig) *BackendMonitor {
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = DefaultBackendMonitorConfig().CheckInterval
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = DefaultBackendMonitorConfig().ProbeTimeout
	}

	return &BackendMonitor{
		config:    cfg,
		addr:      addr,
		isHealthy: true, // Optimistic start
	}
}

// SetCallbacks sets the callbacks for health state changes. The recover
// callback runs while the circuit is open and should re-establish
// backend connectivity, for example by flushing a pool's stale idle
// connections.
func (bm *BackendMonitor) SetCallbacks(onUnhealthy, onHealthy func(), onRecover func() error) {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	bm.onUnhealthy = onUnhealthy
	bm.onHealthy = onHealthy
	bm.onRecover = onRecover
}

// Start begins health monitoring.
func (bm *BackendMonitor) Start(ctx context.Context) error {
	bm.mu.Lock()
	if bm.running {
		bm.mu.Unlock()
		return nil
	}
	bm.running = true
	ctx, cancel := context.WithCancel(ctx)
	bm.cancel = cancel
	bm.mu.Unlock()

	log.WithField("addr", bm.addr).
		WithField("checkInterval", bm.config.CheckInterval).
		Debug("starting backend monitor")

	bm.wg.Add(1)
	go func() {
		defer bm.wg.Done()
		bm.monitorLoop(ctx)
	}()

	return nil
}

// Stop halts health monitoring.
func (bm *BackendMonitor) Stop() {
	bm.mu.Lock()
	if !bm.running {
		bm.mu.Unlock()
		return
	}
	bm.running = false
	bm.cancel()
	bm.mu.Unlock()

	bm.wg.Wait()
	log.Debug("backend monitor stopped")
}

// monitorLoop periodically probes the backend.
func (bm *BackendMonitor) monitorLoop(ctx context.Context) {
	// Initial check
	bm.checkHealth()

	ticker := time.NewTicker(bm.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			bm.checkHealth()
		}
	}
}

// checkHealth performs a health check and updates circuit breaker state.
func (bm *BackendMonitor) checkHealth() {
	bm.mu.Lock()
	bm.lastCheck = time.Now()
	wasHealthy := bm.isHealthy
	onUnhealthy := bm.onUnhealthy
	onHealthy := bm.onHealthy
	onRecover := bm.onRecover
	bm.mu.Unlock()

	healthy := bm.probeBackend()

	bm.mu.Lock()
	bm.isHealthy = healthy
	if healthy {
		bm.lastHealthy = time.Now()
	}
	bm.mu.Unlock()

	if healthy {
		bm.circuit.RecordSuccess()
		if !wasHealthy && onHealthy != nil {
			log.Debug("backend reachable again, invoking onHealthy callback")
			go onHealthy()
		}
	} else {
		bm.circuit.RecordFailure()
		if wasHealthy && onUnhealthy != nil {
			log.Debug("backend unreachable, invoking onUnhealthy callback")
			go onUnhealthy()
		}

		// Attempt recovery if circuit is open
		if bm.circuit.IsOpen() && onRecover != nil {
			log.Debug("circuit open, attempting recovery")
			go func() {
				if err := onRecover(); err != nil {
					log.WithError(err).Warn("recovery attempt failed")
				}
			}()
		}
	}
}

// probeBackend attempts to connect to the backend address.
func (bm *BackendMonitor) probeBackend() bool {
	conn, err := net.DialTimeout("tcp", bm.addr, bm.config.ProbeTimeout)
	if err != nil {
		log.WithError(err).Debug("backend probe failed")
		return false
	}
	conn.Close()
	return true
}

// Execute runs the given function if the circuit allows it.
// Use this to wrap backend operations with circuit breaker protection.
func (bm *BackendMonitor) Execute(fn func() error) error {
	return bm.circuit.Execute(fn)
}

// ExecuteWithContext runs the given function with context awareness.
func (bm *BackendMonitor) ExecuteWithContext(ctx context.Context, fn func(context.Context) error) error {
	return bm.circuit.ExecuteWithContext(ctx, fn)
}

// Allow checks if operations should be allowed based on circuit state.
func (bm *BackendMonitor) Allow() bool {
	return bm.circuit.Allow()
}

// Circuit returns the circuit breaker driven by this monitor.
func (bm *BackendMonitor) Circuit() *CircuitBreaker {
	return bm.circuit
}

// CircuitState returns the current circuit breaker state.
func (bm *BackendMonitor) CircuitState() CircuitState {
	return bm.circuit.State()
}

// IsHealthy returns true if the last health check passed.
func (bm *BackendMonitor) IsHealthy() bool {
	bm.mu.RLock()
	defer bm.mu.RUnlock()
	return bm.isHealthy
}

// LastCheck returns the time of the last health check.
func (bm *BackendMonitor) LastCheck() time.Time {
	bm.mu.RLock()
	defer bm.mu.RUnlock()
	return bm.lastCheck
}

// LastHealthy returns when the backend was last reachable.
func (bm *BackendMonitor) LastHealthy() time.Time {
	bm.mu.RLock()
	defer bm.mu.RUnlock()
	return bm.lastHealthy
}

// Stats returns combined health and circuit breaker statistics.
func (bm *BackendMonitor) Stats() BackendMonitorStats {
	bm.mu.RLock()
	defer bm.mu.RUnlock()

	return BackendMonitorStats{
		IsHealthy:      bm.isHealthy,
		LastCheck:      bm.lastCheck,
		LastHealthy:    bm.lastHealthy,
		CircuitBreaker: bm.circuit.Stats(),
	}
}

// BackendMonitorStats holds combined statistics.
type BackendMonitorStats struct {
	IsHealthy      bool
	LastCheck      time.Time
	LastHealthy    time.Time
	CircuitBreaker CircuitBreakerStats
}

// ForceCheck triggers an immediate health check.
func (bm *BackendMonitor) ForceCheck() {
	bm.checkHealth()
}

// Reset resets both the circuit breaker and health state.
func (bm *BackendMonitor) Reset() {
	bm.mu.Lock()
	bm.isHealthy = true
	bm.mu.Unlock()
	bm.circuit.Reset()
}
