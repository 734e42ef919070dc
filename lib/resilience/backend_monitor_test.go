package resilience

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestBackendMonitorDefaultConfig(t *testing.T) {
	cfg := DefaultBackendMonitorConfig()
	if cfg.CheckInterval <= 0 {
		t.Error("CheckInterval should be positive")
	}
	if cfg.ProbeTimeout <= 0 {
		t.Error("ProbeTimeout should be positive")
	}
	if cfg.CircuitBreaker.FailureThreshold <= 0 {
		t.Error("CircuitBreaker.FailureThreshold should be positive")
	}
}

func TestBackendMonitorInitialState(t *testing.T) {
	bm := NewBackendMonitor("test", "127.0.0.1:5432", DefaultBackendMonitorConfig())
	defer bm.Stop()

	if !bm.IsHealthy() {
		t.Error("expected initial state to be healthy")
	}
	if bm.CircuitState() != CircuitClosed {
		t.Errorf("expected initial circuit state Closed, got %v", bm.CircuitState())
	}
}

func TestBackendMonitorStats(t *testing.T) {
	bm := NewBackendMonitor("test-stats", "127.0.0.1:5432", DefaultBackendMonitorConfig())
	defer bm.Stop()

	stats := bm.Stats()
	if !stats.IsHealthy {
		t.Error("expected initial health to be true")
	}
	if stats.CircuitBreaker.State != CircuitClosed {
		t.Errorf("expected circuit state Closed, got %v", stats.CircuitBreaker.State)
	}
}

func TestBackendMonitorAllow(t *testing.T) {
	bm := NewBackendMonitor("test", "127.0.0.1:5432", DefaultBackendMonitorConfig())
	defer bm.Stop()

	// Should allow initially
	if !bm.Allow() {
		t.Error("expected Allow to return true initially")
	}
}

func TestBackendMonitorSharedCircuit(t *testing.T) {
	circuit := NewCircuitBreaker("shared", DefaultCircuitBreakerConfig())
	bm := NewBackendMonitorWithCircuit("127.0.0.1:1", circuit, BackendMonitorConfig{
		CheckInterval: 1 * time.Hour,
		ProbeTimeout:  10 * time.Millisecond,
	})
	defer bm.Stop()

	if bm.Circuit() != circuit {
		t.Fatal("expected monitor to drive the provided circuit")
	}

	// A failed probe must be visible on the shared circuit
	bm.ForceCheck()
	if circuit.Stats().FailureCount == 0 {
		t.Error("expected failed probe to record on shared circuit")
	}
}

func TestBackendMonitorReset(t *testing.T) {
	cfg := BackendMonitorConfig{
		CircuitBreaker: CircuitBreakerConfig{
			FailureThreshold:    1,
			SuccessThreshold:    1,
			Timeout:             1 * time.Second,
			MaxHalfOpenRequests: 1,
		},
		CheckInterval: 1 * time.Second,
		ProbeTimeout:  100 * time.Millisecond,
	}
	bm := NewBackendMonitor("test", "127.0.0.1:5432", cfg)
	defer bm.Stop()

	// Force open state via circuit breaker
	bm.circuit.ForceOpen()

	if bm.CircuitState() != CircuitOpen {
		t.Error("expected circuit to be open")
	}

	bm.Reset()

	if !bm.IsHealthy() {
		t.Error("expected IsHealthy to be true after reset")
	}
	if bm.CircuitState() != CircuitClosed {
		t.Error("expected circuit to be closed after reset")
	}
}

func TestBackendMonitorExecute(t *testing.T) {
	bm := NewBackendMonitor("test", "127.0.0.1:5432", DefaultBackendMonitorConfig())
	defer bm.Stop()

	executed := false
	err := bm.Execute(func() error {
		executed = true
		return nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if !executed {
		t.Error("expected function to be executed")
	}
}

func TestBackendMonitorExecuteWithContext(t *testing.T) {
	bm := NewBackendMonitor("test", "127.0.0.1:5432", DefaultBackendMonitorConfig())
	defer bm.Stop()

	ctx := context.Background()
	executed := false
	err := bm.ExecuteWithContext(ctx, func(c context.Context) error {
		executed = true
		return nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if !executed {
		t.Error("expected function to be executed")
	}
}

func TestBackendMonitorSetCallbacks(t *testing.T) {
	bm := NewBackendMonitor("test", "127.0.0.1:5432", DefaultBackendMonitorConfig())
	defer bm.Stop()

	unhealthyCalled := false
	healthyCalled := false
	recoverCalled := false

	bm.SetCallbacks(
		func() { unhealthyCalled = true },
		func() { healthyCalled = true },
		func() error { recoverCalled = true; return nil },
	)

	// Just verify callbacks are set without error
	_ = unhealthyCalled
	_ = healthyCalled
	_ = recoverCalled
}

func TestBackendMonitorStartStop(t *testing.T) {
	cfg := BackendMonitorConfig{
		CircuitBreaker: DefaultCircuitBreakerConfig(),
		CheckInterval:  50 * time.Millisecond,
		ProbeTimeout:   10 * time.Millisecond,
	}
	bm := NewBackendMonitor("test", "127.0.0.1:5432", cfg)

	ctx := context.Background()
	err := bm.Start(ctx)
	if err != nil {
		t.Errorf("expected no error starting, got %v", err)
	}

	// Double start should be ok
	err = bm.Start(ctx)
	if err != nil {
		t.Errorf("expected no error on double start, got %v", err)
	}

	bm.Stop()

	// Double stop should be ok
	bm.Stop()
}

func TestBackendMonitorWithRealListener(t *testing.T) {
	// Start a real TCP listener to simulate the backend
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	defer listener.Close()

	cfg := BackendMonitorConfig{
		CircuitBreaker: CircuitBreakerConfig{
			FailureThreshold:    2,
			SuccessThreshold:    1,
			Timeout:             100 * time.Millisecond,
			MaxHalfOpenRequests: 1,
		},
		CheckInterval: 50 * time.Millisecond,
		ProbeTimeout:  100 * time.Millisecond,
	}

	bm := NewBackendMonitor("test", listener.Addr().String(), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = bm.Start(ctx)
	if err != nil {
		t.Fatalf("failed to start: %v", err)
	}
	defer bm.Stop()

	// Wait for first health check
	time.Sleep(60 * time.Millisecond)

	// Should be healthy since listener is up
	if !bm.IsHealthy() {
		t.Error("expected healthy with listener up")
	}
	if bm.CircuitState() != CircuitClosed {
		t.Errorf("expected circuit closed, got %v", bm.CircuitState())
	}
}

func TestBackendMonitorProbeFailure(t *testing.T) {
	cfg := BackendMonitorConfig{
		CircuitBreaker: CircuitBreakerConfig{
			FailureThreshold:    2,
			SuccessThreshold:    1,
			Timeout:             10 * time.Second,
			MaxHalfOpenRequests: 1,
		},
		CheckInterval: 50 * time.Millisecond,
		ProbeTimeout:  10 * time.Millisecond,
	}

	// Use an address that will fail
	bm := NewBackendMonitor("test", "127.0.0.1:1", cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := bm.Start(ctx)
	if err != nil {
		t.Fatalf("failed to start: %v", err)
	}
	defer bm.Stop()

	// Wait for checks to fail
	time.Sleep(150 * time.Millisecond)

	// Should be unhealthy
	if bm.IsHealthy() {
		t.Error("expected unhealthy with no listener")
	}

	// Circuit should be open after failures
	if bm.CircuitState() != CircuitOpen {
		t.Errorf("expected circuit open, got %v", bm.CircuitState())
	}
}

func TestBackendMonitorForceCheck(t *testing.T) {
	cfg := BackendMonitorConfig{
		CircuitBreaker: DefaultCircuitBreakerConfig(),
		CheckInterval:  1 * time.Hour, // Long interval
		ProbeTimeout:   10 * time.Millisecond,
	}

	bm := NewBackendMonitor("test", "127.0.0.1:1", cfg)
	defer bm.Stop()

	// Initial state
	if bm.LastCheck().IsZero() {
		// Force a check
		bm.ForceCheck()
	}

	lastCheck := bm.LastCheck()
	if lastCheck.IsZero() {
		t.Error("expected LastCheck to be set after ForceCheck")
	}
}

func TestBackendMonitorLastHealthy(t *testing.T) {
	// Start a real TCP listener
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	defer listener.Close()

	cfg := BackendMonitorConfig{
		CircuitBreaker: DefaultCircuitBreakerConfig(),
		CheckInterval:  1 * time.Hour,
		ProbeTimeout:   100 * time.Millisecond,
	}

	bm := NewBackendMonitor("test", listener.Addr().String(), cfg)
	defer bm.Stop()

	// Force a check
	bm.ForceCheck()

	lastHealthy := bm.LastHealthy()
	if lastHealthy.IsZero() {
		t.Error("expected LastHealthy to be set after successful check")
	}
}
