// Package pool provides a connection pool that wraps real network
// connections in handles whose Close returns them to the pool instead
// of tearing them down.
//
// The pool supports:
//   - Configurable limits on open and idle connections
//   - Ping validation with a grace window for recently used connections
//   - Reclaiming connections from consumers that hold them too long
//   - Circuit breaking on backend dial failures
//   - Metrics for pool utilization
//   - Context-aware acquisition with timeout support
//
// # Basic Usage
//
//	cfg := pool.DefaultConfig()
//	cfg.MaxActive = 10
//	cfg.MaxIdle = 5
//
//	p, err := pool.New(factory, cfg)
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	conn, err := p.Acquire(ctx)
//	if err != nil {
//	    return err
//	}
//	defer conn.Close() // returns the connection to the pool
//
//	// Use conn like any net.Conn...
//
// # Handle Semantics
//
// Acquire returns a *PooledConn implementing net.Conn. Closing it
// releases the underlying connection back to the pool; the handle
// itself becomes invalid and any further I/O on it fails with
// ErrConnInvalid. A healthy released connection re-enters the idle
// list under a fresh handle, so a consumer that keeps using a stale
// handle can never touch a connection now owned by someone else.
//
// Call Invalidate before Close to make the pool discard the real
// connection instead of pooling it, for example after an I/O error
// that leaves the connection in an unknown state.
//
// # Validation
//
// When PingEnabled is set, the pool probes connections with the
// factory's Ping before handing them out and before pooling them on
// release. Connections used within ValidationGrace skip the probe.
//
// # Metrics
//
// Pool utilization metrics are automatically registered with the metrics package:
//   - connpool_pool_connections_max: Configured connection limit
//   - connpool_pool_connections_idle_max: Configured idle limit
//   - connpool_pool_connections_open: Current open connections
//   - connpool_pool_connections_idle: Current idle connections
//   - connpool_pool_connections_in_use: Connections currently in use
//   - connpool_pool_acquire_total: Total acquire attempts
//   - connpool_pool_acquire_success_total: Successful acquires
//   - connpool_pool_acquire_failed_total: Failed acquires
//   - connpool_pool_release_total: Total releases
//   - connpool_pool_validation_fails_total: Validation failures
//   - connpool_pool_overdue_claims_total: Overdue checkouts reclaimed
//   - connpool_pool_acquire_duration_seconds: Acquire latency histogram
package pool
