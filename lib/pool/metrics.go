package pool

import "github.com/go-i2p/connpool/lib/metrics"

// Pool utilization metrics
var (
	// PoolConnectionsMax is the configured connection limit.
	PoolConnectionsMax = metrics.NewGauge(
		"connpool_pool_connections_max",
		"Maximum number of connections the pool will open",
	)
	// PoolConnectionsIdleMax is the configured idle pool limit.
	PoolConnectionsIdleMax = metrics.NewGauge(
		"connpool_pool_connections_idle_max",
		"Maximum number of idle connections the pool will keep",
	)
	// PoolConnectionsOpen is the current number of open connections.
	PoolConnectionsOpen = metrics.NewGauge(
		"connpool_pool_connections_open",
		"Current number of open connections",
	)
	// PoolConnectionsIdle is the current number of idle connections.
	PoolConnectionsIdle = metrics.NewGauge(
		"connpool_pool_connections_idle",
		"Current number of idle connections in the pool",
	)
	// PoolConnectionsInUse is the number of connections currently in use.
	PoolConnectionsInUse = metrics.NewGauge(
		"connpool_pool_connections_in_use",
		"Number of connections currently in use",
	)
	// PoolAcquireTotal is the total number of acquire attempts.
	PoolAcquireTotal = metrics.NewCounter(
		"connpool_pool_acquire_total",
		"Total number of connection acquire attempts",
	)
	// PoolAcquireSuccessTotal is the number of successful acquires.
	PoolAcquireSuccessTotal = metrics.NewCounter(
		"connpool_pool_acquire_success_total",
		"Total number of successful connection acquires",
	)
	// PoolAcquireFailedTotal is the number of failed acquires.
	PoolAcquireFailedTotal = metrics.NewCounter(
		"connpool_pool_acquire_failed_total",
		"Total number of failed connection acquires",
	)
	// PoolReleaseTotal is the number of releases.
	PoolReleaseTotal = metrics.NewCounter(
		"connpool_pool_release_total",
		"Total number of connection releases",
	)
	// PoolValidationFailsTotal is the number of validation failures.
	PoolValidationFailsTotal = metrics.NewCounter(
		"connpool_pool_validation_fails_total",
		"Total number of connections that failed validation",
	)
	// PoolOverdueClaimsTotal is the number of overdue checkouts reclaimed.
	PoolOverdueClaimsTotal = metrics.NewCounter(
		"connpool_pool_overdue_claims_total",
		"Total number of connections reclaimed from overdue checkouts",
	)
	// PoolAcquireLatency tracks time spent acquiring connections.
	PoolAcquireLatency = metrics.NewHistogram(
		"connpool_pool_acquire_duration_seconds",
		"Time spent acquiring a connection from the pool",
		metrics.DefaultLatencyBuckets,
	)
)

// UpdateMetrics updates the pool gauges from Stats. Counters are fed
// live by the pool; only point-in-time values need a snapshot.
func UpdateMetrics(stats Stats) {
	PoolConnectionsMax.Set(int64(stats.MaxActive))
	PoolConnectionsIdleMax.Set(int64(stats.MaxIdle))
	PoolConnectionsOpen.Set(int64(stats.NumOpen))
	PoolConnectionsIdle.Set(int64(stats.NumIdle))
	PoolConnectionsInUse.Set(int64(stats.NumInUse))
}
