// poolbench is a load generator for pooled backend connections.
//
// It drives a connection pool against a TCP backend with a configurable
// number of workers at a configurable request rate, and reports pool
// behavior (reuse, validation failures, overdue claims, wait times)
// when the run ends. An optional HTTP endpoint exposes live pool and
// circuit breaker metrics in Prometheus text format.
//
// Usage:
//
//	poolbench [flags]
//
// Flags:
//
//	-config string
//	    Path to configuration file
//	-addr string
//	    Backend address (overrides config)
//	-workers int
//	    Number of concurrent workers (default 8)
//	-rate float
//	    Target request rate per second (default 100)
//	-duration duration
//	    How long to run (default 30s)
//	-metrics string
//	    Metrics listen address (empty disables the endpoint)
//	-watch
//	    Reload pool configuration when the config file changes
//	-v
//	    Enable verbose logging
//	-version
//	    Print version and exit
//
// See https://github.com/go-i2p/connpool for more information.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-i2p/connpool/lib/driver"
	"github.com/go-i2p/connpool/lib/metrics"
	"github.com/go-i2p/connpool/lib/pool"
	"github.com/go-i2p/connpool/lib/resilience"
	"github.com/go-i2p/connpool/lib/validation"
	"github.com/go-i2p/connpool/version"
	toml "github.com/pelletier/go-toml/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Parse command-line flags
	configPath := flag.String("config", "", "Path to configuration file")
	addrFlag := flag.String("addr", "", "Backend address (overrides config)")
	workers := flag.Int("workers", 8, "Number of concurrent workers")
	reqRate := flag.Float64("rate", 100, "Target request rate per second")
	runFor := flag.Duration("duration", 30*time.Second, "How long to run")
	metricsAddr := flag.String("metrics", "", "Metrics listen address (empty disables the endpoint)")
	watch := flag.Bool("watch", false, "Reload pool configuration when the config file changes")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "poolbench - load generator for pooled backend connections\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  poolbench [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	// Handle version flag
	if *showVersion {
		fmt.Printf("poolbench version %s\n", version.Full())
		return 0
	}

	// Set up logging
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	// Validate flags
	var verrs validation.Errors
	verrs.Add(validation.Positive("workers", *workers))
	verrs.Add(validation.PositiveDuration("duration", *runFor))
	if *reqRate <= 0 {
		verrs.Add(validation.NewResult("rate", "must be positive", validation.ErrOutOfRange))
	}
	if *metricsAddr != "" {
		verrs.Add(validation.HostPort("metrics", *metricsAddr))
	}
	if verrs.HasErrors() {
		fmt.Fprintf(os.Stderr, "Invalid flags: %s\n", verrs.Error())
		return 1
	}

	// Start with defaults, then apply config file, then CLI overrides
	poolCfg := pool.DefaultConfig()
	backendCfg := driver.DefaultConfig()

	if *configPath != "" {
		pc, err := pool.LoadConfig(*configPath)
		if err != nil {
			logger.Error("failed to load config", "error", err)
			return 1
		}
		poolCfg = *pc
		if err := loadBackendConfig(*configPath, &backendCfg); err != nil {
			logger.Error("failed to load backend config", "error", err)
			return 1
		}
	}

	if envAddr := os.Getenv("CONNPOOL_ADDR"); envAddr != "" {
		backendCfg.Addr = envAddr
	}
	if *addrFlag != "" {
		backendCfg.Addr = *addrFlag
	}

	// Create the driver and pool
	drv, err := driver.New(backendCfg)
	if err != nil {
		logger.Error("failed to create driver", "error", err)
		return 1
	}

	p, err := pool.New(drv, poolCfg)
	if err != nil {
		logger.Error("failed to create pool", "error", err)
		return 1
	}
	defer p.Close()

	// Create a context that is cancelled on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Reload the pool section of the config file on change
	if *watch {
		if *configPath == "" {
			logger.Warn("-watch has no effect without -config")
		} else {
			cw, err := pool.WatchConfig(*configPath, p)
			if err != nil {
				logger.Error("failed to watch config", "error", err)
				return 1
			}
			defer cw.Close()
		}
	}

	// Probe the backend alongside the bench so the pool's circuit opens
	// while the backend is down and pooled connections get flushed.
	if br := p.Breaker(); br != nil {
		monCfg := resilience.DefaultBackendMonitorConfig()
		monCfg.CheckInterval = 5 * time.Second
		mon := resilience.NewBackendMonitorWithCircuit(backendCfg.Addr, br, monCfg)
		mon.SetCallbacks(
			func() { logger.Warn("backend unhealthy", "addr", backendCfg.Addr) },
			func() { logger.Info("backend healthy again", "addr", backendCfg.Addr) },
			func() error {
				p.ForceCloseAll()
				return nil
			},
		)
		if err := mon.Start(ctx); err != nil {
			logger.Error("failed to start backend monitor", "error", err)
			return 1
		}
		defer mon.Stop()
	}

	// Serve pool and circuit metrics
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: *metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			srv.Shutdown(shutdownCtx)
		}()

		go func() {
			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					pool.UpdateMetrics(p.Stats())
				}
			}
		}()

		logger.Info("metrics endpoint listening", "addr", *metricsAddr)
	}

	logger.Info("poolbench started",
		"addr", backendCfg.Addr,
		"workers", *workers,
		"rate", *reqRate,
		"duration", *runFor,
		"version", version.Version)

	// Run the workers
	benchCtx, benchCancel := context.WithTimeout(ctx, *runFor)
	defer benchCancel()

	limiter := rate.NewLimiter(rate.Limit(*reqRate), *workers)
	payload := []byte(backendCfg.ProbePayload)
	opTimeout := backendCfg.ProbeTimeout

	var bs benchStats
	start := time.Now()

	g, workerCtx := errgroup.WithContext(benchCtx)
	for i := 0; i < *workers; i++ {
		g.Go(func() error {
			return worker(workerCtx, p, limiter, payload, opTimeout, &bs)
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case sig := <-sigChan:
		logger.Info("received signal, stopping", "signal", sig)
		benchCancel()
		<-done
	case err := <-done:
		if err != nil {
			logger.Error("bench run failed", "error", err)
		}
	}
	elapsed := time.Since(start)

	logger.Info("poolbench finished", "elapsed", elapsed.Round(time.Millisecond))
	printSummary(&bs, p.Stats(), elapsed)
	return 0
}

// benchStats counts request outcomes across all workers.
type benchStats struct {
	requests     uint64
	failures     uint64
	latencyNanos int64
}

// worker acquires a pooled connection, performs one request round trip,
// and releases the connection, paced by the shared limiter. Failed
// connections are discarded so the pool replaces them.
func worker(ctx context.Context, p *pool.Pool, limiter *rate.Limiter, payload []byte, timeout time.Duration, bs *benchStats) error {
	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil
		}

		start := time.Now()
		pc, err := p.Acquire(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, pool.ErrPoolClosed) {
				return nil
			}
			atomic.AddUint64(&bs.failures, 1)
			continue
		}

		if err := doRequest(pc, payload, timeout); err != nil {
			atomic.AddUint64(&bs.failures, 1)
			p.Discard(pc)
			continue
		}

		atomic.AddUint64(&bs.requests, 1)
		atomic.AddInt64(&bs.latencyNanos, int64(time.Since(start)))
		pc.Close()
	}
}

// doRequest writes the payload and waits for the backend's one-byte
// answer, the same round trip the driver's probe performs. An empty
// payload turns the bench into pure acquire/release churn.
func doRequest(pc *pool.PooledConn, payload []byte, timeout time.Duration) error {
	if len(payload) == 0 {
		return nil
	}

	if err := pc.SetDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	if _, err := pc.Write(payload); err != nil {
		return err
	}
	buf := make([]byte, 1)
	if _, err := pc.Read(buf); err != nil {
		return err
	}
	return pc.SetDeadline(time.Time{})
}

func printSummary(bs *benchStats, stats pool.Stats, elapsed time.Duration) {
	requests := atomic.LoadUint64(&bs.requests)
	failures := atomic.LoadUint64(&bs.failures)

	fmt.Printf("Requests:     %d\n", requests)
	fmt.Printf("Failures:     %d\n", failures)
	if elapsed > 0 {
		fmt.Printf("Throughput:   %.1f req/s\n", float64(requests)/elapsed.Seconds())
	}
	if requests > 0 {
		avg := time.Duration(atomic.LoadInt64(&bs.latencyNanos) / int64(requests))
		fmt.Printf("Avg Latency:  %s\n", avg.Round(time.Microsecond))
	}

	fmt.Printf("\nPool:\n")
	fmt.Printf("  Open:           %d (%d idle, %d in use)\n", stats.NumOpen, stats.NumIdle, stats.NumInUse)
	fmt.Printf("  Acquires:       %d (%d failed)\n", stats.AcquireCount, stats.AcquireFailed)
	fmt.Printf("  Recycled:       %d\n", stats.Recycled)
	fmt.Printf("  Discarded:      %d\n", stats.Discarded)
	fmt.Printf("  Bad conns:      %d\n", stats.BadConnCount)
	fmt.Printf("  Overdue claims: %d\n", stats.ClaimedOverdueCount)
	fmt.Printf("  Had to wait:    %d times (%s total)\n",
		stats.HadToWaitCount, stats.AccumulatedWaitTime.Round(time.Millisecond))
}

// benchFileConfig mirrors the on-disk layout. The [pool] table is read
// separately by pool.LoadConfig and the pool's config watcher.
type benchFileConfig struct {
	Backend driver.Config `toml:"backend"`
}

// loadBackendConfig overlays the [backend] table of the config file at
// path onto cfg. A missing file leaves cfg untouched.
func loadBackendConfig(path string, cfg *driver.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	fc := benchFileConfig{Backend: *cfg}
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	*cfg = fc.Backend
	return nil
}
