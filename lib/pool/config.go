package pool

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	apperrors "github.com/go-i2p/connpool/lib/errors"
)

// Default configuration values
const (
	DefaultMaxActive        = 10
	DefaultMaxIdle          = 5
	DefaultMaxCheckoutTime  = 20 * time.Second
	DefaultWaitTimeout      = 20 * time.Second
	DefaultMaxIdleTime      = 10 * time.Minute
	DefaultSweepInterval    = 1 * time.Minute
	DefaultBadConnTolerance = 3
)

// Config configures the connection pool.
type Config struct {
	// MaxActive is the maximum number of connections the pool will open,
	// counting both idle and checked-out connections.
	MaxActive int `toml:"max_active"`
	// MaxIdle is the maximum number of idle connections kept for reuse.
	// Released connections beyond this limit are closed.
	MaxIdle int `toml:"max_idle"`
	// MaxCheckoutTime is how long a connection may stay checked out before
	// it is considered overdue. Overdue connections can be reclaimed by
	// waiting acquirers and are closed instead of pooled on release.
	MaxCheckoutTime time.Duration `toml:"max_checkout_time"`
	// WaitTimeout is how long Acquire waits for a free slot when the pool
	// is exhausted and the caller's context carries no deadline.
	WaitTimeout time.Duration `toml:"wait_timeout"`
	// MaxIdleTime is how long an idle connection can stay in the pool.
	// Connections idle longer than this are closed.
	MaxIdleTime time.Duration `toml:"max_idle_time"`
	// SweepInterval is how often the background sweeper scans idle
	// connections for staleness and health. Set to 0 to disable.
	SweepInterval time.Duration `toml:"sweep_interval"`
	// PingEnabled controls whether connections are probed before handout
	// and after release.
	PingEnabled bool `toml:"ping_enabled"`
	// ValidationGrace skips the probe for connections used within this
	// window. Zero means probe every time when PingEnabled is set.
	ValidationGrace time.Duration `toml:"validation_grace"`
	// BadConnTolerance is how many dead connections beyond MaxIdle a
	// single acquire tolerates before giving up on the backend.
	BadConnTolerance int `toml:"bad_conn_tolerance"`
	// Breaker configures the circuit breaker guarding open attempts.
	Breaker BreakerConfig `toml:"breaker"`
}

// BreakerConfig configures the pool's circuit breaker.
type BreakerConfig struct {
	// Enabled controls whether open attempts go through a circuit breaker.
	Enabled bool `toml:"enabled"`
	// FailureThreshold is the number of failed opens before the circuit trips.
	FailureThreshold int `toml:"failure_threshold"`
	// SuccessThreshold is the number of successful opens in half-open
	// state before the circuit closes again.
	SuccessThreshold int `toml:"success_threshold"`
	// OpenTimeout is how long the circuit stays open before probing.
	OpenTimeout time.Duration `toml:"open_timeout"`
	// MaxHalfOpenProbes is the number of trial opens allowed while half-open.
	MaxHalfOpenProbes int `toml:"max_half_open_probes"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxActive:        DefaultMaxActive,
		MaxIdle:          DefaultMaxIdle,
		MaxCheckoutTime:  DefaultMaxCheckoutTime,
		WaitTimeout:      DefaultWaitTimeout,
		MaxIdleTime:      DefaultMaxIdleTime,
		SweepInterval:    DefaultSweepInterval,
		PingEnabled:      false,
		ValidationGrace:  0,
		BadConnTolerance: DefaultBadConnTolerance,
		Breaker: BreakerConfig{
			Enabled:           false,
			FailureThreshold:  5,
			SuccessThreshold:  2,
			OpenTimeout:       30 * time.Second,
			MaxHalfOpenProbes: 3,
		},
	}
}

// fileConfig is the on-disk shape. Pool settings live under the [pool]
// table so the same file can carry other sections, like the backend
// address for the driver package.
type fileConfig struct {
	Pool Config `toml:"pool"`
}

// LoadConfig reads pool configuration from a TOML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(path string) (*Config, error) {
	fc := fileConfig{Pool: DefaultConfig()}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := fc.Pool
			return &cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := fc.Pool.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cfg := fc.Pool
	return &cfg, nil
}

// SaveConfig writes the pool configuration to a TOML file.
// It creates the parent directory if it doesn't exist.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(fileConfig{Pool: *cfg})
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.MaxActive < 1 {
		return fmt.Errorf("pool.max_active must be at least 1: %w", apperrors.ErrConfiguration)
	}
	if c.MaxIdle < 0 {
		return fmt.Errorf("pool.max_idle must not be negative: %w", apperrors.ErrConfiguration)
	}
	if c.MaxCheckoutTime <= 0 {
		return fmt.Errorf("pool.max_checkout_time must be positive: %w", apperrors.ErrConfiguration)
	}
	if c.WaitTimeout <= 0 {
		return fmt.Errorf("pool.wait_timeout must be positive: %w", apperrors.ErrConfiguration)
	}
	if c.MaxIdleTime <= 0 {
		return fmt.Errorf("pool.max_idle_time must be positive: %w", apperrors.ErrConfiguration)
	}
	if c.SweepInterval < 0 {
		return fmt.Errorf("pool.sweep_interval must not be negative: %w", apperrors.ErrConfiguration)
	}
	if c.ValidationGrace < 0 {
		return fmt.Errorf("pool.validation_grace must not be negative: %w", apperrors.ErrConfiguration)
	}
	if c.BadConnTolerance < 0 {
		return fmt.Errorf("pool.bad_conn_tolerance must not be negative: %w", apperrors.ErrConfiguration)
	}
	if c.Breaker.Enabled {
		if c.Breaker.FailureThreshold < 1 {
			return fmt.Errorf("pool.breaker.failure_threshold must be at least 1: %w", apperrors.ErrConfiguration)
		}
		if c.Breaker.SuccessThreshold < 1 {
			return fmt.Errorf("pool.breaker.success_threshold must be at least 1: %w", apperrors.ErrConfiguration)
		}
		if c.Breaker.OpenTimeout <= 0 {
			return fmt.Errorf("pool.breaker.open_timeout must be positive: %w", apperrors.ErrConfiguration)
		}
	}
	return nil
}

// applyDefaults fills unset fields with defaults so a zero-value
// Config behaves sensibly when passed to New. MaxIdle zero is kept as
// is; it means no connections are pooled between checkouts.
func (c *Config) applyDefaults() {
	if c.MaxActive <= 0 {
		c.MaxActive = DefaultMaxActive
	}
	if c.MaxIdle < 0 {
		c.MaxIdle = DefaultMaxIdle
	}
	if c.MaxCheckoutTime <= 0 {
		c.MaxCheckoutTime = DefaultMaxCheckoutTime
	}
	if c.WaitTimeout <= 0 {
		c.WaitTimeout = DefaultWaitTimeout
	}
	if c.MaxIdleTime <= 0 {
		c.MaxIdleTime = DefaultMaxIdleTime
	}
	if c.BadConnTolerance < 0 {
		c.BadConnTolerance = DefaultBadConnTolerance
	}
}
