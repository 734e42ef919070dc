// Package driver provides the reference Factory implementation: plain
// TCP connections to a single backend address.
package driver

import (
	"context"
	"fmt"
	"net"
	"time"

	apperrors "github.com/go-i2p/connpool/lib/errors"
	"github.com/go-i2p/connpool/lib/validation"
)

// Default configuration values
const (
	DefaultAddr         = "127.0.0.1:9900"
	DefaultDialTimeout  = 10 * time.Second
	DefaultProbeTimeout = 2 * time.Second
	DefaultProbePayload = "PING\n"
)

// Config configures the TCP driver.
type Config struct {
	// Addr is the backend address to dial, host:port.
	Addr string `toml:"addr"`
	// DialTimeout bounds how long Open waits for a connection.
	DialTimeout time.Duration `toml:"dial_timeout"`
	// ProbeTimeout bounds the probe round trip in Ping.
	ProbeTimeout time.Duration `toml:"probe_timeout"`
	// ProbePayload is written to the backend during a probe; the
	// backend must answer with at least one byte. When empty, Ping
	// trusts any present connection without a round trip.
	ProbePayload string `toml:"probe_payload"`
	// Username and Password identify the client to the backend. They
	// take part in the pool's backend stamp, so changing credentials
	// retires pooled connections.
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:         DefaultAddr,
		DialTimeout:  DefaultDialTimeout,
		ProbeTimeout: DefaultProbeTimeout,
		ProbePayload: DefaultProbePayload,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	err := validation.All(
		func() error { return validation.BackendAddr("backend.addr", c.Addr) },
		func() error { return validation.NonNegativeDuration("backend.dial_timeout", c.DialTimeout) },
		func() error { return validation.NonNegativeDuration("backend.probe_timeout", c.ProbeTimeout) },
		func() error { return validation.ProbePayload("backend.probe_payload", c.ProbePayload) },
		func() error { return validation.Credential("backend.username", c.Username) },
		func() error { return validation.Credential("backend.password", c.Password) },
	)
	if err != nil {
		return fmt.Errorf("%s: %w", err, apperrors.ErrConfiguration)
	}
	return nil
}

// applyDefaults fills unset timeouts. The probe payload is left alone;
// an empty payload is how probing is turned into a shallow check.
func (c *Config) applyDefaults() {
	if c.DialTimeout <= 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = DefaultProbeTimeout
	}
}

// TCP opens plain TCP connections to a fixed backend address. It
// implements the pool's Factory interface.
type TCP struct {
	cfg Config
}

// New creates a TCP driver from the given configuration.
func New(cfg Config) (*TCP, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &TCP{cfg: cfg}, nil
}

// Addr returns the backend address the driver dials.
func (d *TCP) Addr() string {
	return d.cfg.Addr
}

// Open dials the backend.
func (d *TCP) Open(ctx context.Context) (net.Conn, error) {
	dialer := net.Dialer{Timeout: d.cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", d.cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", d.cfg.Addr, err)
	}
	log.WithField("addr", d.cfg.Addr).Debug("opened backend connection")
	return conn, nil
}

// Ping probes a connection by writing the configured payload and
// waiting for the backend to answer. Both legs run under ProbeTimeout;
// the deadline is cleared again on success. A failed probe leaves the
// connection with an expired deadline, which is fine because the pool
// closes connections that fail their probe.
func (d *TCP) Ping(conn net.Conn) bool {
	if conn == nil {
		return false
	}
	if d.cfg.ProbePayload == "" {
		return true
	}

	if err := conn.SetDeadline(time.Now().Add(d.cfg.ProbeTimeout)); err != nil {
		return false
	}

	if _, err := conn.Write([]byte(d.cfg.ProbePayload)); err != nil {
		return false
	}

	buf := make([]byte, 1)
	if _, err := conn.Read(buf); err != nil {
		return false
	}

	conn.SetDeadline(time.Time{})
	return true
}

// Close tears down a real connection.
func (d *TCP) Close(conn net.Conn) error {
	if conn == nil {
		return nil
	}
	if err := conn.Close(); err != nil {
		log.WithError(err).Debug("closing backend connection")
		return err
	}
	return nil
}

// Fingerprint identifies the backend by address and credentials.
func (d *TCP) Fingerprint() string {
	return d.cfg.Addr + "|" + d.cfg.Username + "|" + d.cfg.Password
}
