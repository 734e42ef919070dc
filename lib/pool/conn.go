package pool

import (
	"fmt"
	"net"
	"sync/atomic"
	"time"

	apperrors "github.com/go-i2p/connpool/lib/errors"
)

// connSeq hands out process-wide identity tokens for pooled connections.
var connSeq uint64

// PooledConn wraps a real network connection handed out by a Pool.
// It implements net.Conn; Close returns the connection to the pool
// instead of closing it.
//
// Each checkout hands out a wrapper that is valid until released. On
// release the pool invalidates the wrapper and wraps the real
// connection freshly for the next consumer, so a handle kept after
// Close cannot touch a connection now owned by someone else: every
// operation on it fails with ErrConnInvalid.
//
// The identity token returned by ID belongs to the real connection and
// survives re-wrapping. Two wrappers with equal IDs are views of the
// same real connection.
type PooledConn struct {
	real net.Conn
	pool *Pool

	// Identity of the real connection, assigned once at open
	id uint64
	// Stamp of the backend the connection was opened against
	typeCode uint32

	createdAt  time.Time
	lastUsedAt time.Time
	checkoutAt time.Time

	valid atomic.Bool
}

var _ net.Conn = (*PooledConn)(nil)

// newPooledConn wraps a freshly opened real connection. The type code
// is passed in by the pool because it must describe the backend the
// connection was actually opened against, which can differ from the
// pool's current backend if it was swapped mid-open.
func newPooledConn(real net.Conn, p *Pool, typeCode uint32) *PooledConn {
	now := time.Now()
	pc := &PooledConn{
		real:       real,
		pool:       p,
		id:         atomic.AddUint64(&connSeq, 1),
		typeCode:   typeCode,
		createdAt:  now,
		lastUsedAt: now,
	}
	pc.valid.Store(true)
	return pc
}

// renew wraps the same real connection freshly, carrying over its
// identity and timestamps. Called by the pool on release and on
// overdue claims; the old wrapper must be invalidated by the caller.
func (pc *PooledConn) renew() *PooledConn {
	fresh := &PooledConn{
		real:       pc.real,
		pool:       pc.pool,
		id:         pc.id,
		typeCode:   pc.typeCode,
		createdAt:  pc.createdAt,
		lastUsedAt: pc.lastUsedAt,
	}
	fresh.valid.Store(true)
	// Deadlines set by the previous holder must not leak into the next
	fresh.real.SetDeadline(time.Time{})
	return fresh
}

// Invalidate marks the handle permanently dead. All gated operations
// fail with ErrConnInvalid afterwards; the flag is never reset.
// Idempotent. It does not touch the real connection; consumers that
// condemn a handle after an I/O error still Close it, and the pool
// closes the real connection during release.
func (pc *PooledConn) Invalidate() {
	pc.valid.Store(false)
}

// Read reads from the underlying connection.
// Returns ErrConnInvalid if the handle has been released.
func (pc *PooledConn) Read(b []byte) (int, error) {
	if !pc.valid.Load() {
		return 0, apperrors.ErrConnInvalid
	}
	return pc.real.Read(b)
}

// Write writes to the underlying connection.
// Returns ErrConnInvalid if the handle has been released.
func (pc *PooledConn) Write(b []byte) (int, error) {
	if !pc.valid.Load() {
		return 0, apperrors.ErrConnInvalid
	}
	return pc.real.Write(b)
}

// Close releases the connection back to the pool. The real connection
// is only closed when the pool has no room for it, it failed
// validation, or the handle was invalidated. Close never blocks on
// network I/O and is safe to call more than once; repeat calls are
// no-ops.
//
// Close always returns nil. Release bookkeeping problems are logged
// and counted by the pool rather than surfaced here, so cleanup paths
// that close in a defer never fail.
func (pc *PooledConn) Close() error {
	pc.pool.Release(pc)
	return nil
}

// SetDeadline sets the read and write deadlines on the underlying connection.
func (pc *PooledConn) SetDeadline(t time.Time) error {
	if !pc.valid.Load() {
		return apperrors.ErrConnInvalid
	}
	return pc.real.SetDeadline(t)
}

// SetReadDeadline sets the read deadline on the underlying connection.
func (pc *PooledConn) SetReadDeadline(t time.Time) error {
	if !pc.valid.Load() {
		return apperrors.ErrConnInvalid
	}
	return pc.real.SetReadDeadline(t)
}

// SetWriteDeadline sets the write deadline on the underlying connection.
func (pc *PooledConn) SetWriteDeadline(t time.Time) error {
	if !pc.valid.Load() {
		return apperrors.ErrConnInvalid
	}
	return pc.real.SetWriteDeadline(t)
}

// LocalAddr returns the local address of the underlying connection.
// Address accessors stay usable after release.
func (pc *PooledConn) LocalAddr() net.Addr {
	return pc.real.LocalAddr()
}

// RemoteAddr returns the remote address of the underlying connection.
func (pc *PooledConn) RemoteAddr() net.Addr {
	return pc.real.RemoteAddr()
}

// Valid reports whether the handle is still live. A handle stops being
// valid once released, invalidated, claimed as overdue, or force-closed.
func (pc *PooledConn) Valid() bool {
	return pc.valid.Load()
}

// Healthy reports whether the handle is valid and the underlying
// connection passes the pool's validation probe. May trigger a ping.
func (pc *PooledConn) Healthy() bool {
	if !pc.valid.Load() || pc.real == nil {
		return false
	}
	return pc.pool.validate(pc)
}

// ID returns the identity token of the real connection. The token is
// assigned when the connection is first opened and is preserved across
// release and re-acquire.
func (pc *PooledConn) ID() uint64 {
	return pc.id
}

// TypeCode returns the stamp of the backend configuration the
// connection was opened against. The pool refuses to re-pool
// connections whose stamp no longer matches.
func (pc *PooledConn) TypeCode() uint32 {
	return pc.typeCode
}

// Raw returns the underlying connection without any gating. Callers
// must not close it or retain it past release.
func (pc *PooledConn) Raw() net.Conn {
	return pc.real
}

// CreatedAt returns when the real connection was opened.
func (pc *PooledConn) CreatedAt() time.Time {
	return pc.createdAt
}

// LastUsedAt returns when the connection was last checked out or
// returned to the idle pool.
func (pc *PooledConn) LastUsedAt() time.Time {
	return pc.lastUsedAt
}

// CheckedOutAt returns when the connection was handed to its current
// holder, or the zero time for a connection sitting idle.
func (pc *PooledConn) CheckedOutAt() time.Time {
	return pc.checkoutAt
}

// Age returns how long the real connection has existed.
func (pc *PooledConn) Age() time.Duration {
	return time.Since(pc.createdAt)
}

// SinceLastUse returns how long ago the connection was last checked
// out or returned to the idle pool.
func (pc *PooledConn) SinceLastUse() time.Duration {
	return time.Since(pc.lastUsedAt)
}

// CheckoutDuration returns how long the connection has been checked
// out, or zero for a connection sitting idle.
func (pc *PooledConn) CheckoutDuration() time.Duration {
	if pc.checkoutAt.IsZero() {
		return 0
	}
	return time.Since(pc.checkoutAt)
}

// String describes the handle for logs.
func (pc *PooledConn) String() string {
	state := "valid"
	if !pc.valid.Load() {
		state = "invalid"
	}
	return fmt.Sprintf("conn %d (%s)", pc.id, state)
}
