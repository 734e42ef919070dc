// Package testutil provides testing utilities for connpool integration tests.
package testutil

import (
	"net"
	"sync"
	"sync/atomic"
)

// Backend is a fake TCP backend for testing pools and drivers without a
// real server. Its behavior can be changed while running to model a
// backend that rejects new connections, stops answering probes, or
// kills established connections.
type Backend struct {
	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	running  bool
	reject   bool
	silent   bool
	addr     string

	accepted int32
	probes   int32
}

// NewBackend starts a fake backend listening on a random port.
func NewBackend() (*Backend, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	b := &Backend{
		listener: ln,
		conns:    make(map[net.Conn]struct{}),
		running:  true,
		addr:     ln.Addr().String(),
	}

	go b.acceptLoop()

	return b, nil
}

// Addr returns the backend's listen address.
func (b *Backend) Addr() string {
	return b.addr
}

// Reject makes the backend close new connections as they arrive.
func (b *Backend) Reject(v bool) {
	b.mu.Lock()
	b.reject = v
	b.mu.Unlock()
}

// Silence makes the backend stop answering probes. Established
// connections stay open; reads on the client side run into their
// deadlines.
func (b *Backend) Silence(v bool) {
	b.mu.Lock()
	b.silent = v
	b.mu.Unlock()
}

// Accepted returns the number of connections the backend has served.
func (b *Backend) Accepted() int {
	return int(atomic.LoadInt32(&b.accepted))
}

// Probes returns the number of probes answered.
func (b *Backend) Probes() int {
	return int(atomic.LoadInt32(&b.probes))
}

// CloseConns closes every established connection, modeling a backend
// that drops its clients while staying up.
func (b *Backend) CloseConns() {
	b.mu.Lock()
	for c := range b.conns {
		c.Close()
	}
	b.conns = make(map[net.Conn]struct{})
	b.mu.Unlock()
}

// Close shuts the backend down, closing the listener and every
// established connection.
func (b *Backend) Close() error {
	b.mu.Lock()
	b.running = false
	for c := range b.conns {
		c.Close()
	}
	b.conns = make(map[net.Conn]struct{})
	b.mu.Unlock()
	return b.listener.Close()
}

func (b *Backend) acceptLoop() {
	for {
		conn, err := b.listener.Accept()
		if err != nil {
			return
		}

		b.mu.Lock()
		if !b.running || b.reject {
			b.mu.Unlock()
			conn.Close()
			continue
		}
		b.conns[conn] = struct{}{}
		b.mu.Unlock()
		atomic.AddInt32(&b.accepted, 1)

		go b.handleConnection(conn)
	}
}

func (b *Backend) handleConnection(conn net.Conn) {
	defer func() {
		b.mu.Lock()
		delete(b.conns, conn)
		b.mu.Unlock()
		conn.Close()
	}()

	// Answer anything written with a single ack byte, the shape the
	// driver's probe expects.
	buf := make([]byte, 4096)
	for {
		if _, err := conn.Read(buf); err != nil {
			return
		}

		b.mu.Lock()
		silent := b.silent
		b.mu.Unlock()
		if silent {
			continue
		}

		if _, err := conn.Write([]byte("+")); err != nil {
			return
		}
		atomic.AddInt32(&b.probes, 1)
	}
}
