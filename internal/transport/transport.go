// Package transport
// Author: momentics <momentics@gmail.com>
//
// Platform-independent listener facade with a poll-timeout Accept.

package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"syscall"
	"time"
)

// ErrAcceptTimeout is returned by Accept when no connection arrived within the poll interval.
var ErrAcceptTimeout = errors.New("accept timeout")

// ErrListenerClosed is returned by Accept after Close.
var ErrListenerClosed = errors.New("listener closed")

// Listener wraps a TCP listener whose Accept returns after at most the poll interval.
type Listener struct {
	ln   *net.TCPListener
	poll time.Duration

	mu     sync.Mutex
	closed bool
}

// ListenOption tunes the listening socket before bind. Options are applied on
// Linux and ignored elsewhere.
type ListenOption func(*listenOptions)

type listenOptions struct {
	reusePort   bool
	deferAccept time.Duration
}

// WithReusePort sets SO_REUSEPORT, letting several listeners share one port.
func WithReusePort(on bool) ListenOption {
	return func(o *listenOptions) { o.reusePort = on }
}

// WithDeferAccept sets TCP_DEFER_ACCEPT: the kernel completes Accept only once
// request bytes arrived or d elapsed. Rounded up to whole seconds; zero disables.
func WithDeferAccept(d time.Duration) ListenOption {
	return func(o *listenOptions) { o.deferAccept = d }
}

// deferSeconds converts the defer-accept window to the kernel's unit.
func (o listenOptions) deferSeconds() int {
	if o.deferAccept <= 0 {
		return 0
	}
	return int((o.deferAccept + time.Second - 1) / time.Second)
}

// Listen binds addr ("host:port") with the socket options applied.
// A non-positive poll disables the accept deadline.
func Listen(ctx context.Context, addr string, poll time.Duration, opts ...ListenOption) (*Listener, error) {
	var o listenOptions
	for _, opt := range opts {
		opt(&o)
	}
	lc := net.ListenConfig{Control: o.control}
	l, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return Wrap(l.(*net.TCPListener), poll), nil
}

// Wrap adopts an already bound listener.
func Wrap(ln *net.TCPListener, poll time.Duration) *Listener {
	return &Listener{ln: ln, poll: poll}
}

// SyscallConn exposes the raw listening socket.
func (l *Listener) SyscallConn() (syscall.RawConn, error) {
	return l.ln.SyscallConn()
}

// Accept waits for the next connection. It returns ErrAcceptTimeout when the poll
// interval elapsed and ErrListenerClosed once the listener was closed.
func (l *Listener) Accept() (net.Conn, error) {
	if l.poll > 0 {
		if err := l.ln.SetDeadline(time.Now().Add(l.poll)); err != nil {
			if l.isClosed() {
				return nil, ErrListenerClosed
			}
			return nil, fmt.Errorf("set accept deadline: %w", err)
		}
	}
	c, err := l.ln.AcceptTCP()
	if err != nil {
		if l.isClosed() || errors.Is(err, net.ErrClosed) {
			return nil, ErrListenerClosed
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil, ErrAcceptTimeout
		}
		return nil, err
	}
	return c, nil
}

// Close closes the listener. Idempotent.
func (l *Listener) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()
	return l.ln.Close()
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

func (l *Listener) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}
