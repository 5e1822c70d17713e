// File: stream/stream.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Non-blocking TCP stream bridged to a foreign event loop. Connect is the
// one allowed blocking call, performed once at setup; all steady-state I/O
// either completes immediately or registers readiness interest and
// suspends the calling task.

// Package stream wraps one non-blocking descriptor behind awaitable
// read/write operations.
package stream

import (
	"net"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/momentics/hostbridge/api"
)

// Conn is a TCP connection on a non-blocking descriptor.
type Conn struct {
	fd     int
	closed atomic.Bool
}

// Connect resolves addr ("host:port"), establishes the connection while
// blocking the calling goroutine, and switches the descriptor to
// non-blocking mode for all subsequent I/O.
func Connect(addr string) (*Conn, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, api.NewError(api.ErrCodeIO, "resolve failed").
			WithContext("addr", addr).
			WithContext("cause", err.Error())
	}

	family := unix.AF_INET
	var sa unix.Sockaddr
	if ip4 := tcpAddr.IP.To4(); ip4 != nil {
		sa4 := &unix.SockaddrInet4{Port: tcpAddr.Port}
		copy(sa4.Addr[:], ip4)
		sa = sa4
	} else {
		family = unix.AF_INET6
		sa6 := &unix.SockaddrInet6{Port: tcpAddr.Port}
		copy(sa6.Addr[:], tcpAddr.IP.To16())
		sa = sa6
	}

	fd, err := unix.Socket(family, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, api.NewError(api.ErrCodeIO, "socket failed").
			WithContext("cause", err.Error())
	}
	if err := unix.Connect(fd, sa); err != nil {
		unix.Close(fd)
		return nil, api.NewError(api.ErrCodeIO, "connect failed").
			WithContext("addr", addr).
			WithContext("cause", err.Error())
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, api.NewError(api.ErrCodeIO, "set nonblock failed").
			WithContext("cause", err.Error())
	}
	return &Conn{fd: fd}, nil
}

// FromFD wraps an existing descriptor, switching it to non-blocking mode.
// The Conn takes ownership of fd.
func FromFD(fd int) (*Conn, error) {
	if err := unix.SetNonblock(fd, true); err != nil {
		return nil, api.NewError(api.ErrCodeIO, "set nonblock failed").
			WithContext("fd", fd).
			WithContext("cause", err.Error())
	}
	return &Conn{fd: fd}, nil
}

// FD returns the underlying descriptor.
func (c *Conn) FD() int { return c.fd }

// Close releases the descriptor. Any still-registered interest for it must
// already have fired or been swept.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return unix.Close(c.fd)
}

// PollRead attempts one read into buf. complete is true when the attempt
// produced a result: n > 0 for data, n == 0 for end-of-stream. When the
// descriptor is not ready, PollRead registers read interest through cx and
// returns complete == false; the resumed task retries the same operation.
//
// Short reads are not an error, and a zero-length read must not be retried.
func (c *Conn) PollRead(cx *api.Context, buf []byte) (n int, complete bool, err error) {
	if c.closed.Load() {
		return 0, true, api.ErrStreamClosed
	}
	for {
		n, err = unix.Read(c.fd, buf)
		if err == unix.EINTR {
			continue
		}
		break
	}
	if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		if rerr := cx.RegisterRead(c.fd); rerr != nil {
			return 0, true, rerr
		}
		return 0, false, nil
	}
	if err != nil {
		return 0, true, api.NewError(api.ErrCodeIO, "read failed").
			WithContext("fd", c.fd).
			WithContext("cause", err.Error())
	}
	return n, true, nil
}

// PollWrite attempts one write of p, returning the count written. Partial
// writes are returned as-is; composing a write-to-completion loop is the
// caller's responsibility. A not-ready descriptor registers write interest
// and suspends.
func (c *Conn) PollWrite(cx *api.Context, p []byte) (n int, complete bool, err error) {
	if c.closed.Load() {
		return 0, true, api.ErrStreamClosed
	}
	for {
		n, err = unix.Write(c.fd, p)
		if err == unix.EINTR {
			continue
		}
		break
	}
	if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		if rerr := cx.RegisterWrite(c.fd); rerr != nil {
			return 0, true, rerr
		}
		return 0, false, nil
	}
	if err != nil {
		return 0, true, api.NewError(api.ErrCodeIO, "write failed").
			WithContext("fd", c.fd).
			WithContext("cause", err.Error())
	}
	return n, true, nil
}
