// File: hostloop/hostloop.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Reference host event loop. In production the embedding runtime (an
// asyncio-style loop) plays this role; this implementation exists so that
// examples and end-to-end tests have a real foreign loop to run under. The
// bridge itself never polls: only this loop calls poll(2).

// Package hostloop provides a single-goroutine poll(2) event loop that
// drives bridge tasks through the registrar protocol.
package hostloop

import (
	"sync"

	"golang.org/x/sys/unix"

	"github.com/momentics/hostbridge/api"
)

// Loop is a single-threaded event loop. Watches are one-shot: a descriptor
// is removed from the poll set before its trigger runs, matching the
// reactor's one-interest-per-pair rule; a task that suspends again
// re-registers.
type Loop struct {
	mu      sync.Mutex
	readers map[int]func()
	writers map[int]func()
	calls   []func()
	stopped bool

	wakeR, wakeW int // self-pipe, interrupts poll(2) on cross-thread changes
}

// New creates a loop with its wake-up pipe.
func New() (*Loop, error) {
	var p [2]int
	if err := unix.Pipe(p[:]); err != nil {
		return nil, err
	}
	for _, fd := range p {
		if err := unix.SetNonblock(fd, true); err != nil {
			unix.Close(p[0])
			unix.Close(p[1])
			return nil, err
		}
	}
	return &Loop{
		readers: make(map[int]func()),
		writers: make(map[int]func()),
		wakeR:   p[0],
		wakeW:   p[1],
	}, nil
}

// AddReader watches fd for readability and invokes trigger once, on the
// loop goroutine, when it is observed.
func (l *Loop) AddReader(fd int, trigger func()) {
	l.mu.Lock()
	l.readers[fd] = trigger
	l.mu.Unlock()
	l.wake()
}

// AddWriter watches fd for writability.
func (l *Loop) AddWriter(fd int, trigger func()) {
	l.mu.Lock()
	l.writers[fd] = trigger
	l.mu.Unlock()
	l.wake()
}

// Call schedules f to run on the loop goroutine. Safe from any thread; this
// is how completion callbacks hop back into the host loop.
func (l *Loop) Call(f func()) {
	l.mu.Lock()
	l.calls = append(l.calls, f)
	l.mu.Unlock()
	l.wake()
}

// ReadRegistrar returns the registrar capability for the read direction,
// suitable for passing to Bridge.Spawn.
func (l *Loop) ReadRegistrar() api.Registrar {
	return func(fd int, trigger func()) { l.AddReader(fd, trigger) }
}

// WriteRegistrar returns the write-direction registrar capability.
func (l *Loop) WriteRegistrar() api.Registrar {
	return func(fd int, trigger func()) { l.AddWriter(fd, trigger) }
}

// Stop makes Run return after the current iteration.
func (l *Loop) Stop() {
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()
	l.wake()
}

// Run polls watched descriptors and dispatches triggers until Stop. It
// blocks the calling goroutine, which becomes the loop thread.
func (l *Loop) Run() {
	defer func() {
		unix.Close(l.wakeR)
		unix.Close(l.wakeW)
	}()

	for {
		l.mu.Lock()
		if l.stopped {
			l.mu.Unlock()
			return
		}
		calls := l.calls
		l.calls = nil

		pollfds := make([]unix.PollFd, 0, len(l.readers)+len(l.writers)+1)
		pollfds = append(pollfds, unix.PollFd{Fd: int32(l.wakeR), Events: unix.POLLIN})
		for fd := range l.readers {
			pollfds = append(pollfds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
		}
		for fd := range l.writers {
			pollfds = append(pollfds, unix.PollFd{Fd: int32(fd), Events: unix.POLLOUT})
		}
		l.mu.Unlock()

		for _, f := range calls {
			f()
		}

		timeout := -1
		if len(calls) > 0 {
			// A call may have scheduled more work; re-check promptly.
			timeout = 0
		}
		n, err := unix.Poll(pollfds, timeout)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}

		for _, pfd := range pollfds {
			if pfd.Revents == 0 {
				continue
			}
			fd := int(pfd.Fd)
			if fd == l.wakeR {
				l.drainWakePipe()
				continue
			}
			if pfd.Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
				if trigger := l.takeReader(fd); trigger != nil {
					trigger()
				}
			}
			if pfd.Revents&(unix.POLLOUT|unix.POLLERR) != 0 {
				if trigger := l.takeWriter(fd); trigger != nil {
					trigger()
				}
			}
		}
	}
}

func (l *Loop) takeReader(fd int) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	trigger := l.readers[fd]
	delete(l.readers, fd)
	return trigger
}

func (l *Loop) takeWriter(fd int) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	trigger := l.writers[fd]
	delete(l.writers, fd)
	return trigger
}

func (l *Loop) wake() {
	var one = [1]byte{1}
	_, _ = unix.Write(l.wakeW, one[:]) // full pipe means a wake is already pending
}

func (l *Loop) drainWakePipe() {
	var buf [64]byte
	for {
		_, err := unix.Read(l.wakeR, buf[:])
		if err != nil {
			return
		}
	}
}
