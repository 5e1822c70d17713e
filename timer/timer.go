// File: timer/timer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Deadline store with a single background driver. The driver waits on the
// earliest deadline only and does nothing but fire wakers; firing behaves
// exactly like a reactor notification, a synchronous re-poll of the owning
// task on the driver's goroutine.

// Package timer suspends bridge computations until a deadline elapses.
package timer

import (
	"container/heap"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/momentics/hostbridge/api"
	"github.com/momentics/hostbridge/control"
)

type entry struct {
	at  time.Time
	seq uint64 // total order among equal deadlines
	w   api.Waker
}

type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}
func (h entryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)        { *h = append(*h, x.(*entry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Timer schedules wakers against a monotonic deadline store.
//
// Deadlines are time.Time values produced by time.Now, whose monotonic
// reading makes wall-clock adjustments unable to cause missed or duplicate
// fires. No sub-millisecond precision is guaranteed.
type Timer struct {
	mu      sync.Mutex
	heap    entryHeap
	seq     uint64
	rearm   chan struct{}
	stopped bool
	done    chan struct{}
	log     *zap.Logger
}

// New creates a timer and starts its driver goroutine.
func New(log *zap.Logger) *Timer {
	if log == nil {
		log = zap.NewNop()
	}
	t := &Timer{
		rearm: make(chan struct{}, 1),
		done:  make(chan struct{}),
		log:   log,
	}
	go t.run()
	return t
}

// Schedule fires w once d has elapsed, from the driver goroutine. Entries
// sharing a deadline fire in schedule order; every entry fires exactly once.
func (t *Timer) Schedule(d time.Duration, w api.Waker) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.seq++
	heap.Push(&t.heap, &entry{at: time.Now().Add(d), seq: t.seq, w: w})
	t.mu.Unlock()

	// Kick the driver so it re-evaluates the earliest deadline.
	select {
	case t.rearm <- struct{}{}:
	default:
	}
}

// Pending returns the number of scheduled deadlines.
func (t *Timer) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.heap)
}

// Shutdown stops the driver and drops all pending deadlines without firing.
func (t *Timer) Shutdown() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	dropped := len(t.heap)
	t.heap = nil
	t.mu.Unlock()

	close(t.done)
	if dropped > 0 {
		t.log.Warn("timer: dropped deadlines on shutdown", zap.Int("count", dropped))
	}
}

func (t *Timer) run() {
	idle := time.NewTimer(time.Hour)
	defer idle.Stop()

	for {
		t.mu.Lock()
		var wait time.Duration
		if len(t.heap) == 0 {
			wait = time.Hour
		} else {
			wait = time.Until(t.heap[0].at)
		}
		t.mu.Unlock()

		if wait > 0 {
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(wait)
			select {
			case <-t.done:
				return
			case <-t.rearm:
				continue
			case <-idle.C:
			}
		}

		for _, w := range t.takeElapsed() {
			control.TimerFires.Inc()
			w.Wake()
		}

		select {
		case <-t.done:
			return
		default:
		}
	}
}

// takeElapsed pops every entry whose deadline has passed.
func (t *Timer) takeElapsed() []api.Waker {
	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	var fired []api.Waker
	for len(t.heap) > 0 && !t.heap[0].at.After(now) {
		e := heap.Pop(&t.heap).(*entry)
		fired = append(fired, e.w)
	}
	return fired
}
