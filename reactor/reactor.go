// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Host-notified interest table. Level-triggered from the host's point of
// view: the host decides when a descriptor is ready and reports it once.

package reactor

import (
	"sync"

	"go.uber.org/zap"

	"github.com/momentics/hostbridge/api"
	"github.com/momentics/hostbridge/control"
)

type interestKey struct {
	fd  int
	dir api.Interest
}

// Reactor maps (descriptor, direction) to at most one pending waker.
//
// Register and Notify are safe for concurrent use from any goroutine,
// including the host loop's thread while an unrelated completion callback
// is running. Wakers fire outside the internal lock, so a fired waker may
// reenter Register on the same call stack.
type Reactor struct {
	mu        sync.Mutex
	interests map[interestKey]api.Waker
	log       *zap.Logger
}

var _ api.InterestTable = (*Reactor)(nil)

// New creates an empty reactor. A nil logger disables tracing.
func New(log *zap.Logger) *Reactor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reactor{
		interests: make(map[interestKey]api.Waker),
		log:       log,
	}
}

// Register installs a waker for (fd, interest).
//
// At most one waker may be pending per pair. A second registration while one
// is outstanding fails fast: it indicates two computations racing on the
// same descriptor and direction, which the design assumes cannot
// legitimately occur.
func (r *Reactor) Register(fd int, interest api.Interest, w api.Waker) error {
	key := interestKey{fd: fd, dir: interest}

	r.mu.Lock()
	if _, exists := r.interests[key]; exists {
		r.mu.Unlock()
		return api.NewError(api.ErrCodeInterestExists, "interest already registered").
			WithContext("fd", fd).
			WithContext("direction", interest.String())
	}
	r.interests[key] = w
	r.mu.Unlock()

	r.log.Debug("reactor: interest registered",
		zap.Int("fd", fd), zap.Stringer("direction", interest))
	return nil
}

// Notify removes and fires the waker pending for (fd, interest).
//
// The waker runs synchronously on the caller's stack, which re-polls the
// owning task. A notification with no pending entry is tolerated silently:
// spurious or late readiness reports from the host are normal.
func (r *Reactor) Notify(fd int, interest api.Interest) {
	key := interestKey{fd: fd, dir: interest}

	r.mu.Lock()
	w, ok := r.interests[key]
	if ok {
		delete(r.interests, key)
	}
	r.mu.Unlock()

	if !ok {
		control.NotifiesSpurious.Inc()
		r.log.Debug("reactor: spurious readiness report",
			zap.Int("fd", fd), zap.Stringer("direction", interest))
		return
	}

	control.NotifiesFired.Inc()
	w.Wake()
}

// Pending returns the number of outstanding interest entries.
func (r *Reactor) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.interests)
}

// Sweep drops every outstanding interest without firing it. Used on
// teardown so that dangling registrations from dropped tasks do not outlive
// the bridge.
func (r *Reactor) Sweep() int {
	r.mu.Lock()
	n := len(r.interests)
	r.interests = make(map[interestKey]api.Waker)
	r.mu.Unlock()
	if n > 0 {
		r.log.Warn("reactor: swept dangling interests", zap.Int("count", n))
	}
	return n
}
