// File: timer/after.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package timer

import (
	"sync/atomic"
	"time"

	"github.com/momentics/hostbridge/api"
)

// After returns a future that suspends its task until at least d has
// elapsed, then completes with nil.
func (t *Timer) After(d time.Duration) api.Future {
	return &sleepFuture{timer: t, d: d}
}

type sleepFuture struct {
	timer     *Timer
	d         time.Duration
	scheduled bool
	fired     atomic.Bool // set by the driver goroutine before waking
}

func (f *sleepFuture) Poll(cx *api.Context) (any, bool, error) {
	if f.fired.Load() {
		return nil, true, nil
	}
	if !f.scheduled {
		f.scheduled = true
		w := cx.Waker()
		f.timer.Schedule(f.d, api.WakeFunc(func() {
			f.fired.Store(true)
			w.Wake()
		}))
	}
	// Spurious poll while the deadline is pending; the scheduled waker
	// will resume the task.
	return nil, false, nil
}
