// File: executor/task.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package executor

import (
	"github.com/oklog/ulid/v2"

	"github.com/momentics/hostbridge/api"
)

// task is one in-flight computation under exclusive executor management.
// All mutable fields are guarded by the executor mutex.
type task struct {
	id     string
	fut    api.Future
	onDone api.DoneFunc
	cx     *api.Context

	queued  bool // sitting in the wake queue
	polling bool // a poll is in flight on some stack
	pending bool // woken while polling; re-poll before resting
	done    bool // terminal result delivered
}

func newTaskID() string {
	return ulid.Make().String()
}

// waker resumes exactly one task through its owning executor.
type waker struct {
	exec *Executor
	t    *task
}

// Wake requests a re-poll of the owning task. Safe from any call site,
// including reentrantly from inside a reactor notification or the task's
// own poll, any number of times; waking a completed task is a guarded
// no-op.
func (w *waker) Wake() {
	w.exec.wake(w.t)
}
