// File: executor/executor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Task executor driven entirely by external wake-ups. Poll exclusivity is
// per task: while a task's poll is in flight its wakes only mark it pending,
// and the active poller loops until that mark is clear. Wakes of resting
// tasks are queued (FIFO) and re-polled by a single drainer.

package executor

import (
	"fmt"
	"sync"

	"github.com/eapache/queue"
	"go.uber.org/zap"

	"github.com/momentics/hostbridge/api"
	"github.com/momentics/hostbridge/control"
)

// Executor stores suspended tasks keyed by identity and re-polls them when
// their wakers fire.
type Executor struct {
	mu      sync.Mutex
	tasks   map[string]*task
	wakeQ   *queue.Queue // *task, guarded by mu
	running bool
	closed  bool

	table api.InterestTable
	log   *zap.Logger
}

// New creates an executor that registers descriptor interest in table.
// A nil logger disables tracing.
func New(table api.InterestTable, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{
		tasks: make(map[string]*task),
		wakeQ: queue.New(),
		table: table,
		log:   log,
	}
}

// Spawn creates a task for fut and performs the initial poll synchronously.
//
// If the computation completes on that first poll, onDone is invoked with
// the terminal result before Spawn returns and no reactor or timer state is
// touched. If it suspends, the task is stored and Spawn returns without
// blocking; later re-polls happen on the call stack of a readiness or timer
// notification. onDone fires exactly once per task, for success and failure
// alike.
func (e *Executor) Spawn(fut api.Future, onDone api.DoneFunc, readReg, writeReg api.Registrar) error {
	if fut == nil || onDone == nil {
		return api.ErrInvalidArgument
	}

	t := &task{
		id:     newTaskID(),
		fut:    fut,
		onDone: onDone,
	}
	t.cx = api.NewContext(&waker{exec: e, t: t}, e.table, readReg, writeReg)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return api.ErrExecutorClosed
	}
	e.tasks[t.id] = t
	// The initial poll always runs on this stack, even while a drain of
	// other tasks is in progress elsewhere: exclusivity is per task, and a
	// freshly stored task has no other poller.
	t.polling = true
	e.mu.Unlock()

	control.TasksSpawned.Inc()
	control.TasksActive.Inc()
	e.log.Debug("executor: task spawned", zap.String("task", t.id))

	e.runPoll(t)
	return nil
}

// Active returns the number of in-flight tasks.
func (e *Executor) Active() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tasks)
}

// Close drops every in-flight task without delivering a result and rejects
// further spawns. Outstanding reactor or timer interest of dropped tasks is
// swept by the owning bridge.
func (e *Executor) Close() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	n := len(e.tasks)
	for id, t := range e.tasks {
		t.done = true
		delete(e.tasks, id)
	}
	if n > 0 {
		control.TasksActive.Sub(float64(n))
		e.log.Warn("executor: dropped tasks on close", zap.Int("count", n))
	}
	return n
}

// wake requests a re-poll of t. If a poll of t is in flight on any stack,
// the wake only marks the task pending and that poller picks it up; the
// finished task and duplicate-wake cases are coalesced away. Otherwise the
// task is queued and, when no drain is in progress, drained on this stack.
func (e *Executor) wake(t *task) {
	e.mu.Lock()
	if t.done {
		// Waking a completed task is a programming error on the waker
		// holder's side; guard the re-poll and report it.
		e.mu.Unlock()
		e.log.Error("executor: wake after completion", zap.String("task", t.id))
		return
	}
	if t.polling {
		// The active poller re-polls before resting; never start a second
		// poll of the same task.
		t.pending = true
		e.mu.Unlock()
		return
	}
	if t.queued {
		// Coalesce: one pending wake is enough to pick up any progress.
		e.mu.Unlock()
		return
	}
	t.queued = true
	e.wakeQ.Add(t)

	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.drain()
}

// drain dispatches queued tasks until the queue is empty. Called with e.mu
// held; releases it before returning. The lock is dropped around every poll
// and completion callback, so wakers and Spawn may reenter freely.
func (e *Executor) drain() {
	for e.wakeQ.Length() > 0 {
		t := e.wakeQ.Remove().(*task)
		t.queued = false
		if t.done {
			// Stale entry: the task completed (or Close dropped it) after
			// this wake was queued. Never re-poll it.
			continue
		}
		if t.polling {
			t.pending = true
			continue
		}
		t.polling = true
		e.mu.Unlock()

		e.runPoll(t)

		e.mu.Lock()
	}
	e.running = false
	e.mu.Unlock()
}

// runPoll polls t until it suspends with no pending wake, or terminates.
// Entered with t.polling set and e.mu released. A wake arriving during the
// final poll finds the task already done and is dropped, so onDone can fire
// at most once.
func (e *Executor) runPoll(t *task) {
	for {
		value, ready, err := e.poll(t)

		e.mu.Lock()
		if t.done {
			// Close dropped the task while its poll was in flight; the
			// result is discarded, nothing is delivered.
			t.polling = false
			e.mu.Unlock()
			return
		}
		if ready || err != nil {
			t.done = true
			t.polling = false
			t.pending = false
			delete(e.tasks, t.id)
			e.mu.Unlock()
			e.complete(t, value, err)
			return
		}
		if !t.pending {
			t.polling = false
			e.mu.Unlock()
			return
		}
		t.pending = false
		e.mu.Unlock()
	}
}

// poll advances the task once, converting a panic into a typed internal
// error so a fault below the task boundary reaches the host through the
// normal completion channel instead of aborting the process.
func (e *Executor) poll(t *task) (value any, ready bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			ready = true
			err = api.NewError(api.ErrCodeInternal, "task panicked during poll").
				WithContext("task", t.id).
				WithContext("panic", fmt.Sprint(r))
		}
	}()
	return t.fut.Poll(t.cx)
}

func (e *Executor) complete(t *task, value any, err error) {
	control.TasksActive.Dec()
	if err != nil {
		control.TasksCompleted.WithLabelValues("error").Inc()
		e.log.Debug("executor: task failed",
			zap.String("task", t.id), zap.Error(err))
	} else {
		control.TasksCompleted.WithLabelValues("ok").Inc()
		e.log.Debug("executor: task completed", zap.String("task", t.id))
	}
	t.onDone(api.Result[any]{Value: value, Err: err})
}
