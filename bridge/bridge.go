// File: bridge/bridge.go
// Unified facade layer for the hostbridge library.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bridge aggregates the executor, reactor and timer behind a single facade
// and exposes the two entry points a host event loop uses to report
// descriptor readiness. The host loop is the scheduler of last resort: it
// owns all OS polling, and every steady-state resumption of a bridge task
// happens on one of its callback stacks.

package bridge

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/momentics/hostbridge/api"
	"github.com/momentics/hostbridge/control"
	"github.com/momentics/hostbridge/executor"
	"github.com/momentics/hostbridge/reactor"
	"github.com/momentics/hostbridge/timer"
)

// Config holds parameters immutable per run.
type Config struct {
	Logger    *zap.Logger // nil disables logging
	DebugAddr string      // metrics/debug HTTP endpoint; empty disables it
}

// DefaultConfig returns default configuration values.
func DefaultConfig() *Config {
	return &Config{}
}

// Bridge is the main facade type.
type Bridge struct {
	log      *zap.Logger
	reactor  *reactor.Reactor
	executor *executor.Executor
	timer    *timer.Timer
	probes   *control.DebugProbes

	mu       sync.Mutex
	shutdown bool
}

// New constructs a Bridge with the given configuration and starts the timer
// driver. When cfg.DebugAddr is set, the metrics endpoint is served on its
// own goroutine.
func New(cfg *Config) (*Bridge, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	b := &Bridge{
		log:     log,
		reactor: reactor.New(log),
		probes:  control.NewDebugProbes(),
	}
	b.executor = executor.New(b.reactor, log)
	b.timer = timer.New(log)

	b.probes.RegisterProbe("tasks_active", func() any { return b.executor.Active() })
	b.probes.RegisterProbe("interests_pending", func() any { return b.reactor.Pending() })
	b.probes.RegisterProbe("deadlines_pending", func() any { return b.timer.Pending() })

	if cfg.DebugAddr != "" {
		go func() {
			if err := control.Serve(cfg.DebugAddr, b.probes); err != nil {
				log.Warn("bridge: debug endpoint stopped", zap.Error(err))
			}
		}()
	}
	return b, nil
}

// Spawn submits an asynchronous computation. All four arguments are
// host-supplied; the registrars are capabilities scoped to this task's
// lifetime and may be nil for computations that never touch descriptors.
func (b *Bridge) Spawn(fut api.Future, onDone api.DoneFunc, readReg, writeReg api.Registrar) error {
	return b.executor.Spawn(fut, onDone, readReg, writeReg)
}

// OnFDReadReady is the entry point the host loop invokes when it observes
// that fd is readable. It forwards to the reactor; the matching task, if
// any, resumes synchronously on this call stack.
func (b *Bridge) OnFDReadReady(fd int) {
	b.reactor.Notify(fd, api.Readable)
}

// OnFDWriteReady is the write-direction counterpart of OnFDReadReady.
func (b *Bridge) OnFDWriteReady(fd int) {
	b.reactor.Notify(fd, api.Writable)
}

// After returns a future that elapses after d, driven by the bridge timer.
func (b *Bridge) After(d time.Duration) api.Future {
	return b.timer.After(d)
}

// Interests exposes the interest table for futures constructed outside a
// task context (primarily tests).
func (b *Bridge) Interests() api.InterestTable { return b.reactor }

// Probes returns the debug probe registry.
func (b *Bridge) Probes() *control.DebugProbes { return b.probes }

// Shutdown stops the timer driver, drops in-flight tasks and sweeps any
// interest they left dangling. Idempotent.
func (b *Bridge) Shutdown() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.shutdown {
		return nil
	}
	b.shutdown = true

	dropped := b.executor.Close()
	b.timer.Shutdown()
	swept := b.reactor.Sweep()
	b.log.Info("bridge: shut down",
		zap.Int("dropped_tasks", dropped),
		zap.Int("swept_interests", swept))
	return nil
}
