// File: bridge/callbacks.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package bridge

import (
	"time"

	"github.com/momentics/hostbridge/api"
)

// ExecuteHostCallback delivers a terminal value to a host callback. Used by
// the thread-sleep baseline and by cached query results; normal completion
// delivery goes through the executor, which ends up here semantically: the
// callback runs on whatever stack triggered it.
func ExecuteHostCallback(cb api.DoneFunc, value any) {
	cb(api.Result[any]{Value: value})
}

// SleepExample is the deliberately inefficient sleep baseline: it spawns a
// throwaway OS thread (goroutine) that sleeps for d, then delivers value to
// the host callback. It exists as a reference point against the timer path
// and is not the steady-state mechanism.
func SleepExample(d time.Duration, onDone api.DoneFunc, value any) {
	go func() {
		time.Sleep(d)
		ExecuteHostCallback(onDone, value)
	}()
}
