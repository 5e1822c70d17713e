// File: api/waker.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Waker is a capability that resumes exactly the task that produced it.
//
// Wake may be invoked from any call site, including reentrantly from inside
// a reactor notification, and any number of times. Waking a task that has
// already completed is a no-op; the executor guards against the re-poll.
type Waker interface {
	Wake()
}

// WakeFunc adapts a plain function to the Waker interface.
type WakeFunc func()

// Wake invokes the function.
func (f WakeFunc) Wake() { f() }
