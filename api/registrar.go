// File: api/registrar.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Interest is one direction of descriptor readiness.
type Interest uint8

const (
	// Readable means the descriptor can be read without blocking.
	Readable Interest = iota
	// Writable means the descriptor can be written without blocking.
	Writable
)

// String returns the lowercase direction name.
func (i Interest) String() string {
	if i == Writable {
		return "writable"
	}
	return "readable"
}

// Registrar asks the host event loop to watch a descriptor for one direction
// of readiness and to invoke trigger once the host observes it. Registrars
// are supplied by the host per spawned task; the bridge never calls a
// polling OS primitive itself.
type Registrar func(fd int, trigger func())

// InterestTable stores pending wakers keyed by (descriptor, direction).
// It is implemented by the reactor; futures reach it through Context.
type InterestTable interface {
	// Register installs a waker for (fd, interest). At most one waker may be
	// pending per pair; a second registration is a usage error.
	Register(fd int, interest Interest, w Waker) error

	// Notify removes and fires the pending waker for (fd, interest).
	// A notification with no pending entry is a silent no-op.
	Notify(fd int, interest Interest)
}
