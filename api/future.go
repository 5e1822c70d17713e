// File: api/future.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Future is a pollable asynchronous computation.
//
// Poll advances the computation as far as it can without blocking. When the
// computation finishes, ready is true and value/err carry the terminal
// result. When it cannot make progress, Poll must have arranged a wake-up
// (interest registration or a timer deadline) through cx before returning
// ready == false.
type Future interface {
	Poll(cx *Context) (value any, ready bool, err error)
}

// FutureFunc adapts a poll function to the Future interface.
type FutureFunc func(cx *Context) (any, bool, error)

// Poll invokes the function.
func (f FutureFunc) Poll(cx *Context) (any, bool, error) { return f(cx) }

// Ready returns a Future that completes on its first poll with value.
func Ready(value any) Future {
	return FutureFunc(func(*Context) (any, bool, error) { return value, true, nil })
}

// Context carries the per-task capabilities a Future may use while being
// polled: the task's waker, the interest table of the owning bridge, and the
// host-supplied registrars for descriptor readiness.
type Context struct {
	waker     Waker
	interests InterestTable
	readReg   Registrar
	writeReg  Registrar
}

// NewContext builds a poll context. The registrars may be nil for
// computations that never touch descriptors (timers, pure steps).
func NewContext(w Waker, t InterestTable, readReg, writeReg Registrar) *Context {
	return &Context{waker: w, interests: t, readReg: readReg, writeReg: writeReg}
}

// Waker returns the waker of the task being polled.
func (cx *Context) Waker() Waker { return cx.waker }

// RegisterRead records read interest for fd and asks the host loop to watch
// it. The trigger handed to the host forwards into the interest table, so a
// later host readiness report resumes exactly this task.
func (cx *Context) RegisterRead(fd int) error {
	// Validate the capability before touching the interest table: failing
	// afterwards would leave a dangling entry until shutdown sweep.
	if cx.readReg == nil {
		return NewError(ErrCodeInvalidArgument, "no read registrar supplied for this task").
			WithContext("fd", fd)
	}
	if err := cx.interests.Register(fd, Readable, cx.waker); err != nil {
		return err
	}
	cx.readReg(fd, func() { cx.interests.Notify(fd, Readable) })
	return nil
}

// RegisterWrite records write interest for fd and asks the host loop to
// watch it.
func (cx *Context) RegisterWrite(fd int) error {
	if cx.writeReg == nil {
		return NewError(ErrCodeInvalidArgument, "no write registrar supplied for this task").
			WithContext("fd", fd)
	}
	if err := cx.interests.Register(fd, Writable, cx.waker); err != nil {
		return err
	}
	cx.writeReg(fd, func() { cx.interests.Notify(fd, Writable) })
	return nil
}
