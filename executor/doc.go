// File: executor/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package executor owns in-flight tasks and drives them forward when woken.
//
// The executor is the single logical scheduler of the bridge. It never
// blocks and it never polls the OS: every re-poll happens synchronously on
// the call stack of whoever fired the waker, which in steady state is the
// host event loop reporting descriptor readiness, or the timer driver.
package executor
