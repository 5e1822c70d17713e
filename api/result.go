// File: api/result.go
// Author: momentics@gmail.com
// License: Apache-2.0
//
// Generic result and completion callback types.

package api

// Result wraps any payload or error.
type Result[T any] struct {
	Value T
	Err   error
}

// DoneFunc is the host completion callback. It receives the terminal result
// of a task exactly once, on whatever call stack triggered the final
// re-poll. Failures travel through the same channel as successes so the
// host decides whether to retry, log, or crash.
type DoneFunc func(Result[any])
