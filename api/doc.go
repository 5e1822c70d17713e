// File: api/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package api defines the shared contracts of the hostbridge library:
// pollable futures, wakers, host registrars, results and structured errors.
//
// The bridge lets asynchronous computations (socket I/O, timers, database
// queries) run cooperatively under a foreign single-threaded event loop.
// The host loop owns all OS polling; the bridge suspends and resumes its
// computations only through host-invoked callbacks.
package api
