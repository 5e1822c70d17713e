// File: driver/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package driver is the query surface built on top of the bridge.
//
// Backends produce rows as raw cells in one canonical encoding; a single
// tagged-variant decoder keyed by api.ColumnKind turns them into Go values.
// Both the asynchronous wire backend and the synchronous embedded backend
// share that decoder, so no backend carries its own type-name switch.
package driver
