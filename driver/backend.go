// File: driver/backend.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package driver

import "github.com/momentics/hostbridge/api"

// RawRow is one result row as canonically encoded cells.
type RawRow = [][]byte

// RawRows is a full eagerly-fetched result set.
type RawRows []RawRow

// AsyncBackend executes queries through the bridge. Query returns a future
// completing with RawRows; the backend never learns the declared column
// kinds, it forwards whatever cell encoding the remote side produced.
type AsyncBackend interface {
	Query(text string) api.Future
	Close() error
}

// SyncBackend executes queries while blocking the calling goroutine, the
// way the synchronous driver variant does. The declared kinds are needed to
// produce the canonical cell encoding from the backend's native values.
type SyncBackend interface {
	Query(text string, kinds []api.ColumnKind) (RawRows, error)
	Prepare(text string, kinds []api.ColumnKind) (SyncStmt, error)
	Close() error
}

// SyncStmt is a prepared statement of a synchronous backend.
type SyncStmt interface {
	Query() (RawRows, error)
	Close() error
}
