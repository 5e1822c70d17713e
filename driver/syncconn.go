// File: driver/syncconn.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package driver

import "github.com/momentics/hostbridge/api"

// SyncConn is the synchronous driver variant: queries block the calling
// goroutine and never touch the bridge. It shares the canonical decoder
// with the asynchronous path.
type SyncConn struct {
	backend SyncBackend
}

// NewSyncConn wraps a blocking backend.
func NewSyncConn(backend SyncBackend) *SyncConn {
	return &SyncConn{backend: backend}
}

// Query executes text and decodes the full result set against kinds.
func (c *SyncConn) Query(text string, kinds []api.ColumnKind) ([][]any, error) {
	raw, err := c.backend.Query(text, kinds)
	if err != nil {
		return nil, err
	}
	return DecodeRows(kinds, raw)
}

// Prepare readies a statement for repeated execution.
func (c *SyncConn) Prepare(text string, kinds []api.ColumnKind) (*SyncQuery, error) {
	stmt, err := c.backend.Prepare(text, kinds)
	if err != nil {
		return nil, err
	}
	return &SyncQuery{stmt: stmt, kinds: kinds}, nil
}

// Close closes the backend.
func (c *SyncConn) Close() error { return c.backend.Close() }

// SyncQuery is a prepared statement bound to its declared column kinds.
type SyncQuery struct {
	stmt  SyncStmt
	kinds []api.ColumnKind
}

// Query executes the prepared statement and decodes the result set.
func (q *SyncQuery) Query() ([][]any, error) {
	raw, err := q.stmt.Query()
	if err != nil {
		return nil, err
	}
	return DecodeRows(q.kinds, raw)
}

// Close releases the prepared statement.
func (q *SyncQuery) Close() error { return q.stmt.Close() }
