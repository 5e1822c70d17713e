// File: driver/sqlitedrv/sqlitedrv.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package sqlitedrv is the synchronous driver backend over an embedded
// SQLite database. Connect and query both block the calling goroutine; it
// never touches the bridge. Results are normalized into the canonical cell
// encoding so the shared decoder applies unchanged.
package sqlitedrv

import (
	"database/sql"

	_ "modernc.org/sqlite"

	"github.com/momentics/hostbridge/api"
	"github.com/momentics/hostbridge/driver"
)

// Backend wraps one SQLite database handle.
type Backend struct {
	db *sql.DB
}

var _ driver.SyncBackend = (*Backend)(nil)

// Open opens (or creates) the database at dsn and verifies the connection.
// Setup failures are fatal to the caller's startup, not deferred.
func Open(dsn string) (*Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, api.NewError(api.ErrCodeIO, "open database failed").
			WithContext("cause", err.Error())
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, api.NewError(api.ErrCodeIO, "database unreachable").
			WithContext("cause", err.Error())
	}
	return &Backend{db: db}, nil
}

// Query executes text eagerly and encodes every row against kinds.
func (b *Backend) Query(text string, kinds []api.ColumnKind) (driver.RawRows, error) {
	rows, err := b.db.Query(text)
	if err != nil {
		return nil, queryErr(err)
	}
	defer rows.Close()
	return encodeRows(rows, kinds)
}

// Prepare readies a statement for repeated execution.
func (b *Backend) Prepare(text string, kinds []api.ColumnKind) (driver.SyncStmt, error) {
	stmt, err := b.db.Prepare(text)
	if err != nil {
		return nil, queryErr(err)
	}
	return &preparedStmt{stmt: stmt, kinds: kinds}, nil
}

// Close closes the database handle.
func (b *Backend) Close() error { return b.db.Close() }

// Exec runs a statement without a result set; used for schema setup.
func (b *Backend) Exec(text string) error {
	if _, err := b.db.Exec(text); err != nil {
		return queryErr(err)
	}
	return nil
}

type preparedStmt struct {
	stmt  *sql.Stmt
	kinds []api.ColumnKind
}

func (p *preparedStmt) Query() (driver.RawRows, error) {
	rows, err := p.stmt.Query()
	if err != nil {
		return nil, queryErr(err)
	}
	defer rows.Close()
	return encodeRows(rows, p.kinds)
}

func (p *preparedStmt) Close() error { return p.stmt.Close() }

func encodeRows(rows *sql.Rows, kinds []api.ColumnKind) (driver.RawRows, error) {
	var out driver.RawRows
	values := make([]any, len(kinds))
	ptrs := make([]any, len(kinds))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, queryErr(err)
		}
		raw, err := driver.EncodeRow(kinds, values)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr(err)
	}
	return out, nil
}

func queryErr(err error) error {
	return api.NewError(api.ErrCodeIO, "query failed").
		WithContext("cause", err.Error())
}
