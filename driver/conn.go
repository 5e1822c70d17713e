// File: driver/conn.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package driver

import (
	"github.com/momentics/hostbridge/api"
	"github.com/momentics/hostbridge/bridge"
)

// Conn is the asynchronous query connection: a bridge, a reference-counted
// backend pool, and an optional result cache. Safe for use by concurrently
// in-flight query tasks; each task holds one pool reference for its own
// duration.
type Conn struct {
	b       *bridge.Bridge
	backend AsyncBackend
	pool    *Pool
	cache   *queryCache
}

// Options tune a Conn. The zero value disables the cache.
type Options struct {
	// CacheCapacity bounds the query cache entry count; zero disables
	// caching entirely.
	CacheCapacity int
}

// NewConn builds an asynchronous connection over backend. The Conn owns the
// initial pool reference; Close drops it.
func NewConn(b *bridge.Bridge, backend AsyncBackend, opts Options) *Conn {
	return &Conn{
		b:       b,
		backend: backend,
		pool:    NewPool(closerFunc(backend.Close)),
		cache:   newQueryCache(opts.CacheCapacity),
	}
}

// Pool exposes the connection's reference-counted handle.
func (c *Conn) Pool() *Pool { return c.pool }

// Query spawns a task that executes text against the backend and decodes
// the result against kinds. The declared kinds are required input: the
// backend does not expose result schema ahead of execution. onDone receives
// [][]any on success or the typed failure; a cached result is delivered
// synchronously without touching the backend.
func (c *Conn) Query(text string, kinds []api.ColumnKind, onDone api.DoneFunc, readReg, writeReg api.Registrar) error {
	if rows, ok := c.cache.lookup(text); ok {
		bridge.ExecuteHostCallback(onDone, rows)
		return nil
	}

	if err := c.pool.Acquire(); err != nil {
		return err
	}

	fut := &decodeFuture{inner: c.backend.Query(text), kinds: kinds}
	done := func(res api.Result[any]) {
		_ = c.pool.Release()
		if res.Err == nil {
			c.cache.insert(text, res.Value.([][]any))
		}
		onDone(res)
	}

	if err := c.b.Spawn(fut, done, readReg, writeReg); err != nil {
		_ = c.pool.Release()
		return err
	}
	return nil
}

// Close drops the owner's pool reference. The backend closes once the last
// in-flight query task has released its own reference.
func (c *Conn) Close() error {
	return c.pool.Release()
}

// decodeFuture runs the backend future to completion, then decodes the raw
// result set in the same final poll.
type decodeFuture struct {
	inner api.Future
	kinds []api.ColumnKind
}

func (f *decodeFuture) Poll(cx *api.Context) (any, bool, error) {
	value, ready, err := f.inner.Poll(cx)
	if !ready || err != nil {
		return nil, ready, err
	}
	raw, ok := value.(RawRows)
	if !ok {
		return nil, true, api.NewError(api.ErrCodeInternal, "backend produced unexpected result type")
	}
	rows, err := DecodeRows(f.kinds, raw)
	if err != nil {
		return nil, true, err
	}
	return rows, true, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
