// File: driver/pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Reference-counted ownership of a shared backend. Acquire/Release is the
// whole contract: the handle starts with the owner's reference, every
// in-flight task holds one more for its own duration, and the underlying
// backend closes when the count reaches zero. No raw-pointer round-tripping.

package driver

import (
	"io"
	"sync"

	"github.com/momentics/hostbridge/api"
)

// Pool is a shared, reference-counted connection resource. It stays valid
// for the lifetime of every task that acquired it and is released only when
// the last task reference and the owning handle are both gone.
type Pool struct {
	mu     sync.Mutex
	refs   int
	target io.Closer
}

// NewPool wraps target with the owner's initial reference.
func NewPool(target io.Closer) *Pool {
	return &Pool{refs: 1, target: target}
}

// Acquire takes one reference. It fails once the pool has been fully
// released; a task must acquire before it starts, not after.
func (p *Pool) Acquire() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refs == 0 {
		return api.ErrPoolReleased
	}
	p.refs++
	return nil
}

// Release drops one reference, closing the underlying backend when the
// count reaches zero. Releasing more times than acquired is a usage error
// and reported as such.
func (p *Pool) Release() error {
	p.mu.Lock()
	if p.refs == 0 {
		p.mu.Unlock()
		return api.ErrPoolReleased
	}
	p.refs--
	last := p.refs == 0
	target := p.target
	p.mu.Unlock()

	if last && target != nil {
		return target.Close()
	}
	return nil
}

// Refs returns the current reference count.
func (p *Pool) Refs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refs
}
