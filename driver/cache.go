// File: driver/cache.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Optional query cache decorator. Keyed by raw query text, bounded by entry
// count, scoped to one Conn, disabled by default. It never invalidates:
// suitable for benchmarking repeated identical queries, not for mutating
// workloads.

package driver

import (
	"sync"

	"github.com/momentics/hostbridge/control"
)

type queryCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string][][]any
}

func newQueryCache(capacity int) *queryCache {
	if capacity <= 0 {
		return nil
	}
	return &queryCache{
		capacity: capacity,
		entries:  make(map[string][][]any, capacity),
	}
}

func (c *queryCache) lookup(text string) ([][]any, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	rows, ok := c.entries[text]
	c.mu.Unlock()
	if ok {
		control.CacheEvents.WithLabelValues("hit").Inc()
	} else {
		control.CacheEvents.WithLabelValues("miss").Inc()
	}
	return rows, ok
}

// insert stores rows unless the cache is at capacity. Entries are never
// evicted; once full, the cache stops growing.
func (c *queryCache) insert(text string, rows [][]any) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[text]; exists {
		return
	}
	if len(c.entries) >= c.capacity {
		return
	}
	c.entries[text] = rows
}

func (c *queryCache) len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
