// Package epoch provides an epoch-gated read-through cache over an externally
// owned, versioned source of truth.
//
// A source bumps its epoch once per mutation. A Cache keeps a value copy of
// the source and the epoch it was copied at, and only reloads when the
// source's epoch moved. Epochs are uint64 counters that saturate at
// math.MaxUint64 instead of wrapping.
package epoch

import (
	"math"
	"sync"
)

// Source is a versioned store the cache can observe.
//
// Load must return the value and the epoch it belongs to as one consistent
// read. Epoch must not have side effects.
type Source[T any] interface {
	Epoch() uint64
	Load() (T, uint64)
}

// Next returns the epoch following e, saturating at math.MaxUint64.
func Next(e uint64) uint64 {
	if e == math.MaxUint64 {
		return e
	}
	return e + 1
}

// Cache is a read-through snapshot of a Source.
//
// T is copied by value; a T holding slices or maps shares their backing
// storage with the source and must be treated as read-only.
type Cache[T any] struct {
	src Source[T]

	mu    sync.Mutex
	val   T
	epoch uint64
	valid bool
}

// NewCache returns a cache over src. The first read loads the source.
func NewCache[T any](src Source[T]) *Cache[T] {
	return &Cache[T]{src: src}
}

// Read returns the cached value, refreshing it first if the source moved on.
func (c *Cache[T]) Read() T {
	cur := c.src.Epoch()

	c.mu.Lock()
	if c.valid && c.epoch == cur {
		v := c.val
		c.mu.Unlock()
		return v
	}
	c.mu.Unlock()

	return c.Refresh()
}

// Refresh unconditionally reloads the snapshot from the source.
func (c *Cache[T]) Refresh() T {
	v, e := c.src.Load()

	c.mu.Lock()
	defer c.mu.Unlock()

	// A concurrent refresh may already hold a newer snapshot.
	if !c.valid || e >= c.epoch {
		c.val = v
		c.epoch = e
		c.valid = true
	}
	return c.val
}

// Write applies fn, which is expected to mutate the source, then refreshes
// the snapshot whether or not fn failed.
func (c *Cache[T]) Write(fn func() error) (T, error) {
	err := fn()
	return c.Refresh(), err
}

// Epoch returns the epoch of the cached snapshot.
func (c *Cache[T]) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.epoch
}

// Fresh reports whether the snapshot matches the source's current epoch.
func (c *Cache[T]) Fresh() bool {
	cur := c.src.Epoch()

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.valid && c.epoch == cur
}

// Get reads a single field through the cache.
func Get[T, V any](c *Cache[T], fn func(T) V) V {
	return fn(c.Read())
}
