// Package mailbox provides a single-slot handoff between goroutines.
package mailbox

import (
	"context"
	"sync"
)

// Mailbox is a single-slot buffer. It is NOT a queue: it holds at most one
// pending item.
//
// Put overwrites any pending item (latest wins), Post only fills an empty
// slot (first wins). TryTake never blocks, Take blocks until an item arrives.
type Mailbox[T any] struct {
	mu   sync.Mutex
	item *T

	ready chan struct{}
}

// New creates an empty mailbox.
func New[T any]() *Mailbox[T] {
	return &Mailbox[T]{ready: make(chan struct{}, 1)}
}

// Put stores an item, replacing any pending one. It never blocks.
func (m *Mailbox[T]) Put(v T) {
	m.mu.Lock()
	m.item = &v
	m.mu.Unlock()

	m.signal()
}

// Post stores an item only if the slot is empty. It reports whether the item
// was stored; a pending item is never overwritten.
func (m *Mailbox[T]) Post(v T) bool {
	m.mu.Lock()
	if m.item != nil {
		m.mu.Unlock()
		return false
	}
	m.item = &v
	m.mu.Unlock()

	m.signal()
	return true
}

// TryTake returns the pending item and clears the slot, or false if empty.
// It never blocks.
func (m *Mailbox[T]) TryTake() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.item == nil {
		var zero T
		return zero, false
	}

	v := *m.item
	m.item = nil
	return v, true
}

// Take blocks until an item is available or ctx is done.
func (m *Mailbox[T]) Take(ctx context.Context) (T, error) {
	for {
		if v, ok := m.TryTake(); ok {
			return v, nil
		}

		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-m.ready:
		}
	}
}

// Pending reports whether an item is waiting.
func (m *Mailbox[T]) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.item != nil
}

// signal wakes a blocked Take without ever blocking the sender.
func (m *Mailbox[T]) signal() {
	select {
	case m.ready <- struct{}{}:
	default:
	}
}
