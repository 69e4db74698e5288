// Package mailbox provides an unbounded FIFO queue with a blocking,
// context-aware receive. Push never blocks, which gives the sender
// postMessage semantics.
package mailbox

import (
	"context"
	"sync"
)

// Mailbox is safe for one or more producers and a single consumer.
type Mailbox[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	signal chan struct{}
}

// New creates an empty mailbox.
func New[T any]() *Mailbox[T] {
	return &Mailbox[T]{signal: make(chan struct{}, 1)}
}

// Push appends v. It returns false if the mailbox is closed.
func (m *Mailbox[T]) Push(v T) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.items = append(m.items, v)
	m.mu.Unlock()

	m.notify()
	return true
}

// Pop removes and returns the oldest item, blocking until one is
// available. It returns false once the mailbox is closed and drained,
// or when ctx is done.
func (m *Mailbox[T]) Pop(ctx context.Context) (T, bool) {
	var zero T
	for {
		m.mu.Lock()
		if len(m.items) > 0 {
			v := m.items[0]
			m.items[0] = zero
			m.items = m.items[1:]
			m.mu.Unlock()
			return v, true
		}
		closed := m.closed
		m.mu.Unlock()

		if closed {
			return zero, false
		}

		select {
		case <-m.signal:
		case <-ctx.Done():
			return zero, false
		}
	}
}

// Close stops accepting new items. Items already queued can still be
// popped.
func (m *Mailbox[T]) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.notify()
}

// Len returns the number of queued items.
func (m *Mailbox[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Mailbox[T]) notify() {
	select {
	case m.signal <- struct{}{}:
	default:
	}
}
