package util

import "sync"

// Mailbox delivers posted values to a handler one at a time, in posting order.
//
// Post only queues. Flush drains the queue on the calling goroutine unless another goroutine
// is already draining it, in which case that goroutine delivers the new values too. The handler
// runs without any Mailbox lock held, so it may Post and Flush again.
type Mailbox[T any] struct {
	handle func(T)

	mu       sync.Mutex
	queue    []T
	draining bool
	closed   bool
}

// NewMailbox creates a Mailbox that passes every value to handle.
func NewMailbox[T any](handle func(T)) *Mailbox[T] {
	return &Mailbox[T]{handle: handle}
}

// Post queues v. Posts after Close are dropped.
func (m *Mailbox[T]) Post(v T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.queue = append(m.queue, v)
}

// Flush delivers queued values until the queue is empty or the Mailbox is closed.
func (m *Mailbox[T]) Flush() {
	m.mu.Lock()
	if m.draining {
		m.mu.Unlock()
		return
	}
	m.draining = true
	for len(m.queue) > 0 && !m.closed {
		v := m.queue[0]
		var zero T
		m.queue[0] = zero
		m.queue = m.queue[1:]
		m.mu.Unlock()
		m.handle(v)
		m.mu.Lock()
	}
	// Cleared under the same lock that saw the queue empty, so a value posted after this
	// point is flushed by its poster.
	m.draining = false
	m.mu.Unlock()
}

// Close drops the queued values. A handler call already in progress is not interrupted.
func (m *Mailbox[T]) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.queue = nil
}
