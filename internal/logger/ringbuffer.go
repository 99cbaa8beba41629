package logger

import "sync"

// RingBuffer is a thread-safe circular buffer.
type RingBuffer[T any] struct {
	mu     sync.RWMutex
	buffer []T
	next   int
	full   bool
}

// NewRingBuffer creates a ring buffer with the given capacity (minimum 1).
func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	return &RingBuffer[T]{buffer: make([]T, max(capacity, 1))}
}

// Push adds an item, overwriting the oldest when full.
func (r *RingBuffer[T]) Push(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buffer[r.next] = item
	r.next++
	if r.next == len(r.buffer) {
		r.next = 0
		r.full = true
	}
}

// GetAll returns all items from oldest to newest.
func (r *RingBuffer[T]) GetAll() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.full {
		return append([]T(nil), r.buffer[:r.next]...)
	}
	out := make([]T, 0, len(r.buffer))
	out = append(out, r.buffer[r.next:]...)
	return append(out, r.buffer[:r.next]...)
}

// Len returns the number of items held.
func (r *RingBuffer[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.full {
		return len(r.buffer)
	}
	return r.next
}
