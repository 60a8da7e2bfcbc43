// Package buffer provides a thread-safe growable FIFO used to decouple the
// live price path from slower consumers such as the history writer.
package buffer

import "sync"

// Growable is a thread-safe ring buffer that doubles its capacity when it
// reaches 70% full, so producers never block and never drop.
type Growable[T any] struct {
	mu       sync.Mutex
	buf      []T
	head     int // read position
	tail     int // write position
	count    int
	capacity int
	closed   bool

	resizes int
}

// NewGrowable creates a buffer with the given initial capacity.
func NewGrowable[T any](initialCapacity int) *Growable[T] {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	return &Growable[T]{
		buf:      make([]T, initialCapacity),
		capacity: initialCapacity,
	}
}

// Send appends an item, growing the buffer if needed.
// Returns false if the buffer is closed.
func (b *Growable[T]) Send(item T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}

	threshold := (b.capacity * 70) / 100
	if threshold < 1 {
		threshold = 1
	}
	if b.count+1 >= threshold {
		b.growLocked()
	}

	b.buf[b.tail] = item
	b.tail = (b.tail + 1) % b.capacity
	b.count++
	return true
}

// TryReceive removes and returns the oldest item, if any.
func (b *Growable[T]) TryReceive() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var zero T
	if b.count == 0 {
		return zero, false
	}

	item := b.buf[b.head]
	b.buf[b.head] = zero
	b.head = (b.head + 1) % b.capacity
	b.count--
	return item, true
}

// Len returns the number of buffered items.
func (b *Growable[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Resizes returns how many times the buffer grew.
func (b *Growable[T]) Resizes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.resizes
}

// Close marks the buffer closed. Buffered items remain receivable; further
// sends are rejected.
func (b *Growable[T]) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

// growLocked doubles capacity, compacting items to the front.
func (b *Growable[T]) growLocked() {
	newCap := b.capacity * 2
	newBuf := make([]T, newCap)
	for i := 0; i < b.count; i++ {
		newBuf[i] = b.buf[(b.head+i)%b.capacity]
	}
	b.buf = newBuf
	b.head = 0
	b.tail = b.count
	b.capacity = newCap
	b.resizes++
}
