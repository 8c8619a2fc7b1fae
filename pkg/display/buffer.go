// Package display holds the recent conductance values shown on the live plot.
package display

import "sync"

// DefaultCapacity is the number of samples kept for the plot.
const DefaultCapacity = 100

// Buffer is a FIFO of the most recent conductance values.
// The acquisition loop is the only writer; the plot reads snapshots.
// Values are ordered oldest first, latest last.
type Buffer struct {
	mu       sync.RWMutex
	values   []float64
	capacity int
}

// NewBuffer creates a buffer holding at most capacity values.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		values:   make([]float64, 0, capacity),
		capacity: capacity,
	}
}

// Push appends v, dropping the oldest value when the buffer is full.
func (b *Buffer) Push(v float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.values) == b.capacity {
		copy(b.values, b.values[1:])
		b.values[len(b.values)-1] = v
		return
	}
	b.values = append(b.values, v)
}

// Values returns a copy of the buffer contents.
func (b *Buffer) Values() []float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]float64, len(b.values))
	copy(result, b.values)
	return result
}

// Latest returns the newest value and false when the buffer is empty.
func (b *Buffer) Latest() (float64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.values) == 0 {
		return 0, false
	}
	return b.values[len(b.values)-1], true
}

// Len returns the number of buffered values.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.values)
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int {
	return b.capacity
}

// Reset empties the buffer.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values = b.values[:0]
}
