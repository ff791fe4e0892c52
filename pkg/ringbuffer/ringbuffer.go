// Package ringbuffer provides a fixed-capacity FIFO that overwrites its
// oldest element on overflow.
package ringbuffer

// RingBuffer holds at most its capacity of elements. Enqueueing into a full
// buffer silently evicts the oldest element. Not safe for concurrent use;
// the owner serializes access.
type RingBuffer[T any] struct {
	items []T
	front int
	count int
}

func New[T any](capacity int) *RingBuffer[T] {
	if capacity <= 0 {
		panic("ringbuffer: capacity must be positive")
	}
	return &RingBuffer[T]{items: make([]T, capacity)}
}

// Enqueue inserts v, evicting the oldest element if the buffer is full.
// It never fails; the return value always reports success.
func (b *RingBuffer[T]) Enqueue(v T) bool {
	if b.count == len(b.items) {
		b.front = (b.front + 1) % len(b.items)
		b.count--
	}
	b.items[(b.front+b.count)%len(b.items)] = v
	b.count++
	return true
}

// Front returns the oldest retained element, or the zero value and false
// when the buffer is empty.
func (b *RingBuffer[T]) Front() (T, bool) {
	if b.count == 0 {
		var zero T
		return zero, false
	}
	return b.items[b.front], true
}

// Rear returns the newest retained element, or the zero value and false
// when the buffer is empty.
func (b *RingBuffer[T]) Rear() (T, bool) {
	if b.count == 0 {
		var zero T
		return zero, false
	}
	return b.items[(b.front+b.count-1)%len(b.items)], true
}

func (b *RingBuffer[T]) IsEmpty() bool {
	return b.count == 0
}

func (b *RingBuffer[T]) IsFull() bool {
	return b.count == len(b.items)
}

// Len reports how many elements are retained, 0..Cap.
func (b *RingBuffer[T]) Len() int {
	return b.count
}

func (b *RingBuffer[T]) Cap() int {
	return len(b.items)
}

// Items returns the retained elements oldest first.
func (b *RingBuffer[T]) Items() []T {
	out := make([]T, 0, b.count)
	for i := 0; i < b.count; i++ {
		out = append(out, b.items[(b.front+i)%len(b.items)])
	}
	return out
}
