// Package queue implements a bounded single-producer/single-consumer
// ring buffer, used for each Connection's inbound and outbound message
// queues. The strict single-producer/single-consumer discipline is
// what makes the head/tail bookkeeping safe without per-element locks;
// violating that discipline (two producers, two consumers) is a
// program error, not a data race the type tries to detect.
package queue

import (
	"sync/atomic"
	"time"
)

// backoff is the sleep between retries when Push finds the queue full
// or Pop finds it empty.
const backoff = 2 * time.Millisecond

// Ring is a bounded, lock-free SPSC FIFO queue of T. head is owned by
// the consumer, tail is owned by the producer; both are ever-
// increasing counters read by the other side only through an atomic
// load, so there is never a mutex on the hot path. All exported
// methods are safe to call from exactly one producer goroutine (Push)
// and exactly one consumer goroutine (Pop/TryPop/Len) concurrently;
// concurrent calls to Push from two goroutines, or Pop from two
// goroutines, are not supported.
type Ring[T any] struct {
	buf      []T
	capacity uint64

	head atomic.Uint64 // next read index, producer-visible only via Load
	tail atomic.Uint64 // next write index, consumer-visible only via Load

	closed atomic.Bool
}

// NewRing allocates a Ring with room for capacity elements.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring[T]{
		buf:      make([]T, capacity),
		capacity: uint64(capacity),
	}
}

// Close marks the ring closed; any blocked or future Push/Pop
// returns immediately with ok=false once drained.
func (r *Ring[T]) Close() {
	r.closed.Store(true)
}

// TryPush attempts to enqueue v without blocking, returning false if
// the ring is full or closed. Producer-only.
func (r *Ring[T]) TryPush(v T) bool {
	if r.closed.Load() {
		return false
	}
	tail := r.tail.Load()
	head := r.head.Load()
	if tail-head >= r.capacity {
		return false
	}
	r.buf[tail%r.capacity] = v
	r.tail.Store(tail + 1)
	return true
}

// Push enqueues v, busy-waiting with a short sleep while the ring is
// full. It gives up and returns false once deadline has elapsed (a
// zero deadline means "try forever until closed"). Producer-only.
func (r *Ring[T]) Push(v T, deadline time.Duration) bool {
	start := time.Now()
	for {
		if r.TryPush(v) {
			return true
		}
		if r.closed.Load() {
			return false
		}
		if deadline > 0 && time.Since(start) >= deadline {
			return false
		}
		time.Sleep(backoff)
	}
}

// TryPop attempts to dequeue without blocking, returning ok=false if
// the ring is empty. Consumer-only.
func (r *Ring[T]) TryPop() (v T, ok bool) {
	head := r.head.Load()
	tail := r.tail.Load()
	if head == tail {
		return v, false
	}
	idx := head % r.capacity
	v = r.buf[idx]
	var zero T
	r.buf[idx] = zero
	r.head.Store(head + 1)
	return v, true
}

// Pop dequeues, busy-waiting with a short sleep while the ring is
// empty, until the ring is closed and drained (ok=false). Consumer-only.
func (r *Ring[T]) Pop() (v T, ok bool) {
	for {
		if v, ok = r.TryPop(); ok {
			return v, true
		}
		if r.closed.Load() {
			return v, false
		}
		time.Sleep(backoff)
	}
}

// DrainUpTo pops at most n elements without blocking, used by
// schedulers that process a bounded batch of messages per tick.
// Consumer-only.
func (r *Ring[T]) DrainUpTo(n int) []T {
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		v, ok := r.TryPop()
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out
}

// Len reports the number of queued elements. Safe from either side;
// under concurrent Push/Pop it is a snapshot, not a synchronization
// point.
func (r *Ring[T]) Len() int {
	return int(r.tail.Load() - r.head.Load())
}
