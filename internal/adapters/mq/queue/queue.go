// Package queue holds work waiting to be admitted by the dispatcher.
//
// The queue is a bounded FIFO backed by a buffered channel. Enqueue never
// blocks; a full or closed queue rejects the item.
package queue

import (
	"context"
	"sync"

	"github.com/eve-telescope/telescope-app/pkg/metrics"
)

const defaultQueueCapacity = 10000

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue[T any] interface {
	// Enqueue adds an item to the queue.
	// Returns false if the queue is full or closed and the item was not enqueued.
	Enqueue(ctx context.Context, item T) bool

	// Dequeue returns a channel that yields items in FIFO order.
	// The channel is closed once the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan T

	// Len returns the current number of queued items.
	Len(ctx context.Context) int

	// Close stops accepting new items.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue[T any] struct {
	items    chan T
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue[T any](opts ...Option) *InMemoryQueue[T] {
	s := settings{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(&s)
	}

	q := &InMemoryQueue[T]{
		items:    make(chan T, s.capacity),
		capacity: s.capacity,
	}
	metrics.UpdateDispatchQueued(0)
	return q
}

// Enqueue adds an item to the queue.
func (q *InMemoryQueue[T]) Enqueue(ctx context.Context, item T) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	select {
	case q.items <- item:
		metrics.UpdateDispatchQueued(len(q.items))
		return true
	case <-ctx.Done():
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns the receive side of the queue. Receiving does not update
// the queued gauge; receivers report the depth themselves.
func (q *InMemoryQueue[T]) Dequeue(_ context.Context) <-chan T {
	return q.items
}

// Drain removes and returns every item still buffered.
func (q *InMemoryQueue[T]) Drain() []T {
	var out []T
	for {
		select {
		case item, ok := <-q.items:
			if !ok {
				metrics.UpdateDispatchQueued(0)
				return out
			}
			out = append(out, item)
		default:
			metrics.UpdateDispatchQueued(len(q.items))
			return out
		}
	}
}

// Len returns the current number of queued items.
func (q *InMemoryQueue[T]) Len(_ context.Context) int {
	return len(q.items)
}

// Cap returns the queue capacity.
func (q *InMemoryQueue[T]) Cap() int {
	return q.capacity
}

// Close stops accepting items. Buffered items remain readable.
func (q *InMemoryQueue[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue[T]) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
