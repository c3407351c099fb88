// Package queue provides a bounded in-memory queue with non-blocking
// enqueue and channel-based dequeue.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/notebeat/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 1024
)

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue[T any] interface {
	// Enqueue adds an item to the queue.
	// Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, e T) bool

	// EnqueueWait blocks until the item is queued, ctx is done or the
	// queue is closed.
	EnqueueWait(ctx context.Context, e T) error

	// Dequeue returns a channel that will receive items as they become available.
	// The channel will be closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan T

	// Len returns the current number of queued items.
	Len(ctx context.Context) int

	// Close shuts down the queue. Queued items are discarded.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel. The channel is
// never closed; closing is signalled on done so late senders cannot panic.
type InMemoryQueue[T any] struct {
	items    chan T
	capacity int
	done     chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue[T any](opts ...Option) *InMemoryQueue[T] {
	cfg := config{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(&cfg)
	}

	q := &InMemoryQueue[T]{
		items:    make(chan T, cfg.capacity),
		capacity: cfg.capacity,
		done:     make(chan struct{}),
	}

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)

	return q
}

// Capacity returns the maximum number of queued items.
func (q *InMemoryQueue[T]) Capacity() int { return q.capacity }

// Enqueue adds an item without blocking.
func (q *InMemoryQueue[T]) Enqueue(ctx context.Context, e T) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError("closed")
		return false
	}
	if ctx.Err() != nil {
		metrics.RecordQueueEnqueueError("context_cancelled")
		return false
	}

	select {
	case q.items <- e:
		metrics.UpdateQueueSize(len(q.items))
		return true
	default:
		metrics.RecordQueueEnqueueError("queue_full")
		return false
	}
}

// EnqueueWait adds an item, waiting for room.
func (q *InMemoryQueue[T]) EnqueueWait(ctx context.Context, e T) error {
	if q.IsClosed() {
		metrics.RecordQueueEnqueueError("closed")
		return ErrClosed
	}
	select {
	case q.items <- e:
		metrics.UpdateQueueSize(len(q.items))
		return nil
	case <-q.done:
		metrics.RecordQueueEnqueueError("closed")
		return ErrClosed
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError("context_cancelled")
		return fmt.Errorf("enqueue: %w", ctx.Err())
	}
}

// Dequeue returns a channel that will receive items as they become available.
func (q *InMemoryQueue[T]) Dequeue(ctx context.Context) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for {
			select {
			case <-q.done:
				return
			case <-ctx.Done():
				return
			case e := <-q.items:
				metrics.UpdateQueueSize(len(q.items))
				select {
				case out <- e:
				case <-q.done:
					return
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Len returns the current number of queued items.
func (q *InMemoryQueue[T]) Len(ctx context.Context) int {
	size := len(q.items)
	metrics.UpdateQueueSize(size)
	return size
}

// Close shuts down the queue.
func (q *InMemoryQueue[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.done)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue[T]) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
