package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type item struct {
	id string
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue[item](WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if !q.Enqueue(ctx, item{id: "a"}) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.id != "a" {
		t.Errorf("expected a, got %v", got.id)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue[item](WithCapacity(2))
	ctx := context.Background()

	if q.Capacity() != 2 {
		t.Fatalf("expected capacity 2, got %d", q.Capacity())
	}
	if !q.Enqueue(ctx, item{"1"}) || !q.Enqueue(ctx, item{"2"}) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, item{"3"}) {
		t.Error("expected enqueue to fail when full")
	}
}

func TestInMemoryQueue_Order(t *testing.T) {
	q := NewInMemoryQueue[int](WithCapacity(10))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < 5; i++ {
		q.Enqueue(ctx, i)
	}
	ch := q.Dequeue(ctx)
	for i := 0; i < 5; i++ {
		if got := <-ch; got != i {
			t.Fatalf("expected %d, got %d", i, got)
		}
	}
}

func TestInMemoryQueue_EnqueueWait(t *testing.T) {
	q := NewInMemoryQueue[int](WithCapacity(1))
	ctx := context.Background()
	q.Enqueue(ctx, 1)

	done := make(chan error, 1)
	go func() { done <- q.EnqueueWait(ctx, 2) }()

	select {
	case <-done:
		t.Fatal("EnqueueWait should block while full")
	case <-time.After(20 * time.Millisecond):
	}

	dctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ch := q.Dequeue(dctx)
	if got := <-ch; got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := <-ch; got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
}

func TestInMemoryQueue_EnqueueWaitTimeout(t *testing.T) {
	q := NewInMemoryQueue[int](WithCapacity(1))
	q.Enqueue(context.Background(), 1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := q.EnqueueWait(ctx, 2); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue[int](WithCapacity(4))
	ctx := context.Background()
	ch := q.Dequeue(ctx)

	if err := q.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("second close should be a no-op: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}
	if q.Enqueue(ctx, 1) {
		t.Error("expected enqueue to fail after close")
	}
	if err := q.EnqueueWait(ctx, 1); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected dequeue channel to be closed")
		}
	case <-time.After(time.Second):
		t.Error("dequeue channel was not closed")
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if q.Enqueue(ctx, 1) {
		t.Error("expected enqueue to fail with a cancelled context")
	}
}

func TestInMemoryQueue_ConcurrentProducers(t *testing.T) {
	q := NewInMemoryQueue[int](WithCapacity(1000))
	ctx := context.Background()

	var wg sync.WaitGroup
	for p := 0; p < 10; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.Enqueue(ctx, i)
			}
		}()
	}
	wg.Wait()

	if l := q.Len(ctx); l != 1000 {
		t.Errorf("expected 1000 items, got %d", l)
	}
}
