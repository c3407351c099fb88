// Package worker runs a single consumer over a queue.
//
// One worker per queue gives the handler exclusive ownership of whatever
// state it mutates.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/notebeat/pkg/logger"
	"github.com/okian/notebeat/pkg/metrics"
)

// Source defines how workers receive items.
type Source[T any] interface {
	Dequeue(ctx context.Context) <-chan T
}

// Handler processes one item.
type Handler[T any] func(ctx context.Context, item T) error

// Worker processes items from a Source one at a time, in order.
type Worker[T any] struct {
	source Source[T]
	handle Handler[T]
	name   string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	logger logger.Logger
}

// New creates a worker with configuration options.
func New[T any](source Source[T], handle Handler[T], opts ...Option) *Worker[T] {
	cfg := config{name: "worker"}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Get().Named(cfg.name)
	}

	return &Worker[T]{
		source:   source,
		handle:   handle,
		name:     cfg.name,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   cfg.logger,
	}
}

// Run processes items until ctx is canceled, Shutdown is called or the
// source closes.
func (w *Worker[T]) Run(ctx context.Context) {
	defer close(w.done)

	dctx, cancel := context.WithCancel(ctx)
	defer cancel()
	items := w.source.Dequeue(dctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case item, ok := <-items:
			if !ok {
				return
			}
			w.process(ctx, item)
		}
	}
}

// Done is closed when Run returns.
func (w *Worker[T]) Done() <-chan struct{} { return w.done }

// Shutdown stops the worker and waits for Run to return.
func (w *Worker[T]) Shutdown(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *Worker[T]) process(ctx context.Context, item T) {
	start := time.Now()
	defer func() {
		metrics.RecordCommandLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordErrorByComponent(w.name, "panic")
			w.logger.Error(ctx, "handler panicked", logger.Any("panic", r))
		}
	}()

	if err := w.handle(ctx, item); err != nil {
		metrics.RecordErrorByComponent(w.name, "handler")
		w.logger.Error(ctx, "error processing item", logger.Error(err))
	}
}
