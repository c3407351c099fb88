// Package dedupe remembers recent request ids and the answer given to each,
// so a retried request gets the original answer instead of being applied twice.
package dedupe

import (
	"context"
	"sync"
)

const defaultMaxSize = 4096

// Deduper records seen ids with the result produced for them.
type Deduper[V any] interface {
	// Seen returns the recorded result for id.
	Seen(ctx context.Context, id string) (V, bool)

	// Record stores the result for id. A known id keeps its first result.
	Record(ctx context.Context, id string, v V)

	// Reset forgets every id.
	Reset(ctx context.Context)

	Size() int64
}

// Option applies a configuration option to the deduper.
type Option func(*config)

type config struct {
	maxSize int
}

// WithMaxSize bounds the number of remembered ids. The oldest id is
// evicted first.
func WithMaxSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxSize = n
		}
	}
}

// inMemoryDeduper keeps ids in a ring so eviction is FIFO and O(1).
type inMemoryDeduper[V any] struct {
	mu    sync.Mutex
	seen  map[string]V
	ring  []string
	next  int
	count int
}

// NewInMemoryDeduper creates a bounded in-memory deduper.
func NewInMemoryDeduper[V any](opts ...Option) Deduper[V] {
	cfg := config{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &inMemoryDeduper[V]{
		seen: make(map[string]V, cfg.maxSize),
		ring: make([]string, cfg.maxSize),
	}
}

func (d *inMemoryDeduper[V]) Seen(ctx context.Context, id string) (V, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.seen[id]
	return v, ok
}

func (d *inMemoryDeduper[V]) Record(ctx context.Context, id string, v V) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return
	}
	if d.count == len(d.ring) {
		delete(d.seen, d.ring[d.next])
	} else {
		d.count++
	}
	d.ring[d.next] = id
	d.next = (d.next + 1) % len(d.ring)
	d.seen[id] = v
}

func (d *inMemoryDeduper[V]) Reset(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = make(map[string]V, len(d.ring))
	for i := range d.ring {
		d.ring[i] = ""
	}
	d.next = 0
	d.count = 0
}

func (d *inMemoryDeduper[V]) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
