package repository

import (
	"math/rand"
	"time"
)

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithSeed makes node priorities deterministic.
func WithSeed(seed int64) Option {
	return func(s *TreapStore) {
		s.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // treap priorities
	}
}

// WithNow replaces the clock used for AchievedAt.
func WithNow(now func() time.Time) Option {
	return func(s *TreapStore) {
		if now != nil {
			s.now = now
		}
	}
}
