package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"
)

func TestTreapStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(WithSeed(1))

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	updated, err := store.UpdateBest(ctx, "ana", 45)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated {
		t.Error("expected update to succeed")
	}
	if count := store.Count(ctx); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	entry, err := store.Rank(ctx, "ana")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Rank != 1 || entry.Score != 45 || entry.Games != 1 {
		t.Errorf("unexpected entry %+v", entry)
	}

	entries, err := store.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Player != "ana" {
		t.Errorf("unexpected top entries %+v", entries)
	}
}

func TestTreapStore_ScoreUpdates(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewTreapStore(WithSeed(2), WithNow(func() time.Time { return now }))

	if _, err := store.UpdateBest(ctx, "ana", 30); err != nil {
		t.Fatal(err)
	}

	now = now.Add(time.Hour)
	if updated, _ := store.UpdateBest(ctx, "ana", 20); updated {
		t.Error("a lower score must not replace the best")
	}
	if updated, _ := store.UpdateBest(ctx, "ana", 30); updated {
		t.Error("an equal score must not replace the best")
	}

	entry, _ := store.Rank(ctx, "ana")
	if entry.Score != 30 || entry.Games != 3 {
		t.Errorf("expected best 30 after 3 games, got %+v", entry)
	}
	if !entry.AchievedAt.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("best time should not move on a worse game, got %v", entry.AchievedAt)
	}

	if updated, _ := store.UpdateBest(ctx, "ana", 75); !updated {
		t.Error("a higher score must replace the best")
	}
	entry, _ = store.Rank(ctx, "ana")
	if entry.Score != 75 || entry.Games != 4 || !entry.AchievedAt.Equal(now) {
		t.Errorf("unexpected entry after improvement %+v", entry)
	}
}

func TestTreapStore_OrderingAndTies(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(WithSeed(3))

	for player, score := range map[string]int{"cid": 50, "ana": 50, "bob": 95, "dee": 5, "eve": 0} {
		if _, err := store.UpdateBest(ctx, player, score); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := store.TopN(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"bob", "ana", "cid"}
	for i, e := range entries {
		if e.Player != want[i] || e.Rank != i+1 {
			t.Errorf("position %d: want %s rank %d, got %+v", i, want[i], i+1, e)
		}
	}

	for i, p := range []string{"bob", "ana", "cid", "dee", "eve"} {
		e, err := store.Rank(ctx, p)
		if err != nil {
			t.Fatal(err)
		}
		if e.Rank != i+1 {
			t.Errorf("%s: want rank %d, got %d", p, i+1, e.Rank)
		}
	}
}

func TestTreapStore_EdgeCases(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()

	if _, err := store.Rank(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.TopN(ctx, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
	if _, err := store.UpdateBest(ctx, "  ", 10); !errors.Is(err, ErrInvalidPlayer) {
		t.Errorf("expected ErrInvalidPlayer, got %v", err)
	}
	if _, err := store.UpdateBest(ctx, "ana", -1); !errors.Is(err, ErrInvalidScore) {
		t.Errorf("expected ErrInvalidScore, got %v", err)
	}

	if _, err := store.UpdateBest(ctx, " ana ", 10); err != nil {
		t.Fatal(err)
	}
	if e, err := store.Rank(ctx, "ana"); err != nil || e.Player != "ana" {
		t.Errorf("names should be trimmed, got %+v %v", e, err)
	}

	entries, err := store.TopN(ctx, 100)
	if err != nil || len(entries) != 1 {
		t.Errorf("expected a single entry, got %d %v", len(entries), err)
	}
}

func TestTreapStore_RankCorrectnessUnderStress(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(WithSeed(4))
	rng := rand.New(rand.NewSource(5))

	best := make(map[string]int)
	for i := 0; i < 5000; i++ {
		p := fmt.Sprintf("p%03d", rng.Intn(300))
		s := rng.Intn(500)
		if _, err := store.UpdateBest(ctx, p, s); err != nil {
			t.Fatal(err)
		}
		if old, ok := best[p]; !ok || s > old {
			best[p] = s
		}
	}

	type row struct {
		p string
		s int
	}
	rows := make([]row, 0, len(best))
	for p, s := range best {
		rows = append(rows, row{p, s})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].s != rows[j].s {
			return rows[i].s > rows[j].s
		}
		return rows[i].p < rows[j].p
	})

	if store.Count(ctx) != len(rows) {
		t.Fatalf("expected %d players, got %d", len(rows), store.Count(ctx))
	}
	top, _ := store.TopN(ctx, len(rows))
	for i, r := range rows {
		if top[i].Player != r.p || top[i].Score != r.s {
			t.Fatalf("row %d: want %+v, got %+v", i, r, top[i])
		}
		e, err := store.Rank(ctx, r.p)
		if err != nil || e.Rank != i+1 {
			t.Fatalf("%s: want rank %d, got %+v %v", r.p, i+1, e, err)
		}
	}
}

func TestTreapStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				p := fmt.Sprintf("w%d", w)
				_, _ = store.UpdateBest(ctx, p, i)
				_, _ = store.Rank(ctx, p)
				_, _ = store.TopN(ctx, 5)
			}
		}(w)
	}
	wg.Wait()

	if c := store.Count(ctx); c != 8 {
		t.Errorf("expected 8 players, got %d", c)
	}
	top, _ := store.TopN(ctx, 8)
	for _, e := range top {
		if e.Score != 199 || e.Games != 200 {
			t.Errorf("unexpected entry %+v", e)
		}
	}
}

func BenchmarkTreapStore_UpdateBest(b *testing.B) {
	ctx := context.Background()
	store := NewTreapStore(WithSeed(6))
	rng := rand.New(rand.NewSource(7))
	players := make([]string, 10000)
	for i := range players {
		players[i] = fmt.Sprintf("player-%d", i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.UpdateBest(ctx, players[rng.Intn(len(players))], rng.Intn(10000))
	}
}

func BenchmarkTreapStore_Rank(b *testing.B) {
	ctx := context.Background()
	store := NewTreapStore(WithSeed(8))
	for i := 0; i < 10000; i++ {
		_, _ = store.UpdateBest(ctx, fmt.Sprintf("player-%d", i), i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.Rank(ctx, fmt.Sprintf("player-%d", i%10000))
	}
}
