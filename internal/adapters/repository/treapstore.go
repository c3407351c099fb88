package repository

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/okian/notebeat/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: score DESC, then player ASC (deterministic).
// "less" means ranks earlier, so an in-order walk yields the table from
// best to worst. Subtree sizes give Rank in O(log n).

type record struct {
	score      int
	games      int
	achievedAt time.Time
}

// treap node
type node struct {
	id    string
	score int
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aID) should appear before (bScore, bID).
func less(aScore int, aID string, bScore int, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, score int, prio uint64) *node {
	if n == nil {
		return &node{id: id, score: score, prio: prio, size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score int) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	case less(score, id, n.score, n.id):
		n.left = deleteNode(n.left, id, score)
	default:
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// position returns the 1-based in-order index of (score, id).
func position(n *node, id string, score int) int {
	pos := 0
	for n != nil {
		switch {
		case score == n.score && id == n.id:
			return pos + nsize(n.left) + 1
		case less(score, id, n.score, n.id):
			n = n.left
		default:
			pos += nsize(n.left) + 1
			n = n.right
		}
	}
	return 0
}

// collectTopN appends up to limit entries in rank order.
func collectTopN(n *node, limit int, records map[string]record, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, records, out)
	if len(*out) < limit {
		rec := records[n.id]
		*out = append(*out, Entry{
			Rank:       len(*out) + 1,
			Player:     n.id,
			Score:      rec.score,
			Games:      rec.games,
			AchievedAt: rec.achievedAt,
		})
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, records, out)
	}
}

// TreapStore is safe for concurrent use.
type TreapStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]record
	rng  *rand.Rand
	now  func() time.Time
}

// NewTreapStore constructs an empty high score table.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		byID: make(map[string]record),
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // treap priorities
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	metrics.UpdateHighscorePlayers(0)
	return s
}

// NormalizePlayer trims a player name and rejects empty ones.
func NormalizePlayer(player string) (string, error) {
	p := strings.TrimSpace(player)
	if p == "" {
		return "", ErrInvalidPlayer
	}
	return p, nil
}

// UpdateBest implements Store.UpdateBest in O(log n) expected time.
func (s *TreapStore) UpdateBest(ctx context.Context, player string, score int) (bool, error) {
	player, err := NormalizePlayer(player)
	if err != nil {
		metrics.RecordErrorByComponent("highscores", "invalid_player")
		return false, err
	}
	if score < 0 {
		metrics.RecordErrorByComponent("highscores", "invalid_score")
		return false, ErrInvalidScore
	}

	s.mu.Lock()
	old, known := s.byID[player]
	old.games++
	if known && score <= old.score {
		s.byID[player] = old
		s.mu.Unlock()
		return false, nil
	}
	if known {
		s.root = deleteNode(s.root, player, old.score)
	}
	s.byID[player] = record{score: score, games: old.games, achievedAt: s.now()}
	s.root = insert(s.root, player, score, s.rng.Uint64())
	count := len(s.byID)
	s.mu.Unlock()

	metrics.RecordHighscoreUpdate()
	if !known {
		metrics.UpdateHighscorePlayers(count)
	}
	return true, nil
}

// Rank returns the current rank and best score for a player in O(log n).
func (s *TreapStore) Rank(ctx context.Context, player string) (Entry, error) {
	player = strings.TrimSpace(player)

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[player]
	if !ok {
		metrics.RecordErrorByComponent("highscores", "not_found")
		return Entry{}, ErrNotFound
	}
	return Entry{
		Rank:       position(s.root, player, rec.score),
		Player:     player,
		Score:      rec.score,
		Games:      rec.games,
		AchievedAt: rec.achievedAt,
	}, nil
}

// TopN returns the top N entries ordered by score desc.
func (s *TreapStore) TopN(ctx context.Context, n int) ([]Entry, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("highscores", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, min(n, len(s.byID)))
	collectTopN(s.root, n, s.byID, &out)
	return out, nil
}

// Count returns the number of players.
func (s *TreapStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
