// Package repository keeps each player's best finished game.
package repository

import (
	"context"
	"time"
)

// Entry represents a high score row.
type Entry struct {
	Rank       int
	Player     string
	Score      int
	Games      int
	AchievedAt time.Time
}

// Store provides read/write access to the high score table.
type Store interface {
	// UpdateBest records a finished game. It returns true when score is
	// the player's new best.
	UpdateBest(ctx context.Context, player string, score int) (bool, error)

	// Rank returns the current rank and best score for a player.
	// Returns ErrNotFound if the player is unknown.
	Rank(ctx context.Context, player string) (Entry, error)

	// TopN returns the top-N entries ordered by score desc, then player asc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of players in the table.
	Count(ctx context.Context) int
}
