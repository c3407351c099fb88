package autoplay

import (
	"errors"
	"fmt"
)

// ErrScoreMismatch is returned when the service's totals disagree with the
// points the autoplayer was awarded.
var ErrScoreMismatch = errors.New("score mismatch")

// verifyResults checks the finished session and, when a player was named,
// its high-score entry.
func verifyResults(stats *Stats, final Session, entry *Highscore) error {
	if final.State != StateFinished {
		return fmt.Errorf("%w: session is %s, want %s", ErrScoreMismatch, final.State, StateFinished)
	}
	if final.FinalScore != stats.DeltaSum {
		return fmt.Errorf("%w: final score %d, awarded %d", ErrScoreMismatch, final.FinalScore, stats.DeltaSum)
	}
	if entry == nil {
		return nil
	}
	if entry.Player != final.Player {
		return fmt.Errorf("%w: highscore belongs to %q, played as %q", ErrScoreMismatch, entry.Player, final.Player)
	}
	if entry.Score < final.FinalScore {
		return fmt.Errorf("%w: best score %d below final score %d", ErrScoreMismatch, entry.Score, final.FinalScore)
	}
	if entry.Rank < 1 {
		return fmt.Errorf("%w: invalid rank %d", ErrScoreMismatch, entry.Rank)
	}
	return nil
}
