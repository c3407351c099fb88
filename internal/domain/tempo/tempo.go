// Package tempo derives beat intervals from a song's tempo.
package tempo

import (
	"errors"
	"fmt"
	"time"
)

// Quarter is the default subdivision: one spawn per quarter note.
const Quarter = 0.25

// ErrInvalidTempo reports a non-positive bpm or subdivision.
var ErrInvalidTempo = errors.New("invalid tempo")

// Tempo is a song tempo in beats per minute plus the fraction of a bar
// between two beat events. It is a value type and never changes once built.
type Tempo struct {
	bpm         float64
	subdivision float64
}

// New validates and builds a Tempo.
func New(bpm, subdivision float64) (Tempo, error) {
	if bpm <= 0 {
		return Tempo{}, fmt.Errorf("%w: bpm must be positive, got %v", ErrInvalidTempo, bpm)
	}
	if subdivision <= 0 {
		return Tempo{}, fmt.Errorf("%w: subdivision must be positive, got %v", ErrInvalidTempo, subdivision)
	}
	return Tempo{bpm: bpm, subdivision: subdivision}, nil
}

// MustNew is New for constants known to be valid.
func MustNew(bpm, subdivision float64) Tempo {
	t, err := New(bpm, subdivision)
	if err != nil {
		panic(err)
	}
	return t
}

// BPM returns the beats per minute.
func (t Tempo) BPM() float64 { return t.bpm }

// Subdivision returns the bar fraction between beat events.
func (t Tempo) Subdivision() float64 { return t.subdivision }

// Seconds is 60 / bpm * 4 * subdivision.
func (t Tempo) Seconds() float64 {
	return 60.0 / t.bpm * 4.0 * t.subdivision
}

// Interval returns Seconds as a duration.
func (t Tempo) Interval() time.Duration {
	return time.Duration(t.Seconds() * float64(time.Second))
}

func (t Tempo) String() string {
	return fmt.Sprintf("%gbpm/%g", t.bpm, t.subdivision)
}
