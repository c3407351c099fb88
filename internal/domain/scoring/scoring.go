// Package scoring maps a note color to its point value.
package scoring

import (
	"github.com/okian/notebeat/internal/domain/palette"
)

// Scoring constants.
const (
	// DefaultFallback is awarded for notes with no color or a color outside
	// the palette. It is larger than any in-palette value.
	DefaultFallback = 50
	pointsPerRank   = 5
)

// Score is total: absent or unknown colors earn DefaultFallback, palette
// colors earn (index+1)*5.
func Score(p palette.Palette, color *palette.Color) int {
	return score(p, color, DefaultFallback)
}

func score(p palette.Palette, color *palette.Color, fallback int) int {
	if color == nil {
		return fallback
	}
	idx := p.Index(*color)
	if idx < 0 {
		return fallback
	}
	return (idx + 1) * pointsPerRank
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithFallback overrides the fallback value. Negative values are ignored.
func WithFallback(points int) Option {
	return func(s *Scorer) {
		if points >= 0 {
			s.fallback = points
		}
	}
}

// Scorer binds a palette to a fallback value.
type Scorer struct {
	palette  palette.Palette
	fallback int
}

// NewScorer creates a scorer for p.
func NewScorer(p palette.Palette, opts ...Option) *Scorer {
	s := &Scorer{
		palette:  p,
		fallback: DefaultFallback,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score returns the points for color.
func (s *Scorer) Score(color *palette.Color) int {
	return score(s.palette, color, s.fallback)
}

// Rank returns the palette index of color as a label: "0".."4" or "unknown".
// Used for metrics.
func (s *Scorer) Rank(color *palette.Color) string {
	if color == nil {
		return "unknown"
	}
	idx := s.palette.Index(*color)
	if idx < 0 {
		return "unknown"
	}
	return string(rune('0' + idx))
}

// Palette returns the palette the scorer ranks against.
func (s *Scorer) Palette() palette.Palette { return s.palette }
