// Package spawner draws the position and color of a new note on each beat.
package spawner

import (
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/okian/notebeat/internal/domain/palette"
	"github.com/okian/notebeat/internal/domain/placement"
)

// Default spawn region, in front of the viewer (-Z forward).
const (
	DefaultHorizontal = 10.0
	DefaultVertical   = 10.0
	DefaultDepthMin   = 1.0
	DefaultDepthMax   = 10.0
)

// Placement modes reported with each spawn.
const (
	ModeRelative = "relative"
	ModeAbsolute = "absolute"
)

// Bounds is the sampling region. X is drawn from [-Horizontal, Horizontal],
// Y from [-Vertical, Vertical] and Z from [-DepthMax, -DepthMin].
type Bounds struct {
	Horizontal float64
	Vertical   float64
	DepthMin   float64
	DepthMax   float64
}

// DefaultBounds returns the stock region.
func DefaultBounds() Bounds {
	return Bounds{
		Horizontal: DefaultHorizontal,
		Vertical:   DefaultVertical,
		DepthMin:   DefaultDepthMin,
		DepthMax:   DefaultDepthMax,
	}
}

// Valid reports whether the region is non-empty and strictly in front of the viewer.
func (b Bounds) Valid() bool {
	return b.Horizontal >= 0 && b.Vertical >= 0 && b.DepthMin > 0 && b.DepthMax >= b.DepthMin
}

// Spawn is one resolved note.
type Spawn struct {
	Offset    mgl64.Vec3
	Transform mgl64.Mat4
	// Color is nil when notes carry no material.
	Color *palette.Color
	Mode  string
}

// Option applies a configuration option to the Spawner.
type Option func(*Spawner)

// WithBounds sets the sampling region. Invalid bounds are ignored.
func WithBounds(b Bounds) Option {
	return func(s *Spawner) {
		if b.Valid() {
			s.bounds = b
		}
	}
}

// WithRand sets the random source, mostly for deterministic tests.
func WithRand(rng *rand.Rand) Option {
	return func(s *Spawner) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithoutColor spawns notes with no color, as for a model without a material slot.
func WithoutColor() Option {
	return func(s *Spawner) {
		s.colored = false
	}
}

// Spawner is not safe for concurrent use; the session owner calls it.
type Spawner struct {
	palette palette.Palette
	bounds  Bounds
	rng     *rand.Rand
	colored bool
}

// New creates a spawner drawing colors from p.
func New(p palette.Palette, opts ...Option) *Spawner {
	s := &Spawner{
		palette: p,
		bounds:  DefaultBounds(),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // gameplay randomness
		colored: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bounds returns the sampling region.
func (s *Spawner) Bounds() Bounds { return s.bounds }

// Offset draws a viewer-local offset inside the bounds.
func (s *Spawner) Offset() mgl64.Vec3 {
	x := s.uniform(-s.bounds.Horizontal, s.bounds.Horizontal)
	y := s.uniform(-s.bounds.Vertical, s.bounds.Vertical)
	z := -s.uniform(s.bounds.DepthMin, s.bounds.DepthMax)
	return mgl64.Vec3{x, y, z}
}

// Next draws a note placed against pose. A nil pose places it absolutely.
func (s *Spawner) Next(pose *mgl64.Mat4) Spawn {
	off := s.Offset()
	sp := Spawn{
		Offset:    off,
		Transform: placement.Resolve(pose, off),
		Mode:      ModeRelative,
	}
	if pose == nil {
		sp.Mode = ModeAbsolute
	}
	if s.colored {
		c := s.palette.Random(s.rng)
		sp.Color = &c
	}
	return sp
}

func (s *Spawner) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}
