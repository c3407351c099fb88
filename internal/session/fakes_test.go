package session_test

import (
	"context"
	"errors"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/okian/notebeat/internal/domain/palette"
	"github.com/okian/notebeat/internal/domain/placement"
	"github.com/okian/notebeat/internal/domain/spawner"
	"github.com/okian/notebeat/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// fakePlayer records calls and tracks a simple playing flag.
type fakePlayer struct {
	mu      sync.Mutex
	playing bool
	plays   int
	stops   int
	gen     uint64
	calls   []string
}

func (p *fakePlayer) PlayOrToggle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plays++
	p.playing = !p.playing
	p.calls = append(p.calls, "play")
}

func (p *fakePlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
	p.gen++
	p.playing = false
	p.calls = append(p.calls, "stop")
}

func (p *fakePlayer) AverageLevel() float64 { return -12 }

func (p *fakePlayer) Generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen
}

func (p *fakePlayer) isPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// cycleSpawner hands out palette ranks in order; -1 means no color.
type cycleSpawner struct {
	p     palette.Palette
	ranks []int
	i     int
	poses []*mgl64.Mat4
}

func (s *cycleSpawner) Next(pose *mgl64.Mat4) spawner.Spawn {
	rank := s.ranks[s.i%len(s.ranks)]
	s.i++
	s.poses = append(s.poses, pose)
	off := mgl64.Vec3{float64(s.i), 0, -1}
	sp := spawner.Spawn{Offset: off, Transform: placement.Resolve(pose, off), Mode: spawner.ModeAbsolute}
	if pose != nil {
		sp.Mode = spawner.ModeRelative
	}
	if rank >= 0 {
		c := s.p.At(rank)
		sp.Color = &c
	}
	return sp
}

type fakeRecorder struct {
	mu     sync.Mutex
	scores map[string][]int
	err    error
}

func (r *fakeRecorder) UpdateBest(_ context.Context, player string, score int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	if r.scores == nil {
		r.scores = make(map[string][]int)
	}
	r.scores[player] = append(r.scores[player], score)
	return true, nil
}

func (r *fakeRecorder) get(player string) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.scores[player]...)
}

var errRecorder = errors.New("recorder down")
