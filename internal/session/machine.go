// Package session owns the game: state, score and the live note set.
//
// Machine is the synchronous state machine and must be driven from a single
// goroutine. Session runs a Machine on its own goroutine and serializes
// commands and playback events onto it through a bounded queue.
package session

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/okian/notebeat/internal/adapters/scene"
	"github.com/okian/notebeat/internal/domain/palette"
	"github.com/okian/notebeat/internal/domain/spawner"
	"github.com/okian/notebeat/pkg/logger"
	"github.com/okian/notebeat/pkg/metrics"
)

// DefaultPlayer names games started without a player.
const DefaultPlayer = "player"

// Player is the playback capability the session drives.
type Player interface {
	PlayOrToggle()
	Stop()
	AverageLevel() float64
	Generation() uint64
}

// Registry holds the live notes.
type Registry interface {
	Create(transform mgl64.Mat4, color *palette.Color) string
	Remove(id string) (scene.Object, bool)
	ClearAll() int
	Len() int
	Shape() scene.Shape
}

// Spawner draws new notes.
type Spawner interface {
	Next(pose *mgl64.Mat4) spawner.Spawn
}

// Scorer values a note color.
type Scorer interface {
	Score(color *palette.Color) int
	Rank(color *palette.Color) string
}

// Recorder keeps finished games.
type Recorder interface {
	UpdateBest(ctx context.Context, player string, score int) (bool, error)
}

// View is a read-only snapshot of the session.
type View struct {
	State      State
	Score      int
	FinalScore int
	Paused     bool
	Message    string
	Player     string
	Live       int
	Level      float64
	Run        uint64
	StartedAt  time.Time
}

// HitResult is the outcome of a tap.
type HitResult struct {
	Applied   bool
	ObjectID  string
	Delta     int
	Score     int
	Position  mgl64.Vec3
	Duplicate bool
}

// MachineOption applies a configuration option to the Machine.
type MachineOption func(*Machine)

// WithRecorder records finished games.
func WithRecorder(r Recorder) MachineOption {
	return func(m *Machine) {
		m.recorder = r
	}
}

// WithMachineLogger sets a custom logger.
func WithMachineLogger(l logger.Logger) MachineOption {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

// Machine is not safe for concurrent use, except Run.
type Machine struct {
	player   Player
	registry Registry
	spawner  Spawner
	scorer   Scorer
	recorder Recorder
	logger   logger.Logger

	state      State
	score      int
	finalScore int
	paused     bool
	message    string
	name       string
	pose       *mgl64.Mat4
	startedAt  time.Time

	// playback is the player generation of the running game.
	playback uint64

	// run numbers play-throughs; read by playback callbacks.
	run atomic.Uint64
}

// NewMachine creates a machine in the Idle state.
func NewMachine(p Player, r Registry, sp Spawner, sc Scorer, opts ...MachineOption) *Machine {
	m := &Machine{
		player:   p,
		registry: r,
		spawner:  sp,
		scorer:   sc,
		logger:   logger.Get().Named("session"),
		state:    Idle,
		name:     DefaultPlayer,
	}
	for _, opt := range opts {
		opt(m)
	}
	metrics.UpdateSessionState(int(Idle))
	return m
}

// Run returns the current play-through number.
func (m *Machine) Run() uint64 { return m.run.Load() }

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Score returns the running score.
func (m *Machine) Score() int { return m.score }

// Load moves Idle to Menu once assets are ready.
func (m *Machine) Load(ctx context.Context) bool {
	if m.state != Idle {
		return m.ignore(ctx, "load")
	}
	m.setState(Menu)
	m.logger.Info(ctx, "session loaded")
	return true
}

// Start begins a game from the Menu. Score and live notes are reset.
func (m *Machine) Start(ctx context.Context, player string) bool {
	if m.state != Menu {
		return m.ignore(ctx, "start")
	}
	if player == "" {
		player = DefaultPlayer
	}
	run := m.run.Add(1)
	m.name = player
	m.score = 0
	m.finalScore = 0
	m.message = ""
	m.paused = false
	m.startedAt = time.Now()
	m.registry.ClearAll()
	metrics.UpdateScore(0)

	m.setState(Playing)
	m.player.Stop()
	m.player.PlayOrToggle()
	m.playback = m.player.Generation()
	metrics.RecordSessionStarted()
	m.logger.Info(ctx, "game started", logger.String("player", player), logger.Int64("run", int64(run)))
	return true
}

// Toggle pauses or resumes a running game.
func (m *Machine) Toggle(ctx context.Context) bool {
	if m.state != Playing {
		return m.ignore(ctx, "toggle")
	}
	m.paused = !m.paused
	m.player.PlayOrToggle()
	m.logger.Debug(ctx, "game toggled", logger.Bool("paused", m.paused))
	return true
}

// Beat spawns a note for play-through run. Beats from another run, or
// outside an unpaused game, are dropped.
func (m *Machine) Beat(ctx context.Context, run uint64) (string, bool) {
	if run != m.run.Load() {
		metrics.RecordBeatDropped()
		return "", false
	}
	if m.state != Playing || m.paused {
		m.ignore(ctx, "beat")
		return "", false
	}
	sp := m.spawner.Next(m.pose)
	id := m.registry.Create(sp.Transform, sp.Color)
	metrics.RecordBeat()
	metrics.RecordSpawn(string(m.registry.Shape()), sp.Mode)
	return id, true
}

// Hit scores and removes a live note. Unknown ids and hits outside a game
// are no-ops.
func (m *Machine) Hit(ctx context.Context, id string) HitResult {
	res := HitResult{ObjectID: id, Score: m.score}
	if m.state != Playing {
		m.ignore(ctx, "hit")
		return res
	}
	obj, ok := m.registry.Remove(id)
	if !ok {
		return res
	}
	res.Applied = true
	res.Delta = m.scorer.Score(obj.Color)
	res.Position = obj.Position
	m.score += res.Delta
	res.Score = m.score

	metrics.RecordHit(m.scorer.Rank(obj.Color))
	metrics.UpdateScore(m.score)
	m.logger.Debug(ctx, "note hit",
		logger.String("object", id),
		logger.Int("delta", res.Delta),
		logger.Int("score", m.score),
	)
	return res
}

// Finished ends the game when its track ends. playback is the player
// generation that finished; an older one belongs to a previous game.
func (m *Machine) Finished(ctx context.Context, playback uint64, success bool) bool {
	if playback != m.playback || m.state != Playing {
		return m.ignore(ctx, "finished")
	}
	reason := ReasonCompleted
	if !success {
		reason = ReasonFailed
	}
	m.finish(ctx, reason)
	return true
}

// Stop ends a running game on request.
func (m *Machine) Stop(ctx context.Context) bool {
	if m.state != Playing {
		return m.ignore(ctx, "stop")
	}
	m.finish(ctx, ReasonStopped)
	return true
}

// Acknowledge returns from the end screen to the menu.
func (m *Machine) Acknowledge(ctx context.Context) bool {
	if m.state != Finished {
		return m.ignore(ctx, "acknowledge")
	}
	m.score = 0
	m.finalScore = 0
	m.message = ""
	metrics.UpdateScore(0)
	m.setState(Menu)
	return true
}

// SetPose stores the latest viewer transform.
func (m *Machine) SetPose(pose mgl64.Mat4) {
	m.pose = &pose
}

// ClearPose forgets the viewer transform.
func (m *Machine) ClearPose() {
	m.pose = nil
}

// View returns a snapshot.
func (m *Machine) View() View {
	return View{
		State:      m.state,
		Score:      m.score,
		FinalScore: m.finalScore,
		Paused:     m.paused,
		Message:    m.message,
		Player:     m.name,
		Live:       m.registry.Len(),
		Level:      m.player.AverageLevel(),
		Run:        m.run.Load(),
		StartedAt:  m.startedAt,
	}
}

// finish stops playback, and with it the beat clock, before clearing notes.
func (m *Machine) finish(ctx context.Context, reason string) {
	m.player.Stop()
	cleared := m.registry.ClearAll()

	m.finalScore = m.score
	m.paused = false
	m.message = EndMessage(m.score)
	m.setState(Finished)
	metrics.RecordSessionFinished(reason, m.score)

	if m.recorder != nil {
		if best, err := m.recorder.UpdateBest(ctx, m.name, m.score); err != nil {
			m.logger.Warn(ctx, "high score not recorded", logger.Error(err))
		} else if best {
			m.logger.Info(ctx, "new high score", logger.String("player", m.name), logger.Int("score", m.score))
		}
	}
	m.logger.Info(ctx, "game finished",
		logger.String("reason", reason),
		logger.Int("score", m.score),
		logger.Int("cleared", cleared),
	)
}

func (m *Machine) setState(s State) {
	m.state = s
	metrics.UpdateSessionState(int(s))
}

func (m *Machine) ignore(ctx context.Context, event string) bool {
	metrics.RecordIgnoredEvent(event, m.state.String())
	m.logger.Debug(ctx, "event ignored", logger.String("event", event), logger.String("state", m.state.String()))
	return false
}

// EndMessage is shown when a game ends.
func EndMessage(score int) string {
	return fmt.Sprintf("Congratulations, you made %d points!", score)
}
