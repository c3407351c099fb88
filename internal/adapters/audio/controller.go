// Package audio plays the soundtrack and drives the beat clock from it.
//
// A Controller owns one Track. Playing starts the beat clock at the tempo's
// interval. Reaching the end of the track raises OnFinished once per
// play-through. An explicit Stop does not.
package audio

import (
	"context"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"github.com/okian/notebeat/internal/beatclock"
	"github.com/okian/notebeat/internal/domain/tempo"
	"github.com/okian/notebeat/pkg/logger"
	"github.com/okian/notebeat/pkg/metrics"
)

// Listener receives playback events. OnBeat is called from the clock while
// its lock is held and must not block. OnFinished runs on its own goroutine
// and carries the Generation of the play-through that ended.
type Listener interface {
	OnBeat()
	OnFinished(generation uint64, success bool)
}

// State is the playback state.
type State int

// Playback states.
const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "stopped"
	}
}

type listenerBox struct{ Listener }

// Option applies a configuration option to the Controller.
type Option func(*Controller)

// WithListener sets the event listener.
func WithListener(l Listener) Option {
	return func(c *Controller) {
		c.SetListener(l)
	}
}

// WithClockOptions passes options to the beat clock.
func WithClockOptions(opts ...beatclock.Option) Option {
	return func(c *Controller) {
		c.clockOpts = append(c.clockOpts, opts...)
	}
}

// WithVolume sets a linear gain in [0,1]. Zero mutes.
func WithVolume(v float64) Option {
	return func(c *Controller) {
		if v >= 0 && v <= 1 {
			c.volume = v
		}
	}
}

// WithMeterWidth sets the level meter window in samples.
func WithMeterWidth(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.meterWidth = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// Controller is safe for concurrent use.
type Controller struct {
	track      *Track
	tempo      tempo.Tempo
	out        Output
	clock      *beatclock.Clock
	clockOpts  []beatclock.Option
	listener   atomic.Pointer[listenerBox]
	volume     float64
	meterWidth int
	logger     logger.Logger

	mu    sync.Mutex
	state State
	gen   uint64
	ctrl  *beep.Ctrl
	meter *Meter
}

// NewController binds a loaded track, its tempo and an output.
func NewController(track *Track, t tempo.Tempo, out Output, opts ...Option) *Controller {
	c := &Controller{
		track:      track,
		tempo:      t,
		out:        out,
		volume:     1,
		meterWidth: defaultMeterWidth,
		logger:     logger.Get().Named("audio"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.clock = beatclock.New(c.beat, c.clockOpts...)
	return c
}

// SetListener replaces the event listener.
func (c *Controller) SetListener(l Listener) {
	if l == nil {
		c.listener.Store(nil)
		return
	}
	c.listener.Store(&listenerBox{l})
}

// Track returns the controlled track.
func (c *Controller) Track() *Track { return c.track }

// Tempo returns the beat tempo.
func (c *Controller) Tempo() tempo.Tempo { return c.tempo }

// State returns the playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Generation identifies the current play-through. It changes on every start
// from Stopped and on every stop.
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// IsPlaying reports whether audio is audible and the clock runs.
func (c *Controller) IsPlaying() bool { return c.State() == Playing }

// PlayOrToggle starts playback from the top when stopped, pauses when
// playing and resumes when paused. The beat clock follows.
func (c *Controller) PlayOrToggle() {
	ctx := context.Background()
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Stopped:
		c.gen++
		c.out.Lock()
		if err := c.track.Rewind(); err != nil {
			c.logger.Warn(ctx, "rewind failed", logger.Error(err))
		}
		c.out.Unlock()

		gen := c.gen
		end := beep.Callback(func() { go c.finish(gen) })
		c.ctrl = &beep.Ctrl{Streamer: beep.Seq(c.track.streamer, end)}
		c.meter = NewMeter(c.gain(c.ctrl), c.meterWidth)
		c.out.Play(c.meter)
		c.startClock(ctx)
		c.state = Playing
		c.logger.Info(ctx, "playback started",
			logger.String("track", c.track.Name()),
			logger.String("tempo", c.tempo.String()),
			logger.Duration("interval", c.tempo.Interval()),
		)
	case Playing:
		c.clock.Stop()
		c.out.Lock()
		c.ctrl.Paused = true
		c.out.Unlock()
		c.state = Paused
		c.logger.Debug(ctx, "playback paused")
	case Paused:
		c.out.Lock()
		c.ctrl.Paused = false
		c.out.Unlock()
		c.startClock(ctx)
		c.state = Playing
		c.logger.Debug(ctx, "playback resumed")
	}
}

// Stop halts playback, stops the beat clock and rewinds. It does not raise
// OnFinished. Idempotent.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Stopped {
		return
	}
	c.halt()
	c.logger.Info(context.Background(), "playback stopped")
}

// AverageLevel returns the mean channel power in dBFS, FloorDB when idle.
func (c *Controller) AverageLevel() float64 {
	c.mu.Lock()
	m := c.meter
	c.mu.Unlock()
	if m == nil {
		return FloorDB
	}
	return m.Level()
}

// halt must be called with c.mu held.
func (c *Controller) halt() {
	c.gen++
	c.clock.Stop()
	c.out.Clear()
	c.out.Lock()
	if err := c.track.Rewind(); err != nil {
		c.logger.Warn(context.Background(), "rewind failed", logger.Error(err))
	}
	c.out.Unlock()
	c.ctrl = nil
	c.meter = nil
	c.state = Stopped
}

func (c *Controller) startClock(ctx context.Context) {
	if err := c.clock.Start(c.tempo.Interval()); err != nil {
		c.logger.Error(ctx, "beat clock failed to start", logger.Error(err))
	}
}

func (c *Controller) gain(s beep.Streamer) beep.Streamer {
	if c.volume >= 1 {
		return s
	}
	if c.volume == 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(c.volume), Silent: false}
}

// beat runs under the clock lock.
func (c *Controller) beat() {
	if l := c.listener.Load(); l != nil {
		l.OnBeat()
	}
}

// finish runs off the audio thread once the track drains.
func (c *Controller) finish(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.state == Stopped {
		c.mu.Unlock()
		return
	}
	err := c.track.Err()
	success := err == nil
	c.halt()
	c.mu.Unlock()

	ctx := context.Background()
	metrics.RecordPlaybackFinished(success)
	if success {
		c.logger.Info(ctx, "playback finished", logger.String("track", c.track.Name()))
	} else {
		c.logger.Warn(ctx, "playback finished with decoder error", logger.Error(err))
	}
	if l := c.listener.Load(); l != nil {
		l.OnFinished(gen, success)
	}
}
