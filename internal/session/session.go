package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/okian/notebeat/internal/adapters/mq/queue"
	"github.com/okian/notebeat/internal/adapters/mq/worker"
	"github.com/okian/notebeat/internal/domain/dedupe"
	"github.com/okian/notebeat/pkg/logger"
	"github.com/okian/notebeat/pkg/metrics"
)

// Default session configuration constants.
const (
	defaultQueueSize  = 256
	defaultDedupeSize = 4096
	closeTimeout      = 5 * time.Second
)

type kind int

const (
	kindLoad kind = iota
	kindStart
	kindStop
	kindToggle
	kindAcknowledge
	kindHit
	kindPose
	kindView
	kindBeat
	kindFinished
)

// message is one command or playback event for the owner goroutine.
type message struct {
	kind     kind
	run      uint64
	playback uint64
	success  bool
	player   string
	objectID string
	tapID    string
	pose     *mgl64.Mat4
	reply    chan reply
}

type reply struct {
	applied bool
	hit     HitResult
	view    View
}

// Result is the answer to a state command.
type Result struct {
	Applied bool
	View    View
}

// Option applies a configuration option to the Session.
type Option func(*Session)

// WithQueueSize bounds the command and event queue.
func WithQueueSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithDedupeSize bounds the number of remembered tap ids.
func WithDedupeSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.dedupeSize = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// Session runs a Machine on one owner goroutine. Its methods are safe for
// concurrent use. It implements the playback listener.
type Session struct {
	machine    *Machine
	queue      *queue.InMemoryQueue[message]
	worker     *worker.Worker[message]
	taps       dedupe.Deduper[HitResult]
	queueSize  int
	dedupeSize int
	logger     logger.Logger

	open   sync.Once
	ctx    context.Context
	cancel context.CancelFunc
}

// New wraps m. Call Open to start processing.
func New(m *Machine, opts ...Option) *Session {
	s := &Session{
		machine:    m,
		queueSize:  defaultQueueSize,
		dedupeSize: defaultDedupeSize,
		logger:     logger.Get().Named("session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.queue = queue.NewInMemoryQueue[message](queue.WithCapacity(s.queueSize))
	s.taps = dedupe.NewInMemoryDeduper[HitResult](dedupe.WithMaxSize(s.dedupeSize))
	s.worker = worker.New[message](s.queue, s.handle, worker.WithName("session"), worker.WithLogger(s.logger))
	return s
}

// Open starts the owner goroutine. It runs until ctx ends or Close. Later
// calls are no-ops.
func (s *Session) Open(ctx context.Context) {
	s.open.Do(func() {
		s.ctx, s.cancel = context.WithCancel(ctx)
		go s.worker.Run(s.ctx)
	})
}

// Close stops any running game, then the owner goroutine.
func (s *Session) Close(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	if _, err := s.Stop(ctx); err != nil && ctx.Err() == nil {
		s.logger.Warn(ctx, "stop on close failed", logger.Error(err))
	}
	sctx, cancel := context.WithTimeout(ctx, closeTimeout)
	defer cancel()
	err := s.worker.Shutdown(sctx)
	s.cancel()
	_ = s.queue.Close()
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}

// Load moves the session to the menu.
func (s *Session) Load(ctx context.Context) (Result, error) {
	return s.command(ctx, message{kind: kindLoad})
}

// Start begins a game for player.
func (s *Session) Start(ctx context.Context, player string) (Result, error) {
	return s.command(ctx, message{kind: kindStart, player: player})
}

// Stop ends the running game.
func (s *Session) Stop(ctx context.Context) (Result, error) {
	return s.command(ctx, message{kind: kindStop})
}

// Toggle pauses or resumes the running game.
func (s *Session) Toggle(ctx context.Context) (Result, error) {
	return s.command(ctx, message{kind: kindToggle})
}

// Acknowledge returns from the end screen.
func (s *Session) Acknowledge(ctx context.Context) (Result, error) {
	return s.command(ctx, message{kind: kindAcknowledge})
}

// View returns a consistent snapshot.
func (s *Session) View(ctx context.Context) (View, error) {
	r, err := s.command(ctx, message{kind: kindView})
	return r.View, err
}

// SetPose updates the viewer transform. A nil pose clears it.
func (s *Session) SetPose(ctx context.Context, pose *mgl64.Mat4) error {
	_, err := s.command(ctx, message{kind: kindPose, pose: pose})
	return err
}

// Hit taps objectID. A non-empty tapID makes retries idempotent: the first
// result is returned again with Duplicate set.
func (s *Session) Hit(ctx context.Context, objectID, tapID string) (HitResult, error) {
	rep, err := s.send(ctx, message{kind: kindHit, objectID: objectID, tapID: tapID})
	return rep.hit, err
}

// OnBeat implements the playback listener. It never blocks.
func (s *Session) OnBeat() {
	ctx := s.ctx
	if ctx == nil {
		return
	}
	if !s.queue.Enqueue(ctx, message{kind: kindBeat, run: s.machine.Run()}) {
		metrics.RecordBeatDropped()
	}
}

// OnFinished implements the playback listener. It waits for queue room.
func (s *Session) OnFinished(playback uint64, success bool) {
	ctx := s.ctx
	if ctx == nil {
		return
	}
	msg := message{kind: kindFinished, playback: playback, success: success}
	if err := s.queue.EnqueueWait(ctx, msg); err != nil {
		s.logger.Warn(ctx, "finished event lost", logger.Error(err))
	}
}

func (s *Session) command(ctx context.Context, msg message) (Result, error) {
	rep, err := s.send(ctx, msg)
	return Result{Applied: rep.applied, View: rep.view}, err
}

func (s *Session) send(ctx context.Context, msg message) (reply, error) {
	if s.ctx == nil || s.queue.IsClosed() {
		return reply{}, ErrClosed
	}
	msg.reply = make(chan reply, 1)
	if !s.queue.Enqueue(ctx, msg) {
		if s.queue.IsClosed() {
			return reply{}, ErrClosed
		}
		if ctx.Err() != nil {
			return reply{}, ctx.Err()
		}
		return reply{}, ErrBusy
	}
	select {
	case r := <-msg.reply:
		return r, nil
	case <-ctx.Done():
		return reply{}, ctx.Err()
	case <-s.worker.Done():
		return reply{}, ErrClosed
	}
}

// handle runs on the owner goroutine.
func (s *Session) handle(ctx context.Context, msg message) error {
	var rep reply
	m := s.machine

	switch msg.kind {
	case kindLoad:
		rep.applied = m.Load(ctx)
	case kindStart:
		if rep.applied = m.Start(ctx, msg.player); rep.applied {
			s.taps.Reset(ctx)
		}
	case kindStop:
		rep.applied = m.Stop(ctx)
	case kindToggle:
		rep.applied = m.Toggle(ctx)
	case kindAcknowledge:
		rep.applied = m.Acknowledge(ctx)
	case kindHit:
		rep.hit = s.hit(ctx, msg.objectID, msg.tapID)
		rep.applied = rep.hit.Applied
	case kindPose:
		if msg.pose == nil {
			m.ClearPose()
		} else {
			m.SetPose(*msg.pose)
		}
		rep.applied = true
	case kindView:
	case kindBeat:
		_, rep.applied = m.Beat(ctx, msg.run)
	case kindFinished:
		rep.applied = m.Finished(ctx, msg.playback, msg.success)
	default:
		return fmt.Errorf("unknown message kind %d", msg.kind)
	}

	if msg.reply != nil {
		rep.view = m.View()
		metrics.UpdateAudioLevel(rep.view.Level)
		msg.reply <- rep
	}
	return nil
}

func (s *Session) hit(ctx context.Context, objectID, tapID string) HitResult {
	if tapID != "" {
		if prev, ok := s.taps.Seen(ctx, tapID); ok {
			prev.Duplicate = true
			return prev
		}
	}
	res := s.machine.Hit(ctx, objectID)
	if tapID != "" {
		s.taps.Record(ctx, tapID, res)
	}
	return res
}
