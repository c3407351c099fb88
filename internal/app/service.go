// Package service wires the game: assets, playback, session and the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/okian/notebeat/internal/adapters/asset"
	"github.com/okian/notebeat/internal/adapters/audio"
	"github.com/okian/notebeat/internal/adapters/http/api"
	"github.com/okian/notebeat/internal/adapters/http/swagger"
	"github.com/okian/notebeat/internal/adapters/repository"
	"github.com/okian/notebeat/internal/adapters/scene"
	"github.com/okian/notebeat/internal/beatclock"
	"github.com/okian/notebeat/internal/config"
	"github.com/okian/notebeat/internal/domain/palette"
	"github.com/okian/notebeat/internal/domain/scoring"
	"github.com/okian/notebeat/internal/domain/spawner"
	"github.com/okian/notebeat/internal/domain/tempo"
	"github.com/okian/notebeat/internal/session"
	"github.com/okian/notebeat/pkg/logger"
	"github.com/okian/notebeat/pkg/metrics"
)

// Sentinel errors for service startup.
var (
	ErrAssets  = errors.New("load assets")
	ErrStarted = errors.New("service already started")
)

// closer is an Output that owns a device or goroutine.
type closer interface {
	Close()
}

// Service owns every game component for one process.
type Service struct {
	mu sync.RWMutex

	cfg         *config.Config
	output      audio.Output
	clockOpts   []beatclock.Option
	spawnerOpts []spawner.Option

	track      *audio.Track
	model      asset.Model
	palette    palette.Palette
	scorer     *scoring.Scorer
	registry   *scene.Registry
	highscores *repository.TreapStore
	machine    *session.Machine
	session    *session.Session
	controller *audio.Controller
	ownsOutput bool

	// State
	started   bool
	startedAt time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithOutput replaces the configured audio output.
func WithOutput(out audio.Output) Option {
	return func(s *Service) {
		s.output = out
	}
}

// WithClockOptions passes options to the beat clock.
func WithClockOptions(opts ...beatclock.Option) Option {
	return func(s *Service) {
		s.clockOpts = append(s.clockOpts, opts...)
	}
}

// WithSpawnerOptions passes options to the spawner.
func WithSpawnerOptions(opts ...spawner.Option) Option {
	return func(s *Service) {
		s.spawnerOpts = append(s.spawnerOpts, opts...)
	}
}

// New constructs a Service from cfg. Nothing is loaded until Start.
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.New()
	}
	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads assets, builds the game and moves the session to the menu.
// Track, model and palette failures are fatal.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrStarted
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	cfg := s.cfg
	s.logger.Info(ctx, "starting notebeat service...")

	if err := s.loadAssets(ctx); err != nil {
		return err
	}

	t, err := tempo.New(cfg.BPM, cfg.Subdivision)
	if err != nil {
		s.closeTrack()
		return fmt.Errorf("%w: %w", ErrAssets, err)
	}

	spawnOpts := []spawner.Option{spawner.WithBounds(spawner.Bounds{
		Horizontal: cfg.SpawnHorizontal,
		Vertical:   cfg.SpawnVertical,
		DepthMin:   cfg.SpawnDepthMin,
		DepthMax:   cfg.SpawnDepthMax,
	})}
	if !s.model.HasMaterial {
		spawnOpts = append(spawnOpts, spawner.WithoutColor())
	}
	spawnOpts = append(spawnOpts, s.spawnerOpts...)

	s.scorer = scoring.NewScorer(s.palette, scoring.WithFallback(cfg.FallbackScore))
	s.registry = scene.NewRegistry(scene.WithShape(s.model.Shape))
	s.highscores = repository.NewTreapStore()

	if s.output == nil {
		out, err := s.openOutput()
		if err != nil {
			s.closeTrack()
			return err
		}
		s.output = out
		s.ownsOutput = true
	}

	s.controller = audio.NewController(s.track, t, s.output,
		audio.WithVolume(cfg.Volume),
		audio.WithClockOptions(s.clockOpts...),
		audio.WithLogger(s.logger.Named("audio")),
	)
	s.machine = session.NewMachine(s.controller, s.registry, spawner.New(s.palette, spawnOpts...), s.scorer,
		session.WithRecorder(s.highscores),
		session.WithMachineLogger(s.logger.Named("session")),
	)
	s.session = session.New(s.machine,
		session.WithQueueSize(cfg.QueueSize),
		session.WithDedupeSize(cfg.DedupeSize),
		session.WithLogger(s.logger.Named("session")),
	)
	s.controller.SetListener(s.session)
	s.session.Open(context.WithoutCancel(ctx))

	if _, err := s.session.Load(ctx); err != nil {
		_ = s.teardown(context.WithoutCancel(ctx))
		return fmt.Errorf("load session: %w", err)
	}
	metrics.UpdateQueueCapacity(cfg.QueueSize)

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "notebeat service started",
		logger.String("track", s.track.Name()),
		logger.Duration("duration", s.track.Duration()),
		logger.String("tempo", t.String()),
		logger.Duration("interval", t.Interval()),
		logger.String("shape", string(s.model.Shape)),
		logger.Bool("colored", s.model.HasMaterial),
	)
	return nil
}

func (s *Service) loadAssets(ctx context.Context) error {
	cfg := s.cfg
	p, err := palette.FromHex(cfg.Palette)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAssets, err)
	}
	s.palette = p

	model, err := asset.LoadModel(cfg.ModelPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAssets, err)
	}
	if model.Degraded() {
		s.logger.Warn(ctx, "note model not found, using spheres", logger.String("path", cfg.ModelPath))
	}
	s.model = model

	track, err := audio.Load(cfg.TrackPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAssets, err)
	}
	s.track = track
	return nil
}

func (s *Service) openOutput() (audio.Output, error) {
	sr := s.track.Format().SampleRate
	buffer := time.Duration(s.cfg.AudioBufferMS) * time.Millisecond
	if s.cfg.AudioOutput == config.OutputNull {
		return audio.NewNullOutput(sr, buffer), nil
	}
	out, err := audio.NewSpeakerOutput(sr, buffer)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// teardown releases everything Start built.
func (s *Service) teardown(ctx context.Context) error {
	err := s.session.Close(ctx)
	s.controller.Stop()
	if c, ok := s.output.(closer); ok {
		c.Close()
	}
	if s.ownsOutput {
		s.output = nil
		s.ownsOutput = false
	}
	s.closeTrack()
	s.session = nil
	s.machine = nil
	s.controller = nil
	return err
}

func (s *Service) closeTrack() {
	if s.track != nil {
		_ = s.track.Close()
	}
}

// Stop ends any game and releases playback resources.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping notebeat service...")

	err := s.teardown(ctx)
	s.started = false
	s.logger.Info(ctx, "notebeat service stopped")
	return err
}

// Handler returns the HTTP API, including docs.
func (s *Service) Handler() http.Handler {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mux := http.NewServeMux()
	srv := api.NewServer(api.Dependencies{
		Session:    s.session,
		Scene:      s.registry,
		Highscores: s.highscores,
		Scorer:     s.scorer,
		Stats:      s,
	},
		api.WithFadeIn(time.Duration(s.cfg.FadeInMS)*time.Millisecond),
		api.WithMaxLimit(s.cfg.MaxHighscoreLimit),
	)
	srv.Register(mux)
	swagger.Register(mux)
	return mux
}

// Session returns the running session.
func (s *Service) Session() *session.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Registry returns the live notes.
func (s *Service) Registry() *scene.Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry
}

// Controller returns the playback controller.
func (s *Service) Controller() *audio.Controller {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.controller
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":    s.started,
		"queueSize":  s.cfg.QueueSize,
		"dedupeSize": s.cfg.DedupeSize,
		"bpm":        s.cfg.BPM,
	}
	if !s.started {
		return stats
	}

	ctx := context.Background()
	stats["uptimeSeconds"] = time.Since(s.startedAt).Seconds()
	stats["track"] = s.track.Name()
	stats["trackSeconds"] = s.track.Duration().Seconds()
	stats["beatInterval"] = s.controller.Tempo().Interval().String()
	stats["playback"] = s.controller.State().String()
	stats["shape"] = string(s.model.Shape)
	stats["liveObjects"] = s.registry.Len()
	stats["players"] = s.highscores.Count(ctx)
	stats["palette"] = s.palette.Hex()
	return stats
}
