// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/okian/notebeat/internal/adapters/repository"
	"github.com/okian/notebeat/internal/adapters/scene"
	"github.com/okian/notebeat/internal/domain/palette"
	"github.com/okian/notebeat/internal/session"
)

// Default handler configuration constants.
const (
	defaultFadeIn       = 250 * time.Millisecond
	defaultMaxLimit     = 100
	defaultTopLimit     = 10
	maxRequestBodyBytes = 1 << 16
)

// SessionService drives the game.
type SessionService interface {
	Start(ctx context.Context, player string) (session.Result, error)
	Stop(ctx context.Context) (session.Result, error)
	Toggle(ctx context.Context) (session.Result, error)
	Acknowledge(ctx context.Context) (session.Result, error)
	View(ctx context.Context) (session.View, error)
	SetPose(ctx context.Context, pose *mgl64.Mat4) error
	Hit(ctx context.Context, objectID, tapID string) (session.HitResult, error)
}

// SceneReader lists live notes.
type SceneReader interface {
	List() []scene.Object
}

// HighscoreReader exposes the best-score table.
type HighscoreReader interface {
	TopN(ctx context.Context, n int) ([]repository.Entry, error)
	Rank(ctx context.Context, player string) (repository.Entry, error)
}

// Valuer prices a note color.
type Valuer interface {
	Score(color *palette.Color) int
}

// Dependencies required by HTTP handlers.
type Dependencies struct {
	Session    SessionService
	Scene      SceneReader
	Highscores HighscoreReader
	Scorer     Valuer
	Stats      StatsProvider
}

// Option applies a configuration option to the Server.
type Option func(*options)

type options struct {
	fadeIn   time.Duration
	maxLimit int
	now      func() time.Time
}

// WithFadeIn sets how long a new note takes to become opaque.
func WithFadeIn(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.fadeIn = d
		}
	}
}

// WithMaxLimit caps GET /highscores?limit.
func WithMaxLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxLimit = n
		}
	}
}

// WithNow replaces the clock used for opacity.
func WithNow(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Server wires HTTP routes for the game API.
type Server struct {
	metricsHandler      *MetricsHandler
	statsHandler        *StatsHandler
	sessionHandler      *SessionHandler
	objectsHandler      *ObjectsHandler
	hitsHandler         *HitsHandler
	highscoresHandler   *HighscoresHandler
	instructionsHandler *InstructionsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	o := options{fadeIn: defaultFadeIn, maxLimit: defaultMaxLimit, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		metricsHandler:      NewMetricsHandler(),
		statsHandler:        NewStatsHandler(deps.Stats),
		sessionHandler:      NewSessionHandler(deps.Session),
		objectsHandler:      NewObjectsHandler(deps.Scene, deps.Scorer, deps.Session, o.fadeIn, o.now),
		hitsHandler:         NewHitsHandler(deps.Session),
		highscoresHandler:   NewHighscoresHandler(deps.Highscores, o.maxLimit),
		instructionsHandler: NewInstructionsHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/metrics", s.metricsHandler.HandleMetrics)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.metricsHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/instructions", MetricsMiddleware(s.instructionsHandler.HandleInstructions, "instructions"))

	mux.HandleFunc("/session", MetricsMiddleware(s.sessionHandler.HandleGet, "session"))
	mux.HandleFunc("/session/start", MetricsMiddleware(s.sessionHandler.HandleStart, "session_start"))
	mux.HandleFunc("/session/stop", MetricsMiddleware(s.sessionHandler.HandleStop, "session_stop"))
	mux.HandleFunc("/session/toggle", MetricsMiddleware(s.sessionHandler.HandleToggle, "session_toggle"))
	mux.HandleFunc("/session/acknowledge", MetricsMiddleware(s.sessionHandler.HandleAcknowledge, "session_acknowledge"))

	mux.HandleFunc("/pose", MetricsMiddleware(s.objectsHandler.HandlePose, "pose"))
	mux.HandleFunc("/objects", MetricsMiddleware(s.objectsHandler.HandleList, "objects"))
	mux.HandleFunc("/hits", MetricsMiddleware(s.hitsHandler.HandlePostHit, "hits"))

	mux.HandleFunc("/highscores", MetricsMiddleware(s.highscoresHandler.HandleTop, "highscores"))
	mux.HandleFunc("/highscores/", MetricsMiddleware(s.highscoresHandler.HandleRank, "highscore_rank"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeSessionError maps session failures to status codes.
func writeSessionError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, session.ErrBusy):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, session.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "timeout", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

// decodeBody decodes a JSON body into v. An empty body leaves v untouched
// when optional is set.
func decodeBody(r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}
