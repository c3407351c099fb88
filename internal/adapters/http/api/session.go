package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/okian/notebeat/internal/session"
)

// sessionResponse is the read shape of a session snapshot.
type sessionResponse struct {
	State       string     `json:"state"`
	Score       int        `json:"score"`
	FinalScore  int        `json:"final_score"`
	Paused      bool       `json:"paused"`
	Message     string     `json:"message,omitempty"`
	Player      string     `json:"player"`
	LiveObjects int        `json:"live_objects"`
	AudioLevel  float64    `json:"audio_level_db"`
	Run         uint64     `json:"run"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
}

type commandResponse struct {
	Applied bool            `json:"applied"`
	Session sessionResponse `json:"session"`
}

type startRequest struct {
	Player string `json:"player"`
}

func toSessionResponse(v session.View) sessionResponse {
	out := sessionResponse{
		State:       v.State.String(),
		Score:       v.Score,
		FinalScore:  v.FinalScore,
		Paused:      v.Paused,
		Message:     v.Message,
		Player:      v.Player,
		LiveObjects: v.Live,
		AudioLevel:  v.Level,
		Run:         v.Run,
	}
	if !v.StartedAt.IsZero() {
		t := v.StartedAt.UTC()
		out.StartedAt = &t
	}
	return out
}

// SessionHandler handles game lifecycle requests.
type SessionHandler struct {
	svc SessionService
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(svc SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// HandleGet handles GET /session requests.
func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_session"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	v, err := h.svc.View(r.Context())
	if err != nil {
		writeSessionError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(v))
}

// HandleStart handles POST /session/start requests. The body is optional.
func (h *SessionHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	const op = "api.start_session"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req startRequest
	if err := decodeBody(r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.svc.Start(r.Context(), strings.TrimSpace(req.Player))
	h.reply(w, op, res, err)
}

// HandleStop handles POST /session/stop requests.
func (h *SessionHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	res, err := h.svc.Stop(r.Context())
	h.reply(w, "api.stop_session", res, err)
}

// HandleToggle handles POST /session/toggle requests.
func (h *SessionHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	res, err := h.svc.Toggle(r.Context())
	h.reply(w, "api.toggle_session", res, err)
}

// HandleAcknowledge handles POST /session/acknowledge requests.
func (h *SessionHandler) HandleAcknowledge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	res, err := h.svc.Acknowledge(r.Context())
	h.reply(w, "api.acknowledge_session", res, err)
}

// reply answers 200 whether or not the command applied.
func (h *SessionHandler) reply(w http.ResponseWriter, op string, res session.Result, err error) {
	if err != nil {
		writeSessionError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, commandResponse{Applied: res.Applied, Session: toSessionResponse(res.View)})
}
