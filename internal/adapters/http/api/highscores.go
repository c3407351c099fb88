package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/notebeat/internal/adapters/repository"
)

type highscoreResponse struct {
	Rank       int       `json:"rank"`
	Player     string    `json:"player"`
	Score      int       `json:"score"`
	Games      int       `json:"games"`
	AchievedAt time.Time `json:"achieved_at"`
}

func toHighscore(e repository.Entry) highscoreResponse {
	return highscoreResponse{
		Rank:       e.Rank,
		Player:     e.Player,
		Score:      e.Score,
		Games:      e.Games,
		AchievedAt: e.AchievedAt.UTC(),
	}
}

// HighscoresHandler handles high score requests.
type HighscoresHandler struct {
	store    HighscoreReader
	maxLimit int
}

// NewHighscoresHandler creates a new high score handler.
func NewHighscoresHandler(store HighscoreReader, maxLimit int) *HighscoresHandler {
	if maxLimit <= 0 {
		maxLimit = defaultMaxLimit
	}
	return &HighscoresHandler{store: store, maxLimit: maxLimit}
}

// HandleTop handles GET /highscores?limit=N requests. limit defaults to 10.
func (h *HighscoresHandler) HandleTop(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_highscores"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n := defaultTopLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		n = v
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}
	entries, err := h.store.TopN(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	out := make([]highscoreResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toHighscore(e))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleRank handles GET /highscores/{player} requests.
func (h *HighscoresHandler) HandleRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_highscore_rank"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	player, err := url.PathUnescape(strings.TrimPrefix(r.URL.EscapedPath(), "/highscores/"))
	if err != nil || player == "" || strings.Contains(player, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	entry, err := h.store.Rank(r.Context(), player)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, repository.ErrInvalidPlayer):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	default:
		writeJSON(w, http.StatusOK, toHighscore(entry))
	}
}
