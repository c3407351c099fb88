package api

import (
	"errors"
	"net/http"
	"strings"
)

type hitRequest struct {
	ObjectID string `json:"object_id"`
	TapID    string `json:"tap_id"`
}

type hitResponse struct {
	Applied   bool       `json:"applied"`
	ObjectID  string     `json:"object_id"`
	Delta     int        `json:"delta"`
	Score     int        `json:"score"`
	Position  [3]float64 `json:"position"`
	Duplicate bool       `json:"duplicate"`
}

// HitsHandler handles tap requests.
type HitsHandler struct {
	svc SessionService
}

// NewHitsHandler creates a new hits handler.
func NewHitsHandler(svc SessionService) *HitsHandler {
	return &HitsHandler{svc: svc}
}

// HandlePostHit handles POST /hits requests. Taps on unknown notes answer
// 200 with applied false.
func (h *HitsHandler) HandlePostHit(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_hit"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req hitRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	objectID := strings.TrimSpace(req.ObjectID)
	if objectID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing object_id")))
		return
	}
	res, err := h.svc.Hit(r.Context(), objectID, strings.TrimSpace(req.TapID))
	if err != nil {
		writeSessionError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, hitResponse{
		Applied:   res.Applied,
		ObjectID:  res.ObjectID,
		Delta:     res.Delta,
		Score:     res.Score,
		Position:  [3]float64(res.Position),
		Duplicate: res.Duplicate,
	})
}
