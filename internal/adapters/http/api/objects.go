package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/okian/notebeat/internal/adapters/scene"
	"github.com/okian/notebeat/internal/domain/placement"
)

type objectResponse struct {
	ID        string      `json:"id"`
	Shape     string      `json:"shape"`
	Color     *string     `json:"color"`
	Points    int         `json:"points"`
	Position  [3]float64  `json:"position"`
	Transform [16]float64 `json:"transform"`
	Opacity   float64     `json:"opacity"`
	SpawnedAt time.Time   `json:"spawned_at"`
}

type objectsResponse struct {
	Objects []objectResponse `json:"objects"`
}

type poseRequest struct {
	Matrix []float64 `json:"matrix"`
}

// ObjectsHandler serves live notes and accepts viewer poses.
type ObjectsHandler struct {
	scene  SceneReader
	scorer Valuer
	svc    SessionService
	fadeIn time.Duration
	now    func() time.Time
}

// NewObjectsHandler creates a new objects handler.
func NewObjectsHandler(sc SceneReader, v Valuer, svc SessionService, fadeIn time.Duration, now func() time.Time) *ObjectsHandler {
	if now == nil {
		now = time.Now
	}
	return &ObjectsHandler{scene: sc, scorer: v, svc: svc, fadeIn: fadeIn, now: now}
}

// HandleList handles GET /objects requests.
func (h *ObjectsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	now := h.now()
	objs := h.scene.List()
	out := objectsResponse{Objects: make([]objectResponse, 0, len(objs))}
	for _, o := range objs {
		out.Objects = append(out.Objects, h.toResponse(o, now))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandlePose handles PUT /pose (set) and DELETE /pose (clear) requests.
// The matrix is 16 column-major values.
func (h *ObjectsHandler) HandlePose(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_pose"
	switch r.Method {
	case http.MethodPut:
		var req poseRequest
		if err := decodeBody(r, &req, false); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		pose, ok := placement.FromSlice(req.Matrix)
		if !ok {
			writeError(w, http.StatusBadRequest, "bad_request",
				WrapKind(op, ErrBadRequest, errors.New("matrix must have 16 values")))
			return
		}
		if err := h.svc.SetPose(r.Context(), &pose); err != nil {
			writeSessionError(w, op, err)
			return
		}
	case http.MethodDelete:
		if err := h.svc.SetPose(r.Context(), nil); err != nil {
			writeSessionError(w, op, err)
			return
		}
	default:
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ObjectsHandler) toResponse(o scene.Object, now time.Time) objectResponse {
	out := objectResponse{
		ID:        o.ID,
		Shape:     string(o.Shape),
		Position:  [3]float64(o.Position),
		Transform: [16]float64(o.Transform),
		Opacity:   opacity(now.Sub(o.SpawnedAt), h.fadeIn),
		SpawnedAt: o.SpawnedAt.UTC(),
	}
	if h.scorer != nil {
		out.Points = h.scorer.Score(o.Color)
	}
	if o.Color != nil {
		hex := o.Color.Hex()
		out.Color = &hex
	}
	return out
}

// opacity ramps linearly from 0 to 1 over fadeIn.
func opacity(age, fadeIn time.Duration) float64 {
	if fadeIn <= 0 || age >= fadeIn {
		return 1
	}
	if age <= 0 {
		return 0
	}
	return float64(age) / float64(fadeIn)
}
