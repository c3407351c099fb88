package api

import "net/http"

// Instructions is shown from the menu.
const Instructions = "The music notes appear in the rhythm, try to explode all of them by " +
	"tapping on them! Each color has its own value in points. Good luck!"

type instructionsResponse struct {
	Instructions string `json:"instructions"`
}

// InstructionsHandler serves the game instructions.
type InstructionsHandler struct{}

// NewInstructionsHandler creates a new instructions handler.
func NewInstructionsHandler() *InstructionsHandler { return &InstructionsHandler{} }

// HandleInstructions handles GET /instructions requests.
func (h *InstructionsHandler) HandleInstructions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, instructionsResponse{Instructions: Instructions})
}
