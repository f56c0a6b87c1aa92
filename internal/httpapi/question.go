package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/noble-ngs/tutor-runtime/internal/orchestrator"
)

// generateRequest is the body for POST /api/v1/question/generate.
type generateRequest struct {
	Concept     string  `json:"concept"`
	Marks       int     `json:"marks"`
	Difficulty  float64 `json:"difficulty"`
	ForceSource string  `json:"force_source,omitempty"`
}

// handleGenerateQuestion serves POST /api/v1/question/generate, calling
// HybridOrchestrator.Generate directly rather than through an agent turn
// (spec §4.4), for callers that just want a question payload.
func (s *Server) handleGenerateQuestion(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body", s.debug)
		return
	}
	if req.Concept == "" {
		writeError(w, http.StatusBadRequest, "concept is required", s.debug)
		return
	}

	question, err := s.orchestrator.Generate(r.Context(), req.Concept, req.Marks, req.Difficulty, orchestrator.Source(req.ForceSource))
	if err != nil {
		s.logger.Error("httpapi: question generation failed", "error", err, "concept", req.Concept)
		writeError(w, http.StatusUnprocessableEntity, err.Error(), s.debug)
		return
	}

	writeJSON(w, http.StatusOK, question)
}
