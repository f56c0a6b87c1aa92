package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/noble-ngs/tutor-runtime/internal/tutorerr"
	"github.com/noble-ngs/tutor-runtime/internal/turnrunner"
	"github.com/noble-ngs/tutor-runtime/pkg/tutor"
)

// chatRequest is the shared request body for both /chat and /chat/stream.
type chatRequest struct {
	SessionID  string             `json:"session_id,omitempty"`
	Message    string             `json:"message"`
	Profile    *tutor.UserProfile `json:"profile,omitempty"`
	ForceAgent string             `json:"force_agent,omitempty"`
}

// chatResponse is the unary reply. The debug-only fields are only
// populated when the server runs with Debug set (spec §6).
type chatResponse struct {
	SessionID  string          `json:"session_id"`
	Response   string          `json:"response"`
	AgentName  tutor.AgentName `json:"agent_name"`
	AgentLabel string          `json:"agent_label"`
	AgentEmoji string          `json:"agent_emoji"`
	AgentColor string          `json:"agent_color"`
	Terminal   bool            `json:"terminal"`

	RouteReason     string            `json:"route_reason,omitempty"`
	RouteConfidence float64           `json:"route_confidence,omitempty"`
	RuntimeMode     tutor.RouteSource `json:"runtime_mode,omitempty"`
	Payload         *tutor.Question   `json:"payload,omitempty"`
}

func decodeChatRequest(r *http.Request) (chatRequest, error) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return chatRequest{}, fmt.Errorf("malformed request body: %w", err)
	}
	if req.Message == "" {
		return chatRequest{}, errors.New("message is required")
	}
	return req, nil
}

func (s *Server) toRunnerRequest(req chatRequest) turnrunner.Request {
	return turnrunner.Request{
		SessionID:  req.SessionID,
		Message:    req.Message,
		Profile:    req.Profile,
		ForceAgent: req.ForceAgent,
	}
}

// toChatResponse builds the unary response, stripping routing/grading
// diagnostics outside debug mode.
func (s *Server) toChatResponse(result turnrunner.Result) chatResponse {
	resp := chatResponse{
		SessionID:  result.SessionID,
		Response:   result.Response,
		AgentName:  result.AgentName,
		AgentLabel: result.Persona.Label,
		AgentEmoji: result.Persona.Emoji,
		AgentColor: result.Persona.Color,
		Terminal:   result.Terminal,
	}
	if s.debug {
		resp.RouteReason = result.RouteReason
		resp.RouteConfidence = result.RouteConfidence
		resp.RuntimeMode = result.RouteSource
		resp.Payload = result.Question
	}
	return resp
}

// handleChat serves POST /api/v1/chat: a single request/response turn.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, err := decodeChatRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), s.debug)
		return
	}

	result, err := s.runner.Run(r.Context(), s.toRunnerRequest(req))
	if err != nil {
		s.writeRunnerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.toChatResponse(result))
}

// writeRunnerError maps a turnrunner error to an HTTP status. Turn
// failures that the runner itself already recovers from (provider
// unavailable, tool loop exceeded) never reach here — Run returns a
// nil error and an apology Result for those. Only session contention
// and context cancellation surface as errors.
func (s *Server) writeRunnerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tutorerr.ErrSessionBusy):
		writeError(w, http.StatusConflict, "session busy, try again shortly", s.debug)
	default:
		s.logger.Error("httpapi: chat turn failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error(), s.debug)
	}
}
