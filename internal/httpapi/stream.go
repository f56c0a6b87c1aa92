package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/noble-ngs/tutor-runtime/internal/turnrunner"
)

// sseEventPayload is the JSON body of each server-sent event; Type is
// also sent as the SSE "event:" line so non-JSON clients can dispatch
// on it without parsing data.
type sseEventPayload struct {
	SessionID  string `json:"session_id,omitempty"`
	AgentName  string `json:"agent_name,omitempty"`
	AgentLabel string `json:"agent_label,omitempty"`
	AgentEmoji string `json:"agent_emoji,omitempty"`
	AgentColor string `json:"agent_color,omitempty"`
	Text       string `json:"text,omitempty"`
}

// handleChatStream serves POST /api/v1/chat/stream: an SSE stream of
// meta, token, done (or error) events (spec §6).
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, err := decodeChatRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), s.debug)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported", s.debug)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events := s.runner.RunStream(r.Context(), s.toRunnerRequest(req))
	for ev := range events {
		writeSSEEvent(w, ev)
		flusher.Flush()
	}
}

func writeSSEEvent(w http.ResponseWriter, ev turnrunner.Event) {
	payload := sseEventPayload{SessionID: ev.SessionID, Text: ev.Text}
	if ev.AgentName != "" {
		payload.AgentName = string(ev.AgentName)
		payload.AgentLabel = ev.Persona.Label
		payload.AgentEmoji = ev.Persona.Emoji
		payload.AgentColor = ev.Persona.Color
	}
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte(`{}`)
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
}
