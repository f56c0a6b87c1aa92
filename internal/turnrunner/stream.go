package turnrunner

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/noble-ngs/tutor-runtime/internal/agents"
	"github.com/noble-ngs/tutor-runtime/internal/tutorerr"
	"github.com/noble-ngs/tutor-runtime/pkg/tutor"
)

// EventType distinguishes the four SSE event kinds the streaming
// endpoint emits (spec §6).
type EventType string

const (
	EventMeta  EventType = "meta"
	EventToken EventType = "token"
	EventDone  EventType = "done"
	EventError EventType = "error"
)

// Event is one server-sent event. Only the field relevant to Type is
// populated.
type Event struct {
	Type      EventType
	SessionID string
	AgentName tutor.AgentName
	Persona   tutor.Persona
	Text      string
}

// RunStream executes one turn through the same pipeline as Run, emitting
// events on the returned channel: one meta event, a token event per
// streamed fragment, then a single done (or error followed by done).
// The channel is always closed before RunStream's goroutine exits.
//
// If ctx is canceled mid-stream the partial assistant message is
// discarded and never committed to SessionMemory (spec §5
// cancellation); already-emitted token events are not retracted.
func (r *Runner) RunStream(ctx context.Context, req Request) <-chan Event {
	events := make(chan Event, 8)
	go r.runStream(ctx, req, events)
	return events
}

func (r *Runner) runStream(ctx context.Context, req Request, events chan<- Event) {
	defer close(events)

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	release, ok := r.locks.acquire(ctx, sessionID, r.perSessionLockWait)
	if !ok {
		events <- Event{Type: EventError, SessionID: sessionID, Text: "session busy, try again shortly"}
		events <- Event{Type: EventDone, SessionID: sessionID}
		return
	}
	defer release()

	turnCtx, cancel := context.WithTimeout(ctx, r.turnDeadline)
	defer cancel()

	history, summary := r.memory.Load(sessionID)
	userMsg := tutor.Message{Role: tutor.RoleUser, Content: req.Message, Timestamp: time.Now()}
	state := &tutor.TurnState{
		SessionID:   sessionID,
		History:     history,
		UserMessage: userMsg,
		Profile:     req.Profile,
		Scratch:     map[string]any{},
		Response:    map[string]any{},
	}

	teachPersona := agents.Registry[tutor.AgentTeach].Persona

	if reply, matched := agents.FixedHandler(state, agents.LastTaughtConcept(history)); matched {
		events <- Event{Type: EventMeta, SessionID: sessionID, AgentName: tutor.AgentTeach, Persona: teachPersona}
		events <- Event{Type: EventToken, SessionID: sessionID, Text: reply.Text}
		r.persistTurn(ctx, sessionID, userMsg, reply.Text, nil)
		events <- Event{Type: EventDone, SessionID: sessionID}
		return
	}

	route, err := r.supervisor.Route(turnCtx, req.Message, history, req.ForceAgent)
	if err != nil {
		route = tutor.RouteDecision{Target: tutor.AgentTeach, Reason: "routing error fallback", Confidence: 0, Source: tutor.RouteSourceDefault}
	}

	if route.Target == tutor.AgentFinish {
		closing := "Glad I could help today! Come back any time you want to keep practicing."
		events <- Event{Type: EventMeta, SessionID: sessionID, AgentName: tutor.AgentTeach, Persona: teachPersona}
		events <- Event{Type: EventToken, SessionID: sessionID, Text: closing}
		r.persistTurn(ctx, sessionID, userMsg, closing, nil)
		events <- Event{Type: EventDone, SessionID: sessionID}
		return
	}

	if pending, hintStage, ok := pendingQuestionFrom(history); ok &&
		route.Source != tutor.RouteSourceRule && route.Source != tutor.RouteSourceSlash {
		gradingAgent := route.Target
		if gradingAgent != tutor.AgentPractice && gradingAgent != tutor.AgentChallenge {
			gradingAgent = tutor.AgentPractice
		}
		reply, meta := gradeAnswer(pending, hintStage, req.Message)
		persona := agents.Registry[gradingAgent].Persona
		events <- Event{Type: EventMeta, SessionID: sessionID, AgentName: gradingAgent, Persona: persona}
		events <- Event{Type: EventToken, SessionID: sessionID, Text: reply}
		r.persistTurn(ctx, sessionID, userMsg, reply, meta)
		events <- Event{Type: EventDone, SessionID: sessionID}
		return
	}

	cfg, ok := agents.Registry[route.Target]
	if !ok {
		cfg = agents.Registry[tutor.AgentTeach]
	}

	events <- Event{Type: EventMeta, SessionID: sessionID, AgentName: cfg.Name, Persona: cfg.Persona}

	onToken := func(text string) {
		select {
		case events <- Event{Type: EventToken, SessionID: sessionID, Text: text}:
		case <-ctx.Done():
		}
	}

	result, runErr := r.runAgent(turnCtx, cfg, summary, history, req.Message, onToken)

	if ctx.Err() != nil {
		// Client disconnected: discard partial output, no memory write.
		return
	}

	if turnCtx.Err() != nil {
		events <- Event{Type: EventError, SessionID: sessionID, Text: fallbackReplyText}
		events <- Event{Type: EventDone, SessionID: sessionID}
		return
	}

	replyText := result.text
	meta := map[string]any{}

	// ProviderUnavailable and other unclassified agent errors are recovered
	// locally (spec §7): an error event is emitted so the client can
	// surface it, and the apology is still persisted as the assistant's
	// turn rather than left unrecorded. ToolLoopExceeded appends its
	// apology as extra streamed text rather than replacing what already
	// streamed via onToken.
	switch {
	case runErr == nil:
	case tutorerr.KindOf(runErr) == tutorerr.KindToolLoopExceeded:
		suffix := " Sorry, let's try that again in a moment."
		if replyText == "" {
			replyText = "I wasn't able to finish that thought."
			events <- Event{Type: EventToken, SessionID: sessionID, Text: replyText + suffix}
		} else {
			events <- Event{Type: EventToken, SessionID: sessionID, Text: suffix}
		}
		replyText += suffix
	default:
		replyText = fallbackReplyText
		events <- Event{Type: EventError, SessionID: sessionID, Text: replyText}
	}

	if cfg.Name == tutor.AgentTeach {
		if concept, ok := agents.ResolveConcept(req.Message); ok {
			meta[agents.MetaConcept] = concept
		}
	}
	if result.question != nil {
		meta[agents.MetaPendingQuestion] = result.question
		meta[agents.MetaHintStage] = 0
	}
	if len(meta) == 0 {
		meta = nil
	}

	r.persistTurn(ctx, sessionID, userMsg, replyText, meta)
	events <- Event{Type: EventDone, SessionID: sessionID}
}
