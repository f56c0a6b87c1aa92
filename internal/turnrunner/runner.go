// Package turnrunner implements TurnRunner (spec §4.7): the per-turn
// control procedure tying together fixed handlers, Supervisor routing,
// deterministic answer grading, agent invocation, and SessionMemory
// persistence. It mirrors the teacher's internal/agent.AgenticLoop in
// spirit — a capped tool-calling loop around an LLM call — collapsed to
// this runtime's fixed five-agent roster instead of a generic tool graph.
package turnrunner

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/noble-ngs/tutor-runtime/internal/agents"
	"github.com/noble-ngs/tutor-runtime/internal/llmprovider"
	"github.com/noble-ngs/tutor-runtime/internal/sessionmemory"
	"github.com/noble-ngs/tutor-runtime/internal/supervisor"
	"github.com/noble-ngs/tutor-runtime/internal/tutorerr"
	"github.com/noble-ngs/tutor-runtime/pkg/tutor"
)

// fallbackReplyText is returned when a turn breaches its soft deadline
// (spec §5) and when the LLM provider is unavailable with no other
// deterministic fallback (spec §7 ProviderUnavailable).
const fallbackReplyText = "I'm having trouble thinking right now — could you try again?"

// Request is one inbound turn.
type Request struct {
	SessionID  string
	Message    string
	Profile    *tutor.UserProfile
	ForceAgent string
}

// Result is everything the HTTP layer needs; it decides what subset of
// the diagnostic fields to expose based on debug mode.
type Result struct {
	SessionID       string
	Response        string
	AgentName       tutor.AgentName
	Persona         tutor.Persona
	RouteReason     string
	RouteConfidence float64
	RouteSource     tutor.RouteSource
	Question        *tutor.Question
	Terminal        bool
}

// Runner is TurnRunner.
type Runner struct {
	supervisor *supervisor.Supervisor
	provider   llmprovider.Provider
	tools      agents.Tools
	memory     *sessionmemory.Store
	logger     *slog.Logger

	locks              *sessionLocks
	perSessionLockWait time.Duration
	turnDeadline       time.Duration
}

// New builds a Runner. perSessionLockWait and turnDeadline default to
// the spec's 30s/60s when zero.
func New(sup *supervisor.Supervisor, provider llmprovider.Provider, tools agents.Tools, memory *sessionmemory.Store, logger *slog.Logger, perSessionLockWait, turnDeadline time.Duration) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if perSessionLockWait <= 0 {
		perSessionLockWait = 30 * time.Second
	}
	if turnDeadline <= 0 {
		turnDeadline = 60 * time.Second
	}
	return &Runner{
		supervisor:         sup,
		provider:           provider,
		tools:              tools,
		memory:             memory,
		logger:             logger,
		locks:              newSessionLocks(),
		perSessionLockWait: perSessionLockWait,
		turnDeadline:       turnDeadline,
	}
}

// Run executes one unary turn end to end.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	release, ok := r.locks.acquire(ctx, sessionID, r.perSessionLockWait)
	if !ok {
		return Result{}, tutorerr.ErrSessionBusy
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
		r.persistTurn(ctx, sessionID, userMsg, reply.Text, nil)
		return Result{
			SessionID: sessionID,
			Response:  reply.Text,
			AgentName: tutor.AgentTeach,
			Persona:   teachPersona,
			Terminal:  reply.Terminal,
		}, nil
	}

	route, err := r.supervisor.Route(turnCtx, req.Message, history, req.ForceAgent)
	if err != nil {
		r.logger.Warn("turnrunner: supervisor routing failed, defaulting to teach", "session_id", sessionID, "error", err)
		route = tutor.RouteDecision{Target: tutor.AgentTeach, Reason: "routing error fallback", Confidence: 0, Source: tutor.RouteSourceDefault}
	}

	if route.Target == tutor.AgentFinish {
		closing := "Glad I could help today! Come back any time you want to keep practicing."
		r.persistTurn(ctx, sessionID, userMsg, closing, nil)
		return Result{
			SessionID:       sessionID,
			Response:        closing,
			AgentName:       tutor.AgentTeach,
			Persona:         teachPersona,
			RouteReason:     route.Reason,
			RouteConfidence: route.Confidence,
			RouteSource:     route.Source,
			Terminal:        true,
		}, nil
	}

	// A message answering an outstanding question is graded deterministically
	// rather than handed to an LLM, unless the Supervisor matched an explicit
	// slash command or rule-table entry (e.g. stress vocabulary, a scheduling
	// request) that should take priority over grading.
	if pending, hintStage, ok := pendingQuestionFrom(history); ok &&
		route.Source != tutor.RouteSourceRule && route.Source != tutor.RouteSourceSlash {
		gradingAgent := route.Target
		if gradingAgent != tutor.AgentPractice && gradingAgent != tutor.AgentChallenge {
			gradingAgent = tutor.AgentPractice
		}
		reply, meta := gradeAnswer(pending, hintStage, req.Message)
		r.persistTurn(ctx, sessionID, userMsg, reply, meta)
		return Result{
			SessionID:       sessionID,
			Response:        reply,
			AgentName:       gradingAgent,
			Persona:         agents.Registry[gradingAgent].Persona,
			RouteReason:     route.Reason,
			RouteConfidence: route.Confidence,
			RouteSource:     route.Source,
		}, nil
	}

	cfg, ok := agents.Registry[route.Target]
	if !ok {
		cfg = agents.Registry[tutor.AgentTeach]
		route.Target = tutor.AgentTeach
	}

	result, runErr := r.runAgent(turnCtx, cfg, summary, history, req.Message, nil)

	if turnCtx.Err() != nil {
		r.logger.Warn("turnrunner: turn deadline breached, not persisting", "session_id", sessionID)
		return Result{SessionID: sessionID, Response: fallbackReplyText, AgentName: cfg.Name, Persona: cfg.Persona}, nil
	}

	replyText := result.text
	meta := map[string]any{}
	var question *tutor.Question

	switch {
	case runErr == nil:
		// success
	case errors.Is(runErr, tutorerr.ErrToolLoopExceeded):
		r.logger.Warn("turnrunner: tool loop exceeded", "session_id", sessionID, "agent", cfg.Name)
		if replyText == "" {
			replyText = "I wasn't able to finish that thought."
		}
		replyText += " Sorry, let's try that again in a moment."
	case tutorerr.KindOf(runErr) == tutorerr.KindProviderUnavailable:
		r.logger.Warn("turnrunner: provider unavailable", "session_id", sessionID, "agent", cfg.Name, "error", runErr)
		replyText = fallbackReplyText
	default:
		r.logger.Error("turnrunner: agent run failed", "session_id", sessionID, "agent", cfg.Name, "error", runErr)
		replyText = fallbackReplyText
	}

	if cfg.Name == tutor.AgentTeach {
		if concept, ok := agents.ResolveConcept(req.Message); ok {
			meta[agents.MetaConcept] = concept
		}
	}
	if result.question != nil {
		question = result.question
		meta[agents.MetaPendingQuestion] = question
		meta[agents.MetaHintStage] = 0
	}
	if len(meta) == 0 {
		meta = nil
	}

	r.persistTurn(ctx, sessionID, userMsg, replyText, meta)

	return Result{
		SessionID:       sessionID,
		Response:        replyText,
		AgentName:       cfg.Name,
		Persona:         cfg.Persona,
		RouteReason:     route.Reason,
		RouteConfidence: route.Confidence,
		RouteSource:     route.Source,
		Question:        question,
	}, nil
}

// pendingQuestionFrom extracts the grading state from the most recent
// assistant message, if any.
func pendingQuestionFrom(history []tutor.Message) (*tutor.Question, int, bool) {
	if len(history) == 0 {
		return nil, 0, false
	}
	return agents.PendingQuestion(history[len(history)-1])
}

func (r *Runner) persistTurn(ctx context.Context, sessionID string, userMsg tutor.Message, replyText string, meta map[string]any) {
	assistantMsg := tutor.Message{
		Role:      tutor.RoleAssistant,
		Content:   replyText,
		Timestamp: time.Now(),
		Metadata:  meta,
	}
	r.memory.Append(ctx, sessionID, userMsg, assistantMsg)
}

// gradeAnswer implements spec §4.5's deterministic grading: compare the
// student's text against the pending question's final answer; on a
// wrong attempt, advance one hint stage.
func gradeAnswer(question *tutor.Question, hintStage int, studentAnswer string) (string, map[string]any) {
	if agents.CompareAnswers(studentAnswer, question.FinalAnswer) {
		return "That's correct! Great work. Want another question?", nil
	}

	if hintStage < len(question.Hints) {
		hint := question.Hints[hintStage]
		return "Not quite. Hint: " + hint.Text, map[string]any{
			agents.MetaPendingQuestion: question,
			agents.MetaHintStage:       hintStage + 1,
		}
	}

	return "That's not it either. The answer was " + question.FinalAnswer + ". Want another question?", nil
}
