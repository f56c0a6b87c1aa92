// Package supervisor implements turn routing: deciding which of the five
// production agents (or the finish pseudo-target) should handle a turn.
// It mirrors the priority-ordered trigger evaluation of the teacher's
// internal/multiagent Router, collapsed from a configurable handoff graph
// into the fixed slash-command/rule-table/LLM-fallback pipeline spec'd
// for this runtime.
package supervisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/noble-ngs/tutor-runtime/internal/llmprovider"
	"github.com/noble-ngs/tutor-runtime/pkg/tutor"
)

// llmConfidenceFloor is the minimum confidence an LLM-fallback decision
// must carry before it is trusted; below this, target is clamped to teach.
const llmConfidenceFloor = 0.5

// slashCommands maps a recognized slash token to its target agent.
var slashCommands = map[string]tutor.AgentName{
	"/test":     tutor.AgentPractice,
	"/spark":    tutor.AgentChallenge,
	"/chill":    tutor.AgentWellbeing,
	"/plan":     tutor.AgentPlan,
	"/progress": tutor.AgentPlan,
	"/mock":     tutor.AgentPlan,
	"/veda":     tutor.AgentTeach,
}

var closurePhrases = []string{
	"goodbye", "see you later", "that's all", "i'm done",
}

const closureExact = "bye"

// ruleEntry is one (phrase-set, target, reason) triple in the priority
// rule table (spec §4.6 step 3). Entries are evaluated in order; the
// first match wins.
type ruleEntry struct {
	phrases    []string
	target     tutor.AgentName
	reason     string
	confidence float64
}

var ruleTable = []ruleEntry{
	{
		phrases:    []string{"stress", "anxious", "anxiety", "overwhelmed", "panic", "scared", "worried"},
		target:     tutor.AgentWellbeing,
		reason:     "message uses stress/anxiety vocabulary",
		confidence: 0.9,
	},
	{
		phrases:    []string{"schedule", "exam date", "exam on", "progress", "study plan", "how am i doing"},
		target:     tutor.AgentPlan,
		reason:     "message uses scheduling/progress vocabulary",
		confidence: 0.85,
	},
	{
		phrases:    []string{"mock test", "board exam", "80 marks"},
		target:     tutor.AgentPlan,
		reason:     "message references a mock test or board exam",
		confidence: 0.9,
	},
	{
		phrases:    []string{"hard question", "challenge", "harder one", "push me"},
		target:     tutor.AgentChallenge,
		reason:     "message asks for a harder question",
		confidence: 0.85,
	},
	{
		phrases:    []string{"practice", "question", "test me", "quiz"},
		target:     tutor.AgentPractice,
		reason:     "message asks for practice",
		confidence: 0.8,
	},
	{
		// Explicitly never -> finish: a casual acknowledgment continues
		// the tutoring conversation in the teach persona.
		phrases:    []string{"thank", "hello", "hi", "hey", "good morning", "namaste", "kaise ho"},
		target:     tutor.AgentTeach,
		reason:     "message is a greeting or acknowledgment",
		confidence: 0.85,
	},
}

// Supervisor routes a turn to an agent.
type Supervisor struct {
	provider llmprovider.Provider
}

func New(provider llmprovider.Provider) *Supervisor {
	return &Supervisor{provider: provider}
}

// Route implements the decision procedure in spec §4.6.
func (s *Supervisor) Route(ctx context.Context, message string, history []tutor.Message, forceAgent string) (tutor.RouteDecision, error) {
	if forced, ok := forcedAgent(forceAgent); ok {
		return tutor.RouteDecision{Target: forced, Reason: "forced by caller", Confidence: 1.0, Source: tutor.RouteSourceDefault}, nil
	}

	normalized := strings.ToLower(strings.TrimSpace(message))

	if strings.HasPrefix(normalized, "/") {
		token := strings.Fields(normalized)[0]
		if target, ok := slashCommands[token]; ok {
			return tutor.RouteDecision{Target: target, Reason: "slash command " + token, Confidence: 1.0, Source: tutor.RouteSourceSlash}, nil
		}
		// Unknown slash token: fall through to the rest of the pipeline.
	}

	if normalized == closureExact || containsAny(normalized, closurePhrases) {
		return tutor.RouteDecision{Target: tutor.AgentFinish, Reason: "explicit closure", Confidence: 0.98, Source: tutor.RouteSourceRule}, nil
	}

	for _, rule := range ruleTable {
		if containsAny(normalized, rule.phrases) {
			return tutor.RouteDecision{Target: rule.target, Reason: rule.reason, Confidence: rule.confidence, Source: tutor.RouteSourceRule}, nil
		}
	}

	return s.routeViaLLM(ctx, message, history)
}

func forcedAgent(forceAgent string) (tutor.AgentName, bool) {
	switch tutor.AgentName(forceAgent) {
	case tutor.AgentTeach, tutor.AgentPractice, tutor.AgentChallenge, tutor.AgentWellbeing, tutor.AgentPlan:
		return tutor.AgentName(forceAgent), true
	default:
		return "", false
	}
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

type llmRouteResponse struct {
	Target     string  `json:"target"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

func (s *Supervisor) routeViaLLM(ctx context.Context, message string, history []tutor.Message) (tutor.RouteDecision, error) {
	if s.provider == nil {
		return tutor.RouteDecision{Target: tutor.AgentTeach, Reason: "no LLM fallback configured", Confidence: llmConfidenceFloor, Source: tutor.RouteSourceDefault}, nil
	}

	req := &llmprovider.CompletionRequest{
		System: "You route a student's message to one of: teach, practice, challenge, " +
			"wellbeing, plan. Respond with a single JSON object " +
			`{"target": "...", "reason": "...", "confidence": 0.0-1.0}` + " and nothing else.",
		Messages:    []llmprovider.CompletionMessage{{Role: "user", Content: message}},
		MaxTokens:   150,
		Temperature: 0.1,
	}
	chunks, err := s.provider.Complete(ctx, req)
	if err != nil {
		return tutor.RouteDecision{}, fmt.Errorf("supervisor: LLM routing call failed: %w", err)
	}
	text, _, err := llmprovider.Collect(ctx, chunks)
	if err != nil {
		return tutor.RouteDecision{}, fmt.Errorf("supervisor: LLM routing call failed: %w", err)
	}

	obj, err := extractJSONObject(text)
	if err != nil {
		return tutor.RouteDecision{}, fmt.Errorf("supervisor: malformed routing response: %w", err)
	}
	var resp llmRouteResponse
	if err := json.Unmarshal([]byte(obj), &resp); err != nil {
		return tutor.RouteDecision{}, fmt.Errorf("supervisor: malformed routing response: %w", err)
	}

	target := tutor.AgentName(resp.Target)
	if resp.Confidence < llmConfidenceFloor {
		target = tutor.AgentTeach
	}
	if _, ok := forcedAgent(string(target)); !ok {
		target = tutor.AgentTeach
	}

	return tutor.RouteDecision{
		Target:     target,
		Reason:     resp.Reason,
		Confidence: resp.Confidence,
		Source:     tutor.RouteSourceLLM,
	}, nil
}

func extractJSONObject(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return text[start : end+1], nil
}
