package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/noble-ngs/tutor-runtime/internal/llmprovider"
	"github.com/noble-ngs/tutor-runtime/internal/sandbox"
	"github.com/noble-ngs/tutor-runtime/pkg/tutor"
)

const toolSandboxTimeout = 200 * time.Millisecond

// QuestionGenerator is the subset of orchestrator.Orchestrator the
// question-generation tool needs.
type QuestionGenerator interface {
	Generate(ctx context.Context, concept string, marks int, difficulty float64, forceSource string) (*tutor.Question, error)
}

// CatalogLister is the subset of curriculum.Engine the plan agent's
// read-only catalog tool needs. It never mutates the catalog or samples
// a question from it.
type CatalogLister interface {
	List(concept string, marks *int, minDifficulty, maxDifficulty float64) []tutor.PatternTemplate
}

// Tools bundles the handlers an agent's tool calls dispatch to. Each
// agent only sees the subset its AgentConfig.AllowedTools names; the
// runner is responsible for enforcing that before calling Dispatch.
type Tools struct {
	Questions QuestionGenerator
	Catalog   CatalogLister
	Provider  llmprovider.Provider
}

// calculationCheckArgs is the argument schema for sandbox.check_calculation.
type calculationCheckArgs struct {
	Expression string             `json:"expression"`
	Bindings   map[string]float64 `json:"bindings"`
}

type generateQuestionArgs struct {
	Concept      string  `json:"concept"`
	Marks        int     `json:"marks"`
	Difficulty   float64 `json:"difficulty"`
	ForceSource  string  `json:"force_source,omitempty"`
}

type diagramArgs struct {
	Description string `json:"description"`
}

type listCatalogArgs struct {
	Concept       string  `json:"concept,omitempty"`
	Marks         *int    `json:"marks,omitempty"`
	MinDifficulty float64 `json:"min_difficulty,omitempty"`
	MaxDifficulty float64 `json:"max_difficulty,omitempty"`
}

// catalogEntry is the read-only view curriculum.list_catalog exposes:
// enough for the plan agent to schedule study topics, without the
// solution/answer/hints a student-facing question would carry.
type catalogEntry struct {
	PatternID  string  `json:"pattern_id"`
	Concept    string  `json:"concept"`
	Marks      int     `json:"marks"`
	Difficulty float64 `json:"difficulty"`
}

// Dispatch executes toolName with the given raw JSON arguments and returns
// a JSON-serializable result to splice back into the agent's conversation.
func (t Tools) Dispatch(ctx context.Context, toolName string, rawArgs json.RawMessage) (any, error) {
	switch toolName {
	case toolCheckCalculation:
		var args calculationCheckArgs
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			return nil, fmt.Errorf("agents: malformed %s arguments: %w", toolName, err)
		}
		result, err := sandbox.Eval(ctx, args.Expression, args.Bindings, toolSandboxTimeout)
		if err != nil {
			return nil, err
		}
		return map[string]any{"value": result.Value.Num}, nil

	case toolGenerateQuestion:
		if t.Questions == nil {
			return nil, fmt.Errorf("agents: %s unavailable", toolName)
		}
		var args generateQuestionArgs
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			return nil, fmt.Errorf("agents: malformed %s arguments: %w", toolName, err)
		}
		q, err := t.Questions.Generate(ctx, args.Concept, args.Marks, args.Difficulty, args.ForceSource)
		if err != nil {
			return nil, err
		}
		return q, nil

	case toolListCatalog:
		if t.Catalog == nil {
			return nil, fmt.Errorf("agents: %s unavailable", toolName)
		}
		var args listCatalogArgs
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			return nil, fmt.Errorf("agents: malformed %s arguments: %w", toolName, err)
		}
		templates := t.Catalog.List(args.Concept, args.Marks, args.MinDifficulty, args.MaxDifficulty)
		entries := make([]catalogEntry, 0, len(templates))
		for _, tmpl := range templates {
			entries = append(entries, catalogEntry{
				PatternID:  tmpl.PatternID,
				Concept:    tmpl.Concept,
				Marks:      tmpl.Marks,
				Difficulty: tmpl.Difficulty,
			})
		}
		return map[string]any{"patterns": entries}, nil

	case toolGenerateDiagram:
		if t.Provider == nil {
			return nil, fmt.Errorf("agents: %s unavailable", toolName)
		}
		var args diagramArgs
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			return nil, fmt.Errorf("agents: malformed %s arguments: %w", toolName, err)
		}
		req := &llmprovider.CompletionRequest{
			System: "Describe, in one short paragraph, a simple diagram that would " +
				"help a student visualize the following figure or situation. " +
				"Describe layout and labels only; do not solve anything.",
			Messages:  []llmprovider.CompletionMessage{{Role: "user", Content: args.Description}},
			MaxTokens: 200,
		}
		chunks, err := t.Provider.Complete(ctx, req)
		if err != nil {
			return nil, err
		}
		text, _, err := llmprovider.Collect(ctx, chunks)
		if err != nil {
			return nil, err
		}
		return map[string]any{"diagram_description": text}, nil

	default:
		return nil, fmt.Errorf("agents: unknown tool %q", toolName)
	}
}
