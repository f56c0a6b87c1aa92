package generative

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/noble-ngs/tutor-runtime/internal/curriculum"
	"github.com/noble-ngs/tutor-runtime/internal/llmprovider"
	"github.com/noble-ngs/tutor-runtime/internal/sandbox"
	"github.com/noble-ngs/tutor-runtime/internal/tutorerr"
	"github.com/noble-ngs/tutor-runtime/pkg/tutor"
)

// maxDomainRetries is R in spec §4.3.
const maxDomainRetries = 2

const sandboxTimeout = 200 * time.Millisecond

// Engine is GenerativeEngine.
type Engine struct {
	provider llmprovider.Provider
	fallback *curriculum.Engine // optional; may be nil
	logger   *slog.Logger
}

func NewEngine(provider llmprovider.Provider, fallback *curriculum.Engine, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{provider: provider, fallback: fallback, logger: logger}
}

type scenarioResponse struct {
	ScenarioText string             `json:"scenario_text"`
	Variables    map[string]float64 `json:"variables"`
}

type solutionResponse struct {
	Steps []string `json:"steps"`
}

// Generate authors a fresh Question for concept at the requested marks
// and difficulty. contextHint carries caller-supplied context such as
// language preference or a summary of the student's prior wrong
// answers.
func (e *Engine) Generate(ctx context.Context, concept string, marks int, difficulty float64, contextHint string) (*tutor.Question, error) {
	solver, err := lookupSolver(concept)
	if err != nil {
		return e.fallbackOrFail(ctx, concept, err)
	}

	var scenario scenarioResponse
	var answer float64
	var lastErr error

	for attempt := 0; attempt <= maxDomainRetries; attempt++ {
		hint := contextHint
		if attempt > 0 {
			hint = contextHint + " Your previous variable choice violated the problem's constraints; choose values strictly inside the stated ranges."
		}

		scenario, lastErr = e.requestScenario(ctx, solver, marks, difficulty, hint)
		if lastErr != nil {
			continue
		}

		ok, domainErr := e.checkDomain(ctx, solver, scenario.Variables)
		if domainErr != nil {
			lastErr = domainErr
			continue
		}
		if !ok {
			lastErr = tutorerr.New(tutorerr.KindGenerationFailed, "model proposed out-of-domain variables")
			e.logger.Warn("generative: out-of-domain variables", "concept", concept, "attempt", attempt)
			continue
		}

		result, evalErr := sandbox.Eval(ctx, solver.AnswerExpr, scenario.Variables, sandboxTimeout)
		if evalErr != nil {
			lastErr = evalErr
			continue
		}
		answer = result.Value.Num
		lastErr = nil
		break
	}

	if lastErr != nil {
		e.logger.Warn("generative: scenario generation exhausted retries", "concept", concept, "error", lastErr)
		return e.fallbackOrFail(ctx, concept, lastErr)
	}

	steps, err := e.requestSolutionSteps(ctx, solver, scenario.Variables, answer)
	if err != nil {
		return e.fallbackOrFail(ctx, concept, err)
	}

	diagram, err := e.requestDiagramDescription(ctx, solver, scenario.Variables)
	if err != nil {
		// A missing diagram description degrades the question, but
		// every numeric guarantee already holds; do not fail the call.
		e.logger.Warn("generative: diagram description failed", "concept", concept, "error", err)
		diagram = ""
	}

	variables := make(map[string]any, len(scenario.Variables))
	for k, v := range scenario.Variables {
		variables[k] = v
	}

	return &tutor.Question{
		QuestionID:    uuid.NewString(),
		Concept:       concept,
		Marks:         marks,
		Difficulty:    difficulty,
		Source:        tutor.SourceAI,
		Text:          scenario.ScenarioText,
		SolutionSteps: steps,
		FinalAnswer:   formatValue(answer),
		DiagramCode:   diagram,
		GeneratedAt:   time.Now().UTC(),
		Variables:     variables,
	}, nil
}

func (e *Engine) requestScenario(ctx context.Context, solver ConceptSolver, marks int, difficulty float64, contextHint string) (scenarioResponse, error) {
	raw, err := e.callJSON(ctx, scenarioSystemPrompt(solver, marks, difficulty, contextHint), 600)
	if err != nil {
		return scenarioResponse{}, err
	}
	var resp scenarioResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return scenarioResponse{}, fmt.Errorf("generative: malformed scenario response: %w", err)
	}
	if resp.ScenarioText == "" || len(resp.Variables) == 0 {
		return scenarioResponse{}, errors.New("generative: scenario response missing required fields")
	}
	return resp, nil
}

func (e *Engine) checkDomain(ctx context.Context, solver ConceptSolver, variables map[string]float64) (bool, error) {
	for _, rule := range solver.DomainRules {
		result, err := sandbox.Eval(ctx, rule, variables, sandboxTimeout)
		if err != nil {
			return false, err
		}
		if !result.Value.Truthy() {
			return false, nil
		}
	}
	return true, nil
}

func (e *Engine) requestSolutionSteps(ctx context.Context, solver ConceptSolver, variables map[string]float64, answer float64) ([]string, error) {
	raw, err := e.callJSON(ctx, solutionSystemPrompt(solver, variables, answer), 800)
	if err != nil {
		return nil, err
	}
	var resp solutionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("generative: malformed solution response: %w", err)
	}
	if len(resp.Steps) == 0 {
		return nil, errors.New("generative: solution response had no steps")
	}

	spliceValues := make(map[string]float64, len(variables)+1)
	for k, v := range variables {
		spliceValues[k] = v
	}
	spliceValues["answer"] = answer

	steps := make([]string, len(resp.Steps))
	for i, s := range resp.Steps {
		steps[i] = splice(s, spliceValues)
	}
	return steps, nil
}

func (e *Engine) requestDiagramDescription(ctx context.Context, solver ConceptSolver, variables map[string]float64) (string, error) {
	req := &llmprovider.CompletionRequest{
		System:   diagramSystemPrompt(solver, variables),
		Messages: []llmprovider.CompletionMessage{{Role: "user", Content: "Describe the diagram."}},
		MaxTokens: 200,
	}
	chunks, err := e.provider.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	text, _, err := llmprovider.Collect(ctx, chunks)
	return text, err
}

func (e *Engine) callJSON(ctx context.Context, system string, maxTokens int) (json.RawMessage, error) {
	req := &llmprovider.CompletionRequest{
		System:      system,
		Messages:    []llmprovider.CompletionMessage{{Role: "user", Content: "Generate it now."}},
		MaxTokens:   maxTokens,
		Temperature: 0.7,
	}
	chunks, err := e.provider.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	text, _, err := llmprovider.Collect(ctx, chunks)
	if err != nil {
		return nil, err
	}
	obj, err := extractJSONObject(text)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(obj), nil
}

func (e *Engine) fallbackOrFail(ctx context.Context, concept string, cause error) (*tutor.Question, error) {
	if e.fallback != nil {
		patterns := e.fallback.List(concept, nil, 0, 0)
		if len(patterns) > 0 {
			q, err := e.fallback.Generate(ctx, patterns[0].PatternID)
			if err == nil {
				e.logger.Info("generative: fell back to pattern engine", "concept", concept, "pattern_id", patterns[0].PatternID)
				return q, nil
			}
		}
	}
	return nil, tutorerr.Wrap(tutorerr.KindGenerationFailed, "generative engine failed for concept "+concept, cause)
}
