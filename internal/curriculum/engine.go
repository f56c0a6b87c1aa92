package curriculum

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noble-ngs/tutor-runtime/internal/sandbox"
	"github.com/noble-ngs/tutor-runtime/internal/tutorerr"
	"github.com/noble-ngs/tutor-runtime/pkg/tutor"
)

// resampleLimit is K in spec §4.2: the number of variable-binding
// attempts PatternEngine.Generate makes before giving up on a pattern.
const resampleLimit = 16

// recentWindow bounds how many past binding fingerprints Generate
// remembers per pattern for the dedup check.
const recentWindow = 8

const sandboxTimeout = 200 * time.Millisecond

// Engine is PatternEngine: it samples PatternTemplate variables and
// renders questions through the sandbox, never trusting a generated
// expression's arithmetic without running it.
type Engine struct {
	catalog *Catalog

	mu     sync.Mutex
	rng    *rand.Rand
	recent map[string][]string
}

// NewEngine builds a PatternEngine over catalog. seed controls variable
// sampling; pass a fixed seed in tests for deterministic generation, or
// a time-derived seed in production (see cmd/tutor-server/main.go).
func NewEngine(catalog *Catalog, seed int64) *Engine {
	return &Engine{
		catalog: catalog,
		rng:     rand.New(rand.NewSource(seed)), // #nosec G404 -- sampling math problems, not security tokens
		recent:  make(map[string][]string),
	}
}

// List returns the catalog's templates for concept (see Catalog.List).
func (e *Engine) List(concept string, marks *int, minDifficulty, maxDifficulty float64) []tutor.PatternTemplate {
	return e.catalog.List(concept, marks, minDifficulty, maxDifficulty)
}

// Generate samples patternID's variables, validates the sample against
// its validation_rules, and renders a fresh Question. It returns
// tutorerr.ErrPatternUnsatisfiable (wrapped) if no valid, sufficiently
// novel binding is found within resampleLimit attempts.
func (e *Engine) Generate(ctx context.Context, patternID string) (*tutor.Question, error) {
	tmpl, err := e.catalog.Get(patternID)
	if err != nil {
		return nil, err
	}

	specs := make(map[string]tutor.VariableSpec, len(tmpl.VariableSchema))
	for _, v := range tmpl.VariableSchema {
		specs[v.Name] = v
	}

	var lastErr error
	for attempt := 1; attempt <= resampleLimit; attempt++ {
		bindings, err := e.sampleVariables(ctx, tmpl)
		if err != nil {
			lastErr = err
			continue
		}

		ok, err := e.evaluateValidationRules(ctx, tmpl, bindings)
		if err != nil {
			lastErr = err
			continue
		}
		if !ok {
			continue
		}

		fp := fingerprint(tmpl, bindings)
		if e.isRecentCollision(tmpl.PatternID, fp) {
			continue
		}
		e.recordRecent(tmpl.PatternID, fp)

		return e.render(tmpl, specs, bindings), nil
	}

	if lastErr != nil {
		return nil, tutorerr.Wrap(tutorerr.KindPatternUnsatisfiable, "pattern unsatisfiable after resampling", lastErr)
	}
	return nil, tutorerr.ErrPatternUnsatisfiable
}

func (e *Engine) sampleVariables(ctx context.Context, tmpl tutor.PatternTemplate) (map[string]float64, error) {
	bindings := make(map[string]float64, len(tmpl.VariableSchema))

	e.mu.Lock()
	rng := e.rng
	e.mu.Unlock()

	for _, v := range tmpl.VariableSchema {
		switch v.Kind {
		case tutor.VarInt:
			lo, hi := int64(v.Min), int64(v.Max)
			e.mu.Lock()
			n := lo + rng.Int63n(hi-lo+1)
			e.mu.Unlock()
			bindings[v.Name] = float64(n)
		case tutor.VarReal:
			e.mu.Lock()
			f := v.Min + rng.Float64()*(v.Max-v.Min)
			e.mu.Unlock()
			if v.Precision > 0 {
				scale := pow10(v.Precision)
				f = roundTo(f, scale)
			}
			bindings[v.Name] = f
		case tutor.VarChoice:
			e.mu.Lock()
			idx := rng.Intn(len(v.Options))
			e.mu.Unlock()
			bindings[v.Name] = v.Options[idx]
		case tutor.VarCalculated:
			result, err := sandbox.Eval(ctx, v.Expression, bindings, sandboxTimeout)
			if err != nil {
				return nil, err
			}
			bindings[v.Name] = result.Value.Num
		}
	}

	return bindings, nil
}

func (e *Engine) evaluateValidationRules(ctx context.Context, tmpl tutor.PatternTemplate, bindings map[string]float64) (bool, error) {
	for _, rule := range tmpl.ValidationRules {
		result, err := sandbox.Eval(ctx, rule, bindings, sandboxTimeout)
		if err != nil {
			return false, err
		}
		if !result.Value.Truthy() {
			return false, nil
		}
	}
	return true, nil
}

func (e *Engine) render(tmpl tutor.PatternTemplate, specs map[string]tutor.VariableSpec, bindings map[string]float64) *tutor.Question {
	steps := make([]string, len(tmpl.SolutionTemplate))
	for i, s := range tmpl.SolutionTemplate {
		steps[i] = renderTemplate(s, bindings, specs)
	}

	hints := make([]tutor.Hint, len(tmpl.Hints))
	for i, h := range tmpl.Hints {
		hints[i] = tutor.Hint{Stage: i + 1, Text: renderTemplate(h, bindings, specs)}
	}

	variables := make(map[string]any, len(bindings))
	for k, v := range bindings {
		variables[k] = v
	}

	return &tutor.Question{
		QuestionID:    uuid.NewString(),
		Concept:       tmpl.Concept,
		Marks:         tmpl.Marks,
		Difficulty:    tmpl.Difficulty,
		Source:        tutor.SourcePattern,
		Text:          renderTemplate(tmpl.TextTemplate, bindings, specs),
		SolutionSteps: steps,
		FinalAnswer:   renderTemplate(tmpl.AnswerTemplate, bindings, specs),
		Hints:         hints,
		GeneratedAt:   time.Now().UTC(),
		Variables:     variables,
	}
}

func (e *Engine) isRecentCollision(patternID, fp string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, seen := range e.recent[patternID] {
		if seen == fp {
			return true
		}
	}
	return false
}

func (e *Engine) recordRecent(patternID, fp string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	list := append(e.recent[patternID], fp)
	if len(list) > recentWindow {
		list = list[len(list)-recentWindow:]
	}
	e.recent[patternID] = list
}

func pow10(n int) float64 {
	f := 1.0
	for i := 0; i < n; i++ {
		f *= 10
	}
	return f
}

func roundTo(f, scale float64) float64 {
	return float64(int64(f*scale+0.5)) / scale
}
