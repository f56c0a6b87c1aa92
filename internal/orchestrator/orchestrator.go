// Package orchestrator implements HybridOrchestrator: the decision
// procedure choosing whether a question comes from PatternEngine or
// GenerativeEngine, with preference-table overrides, ratio-weighted
// random choice, and same-turn fallback when the chosen source fails.
package orchestrator

import (
	"context"
	"errors"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/noble-ngs/tutor-runtime/pkg/tutor"
)

// PatternGenerator is the subset of curriculum.Engine the orchestrator
// needs; declared locally so this package doesn't import curriculum
// just to name a concrete type.
type PatternGenerator interface {
	Generate(ctx context.Context, patternID string) (*tutor.Question, error)
	List(concept string, marks *int, minDifficulty, maxDifficulty float64) []tutor.PatternTemplate
}

// AIGenerator is the subset of generative.Engine the orchestrator needs.
type AIGenerator interface {
	Generate(ctx context.Context, concept string, marks int, difficulty float64, contextHint string) (*tutor.Question, error)
}

// Stats is the snapshot returned by Orchestrator.Stats (spec §4.4's
// get_stats()). Counters are process-lifetime cumulative and are never
// persisted.
type Stats struct {
	PatternCount  int64
	AICount       int64
	Failures      int64
	LastLatencyMs int64
}

// Orchestrator is HybridOrchestrator.
type Orchestrator struct {
	patterns    PatternGenerator
	ai          AIGenerator
	preferences *PreferenceTable
	aiRatio     float64
	rng         *rand.Rand

	patternCount  atomic.Int64
	aiCount       atomic.Int64
	failures      atomic.Int64
	lastLatencyMs atomic.Int64
}

// New builds an Orchestrator. aiRatio is clamped to [0,1]; 0.5 is the
// documented default (see config.Default).
func New(patterns PatternGenerator, ai AIGenerator, preferences *PreferenceTable, aiRatio float64, seed int64) *Orchestrator {
	if aiRatio < 0 {
		aiRatio = 0
	}
	if aiRatio > 1 {
		aiRatio = 1
	}
	return &Orchestrator{
		patterns:    patterns,
		ai:          ai,
		preferences: preferences,
		aiRatio:     aiRatio,
		rng:         rand.New(rand.NewSource(seed)), // #nosec G404 -- source selection, not a security decision
	}
}

// Generate implements the decision procedure in spec §4.4.
func (o *Orchestrator) Generate(ctx context.Context, concept string, marks int, difficulty float64, forceSource Source) (*tutor.Question, error) {
	start := time.Now()
	q, err := o.generate(ctx, concept, marks, difficulty, forceSource)
	o.lastLatencyMs.Store(time.Since(start).Milliseconds())
	if err != nil {
		o.failures.Add(1)
	}
	return q, err
}

func (o *Orchestrator) generate(ctx context.Context, concept string, marks int, difficulty float64, forceSource Source) (*tutor.Question, error) {
	preferred := o.chooseSource(concept, forceSource)

	q, err := o.fromSource(ctx, preferred, concept, marks, difficulty)
	if err == nil {
		return q, nil
	}

	other := SourceAI
	if preferred == SourceAI {
		other = SourcePattern
	}
	q, fallbackErr := o.fromSource(ctx, other, concept, marks, difficulty)
	if fallbackErr == nil {
		return q, nil
	}

	return nil, err
}

func (o *Orchestrator) chooseSource(concept string, forceSource Source) Source {
	if forceSource == SourcePattern || forceSource == SourceAI {
		return forceSource
	}
	if o.preferences != nil {
		if source, ok := o.preferences.Lookup(concept); ok {
			return source
		}
	}
	if o.rng.Float64() < o.aiRatio {
		return SourceAI
	}
	return SourcePattern
}

func (o *Orchestrator) fromSource(ctx context.Context, source Source, concept string, marks int, difficulty float64) (*tutor.Question, error) {
	switch source {
	case SourceAI:
		if o.ai == nil {
			return nil, errors.New("orchestrator: no AI generator configured")
		}
		q, err := o.ai.Generate(ctx, concept, marks, difficulty, "")
		if err == nil {
			o.aiCount.Add(1)
		}
		return q, err
	case SourcePattern:
		if o.patterns == nil {
			return nil, errors.New("orchestrator: no pattern generator configured")
		}
		candidates := o.patterns.List(concept, &marks, 0, 0)
		if len(candidates) == 0 {
			candidates = o.patterns.List(concept, nil, difficulty-0.15, difficulty+0.15)
		}
		if len(candidates) == 0 {
			return nil, errors.New("orchestrator: no pattern available for concept " + concept)
		}
		chosen := candidates[o.rng.Intn(len(candidates))]
		q, err := o.patterns.Generate(ctx, chosen.PatternID)
		if err == nil {
			o.patternCount.Add(1)
		}
		return q, err
	default:
		return nil, errors.New("orchestrator: unknown source")
	}
}

// Stats returns the current cumulative counters.
func (o *Orchestrator) Stats() Stats {
	return Stats{
		PatternCount:  o.patternCount.Load(),
		AICount:       o.aiCount.Load(),
		Failures:      o.failures.Load(),
		LastLatencyMs: o.lastLatencyMs.Load(),
	}
}
