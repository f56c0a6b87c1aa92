package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noble-ngs/tutor-runtime/pkg/tutor"
)

type fakePatterns struct {
	templates []tutor.PatternTemplate
	genErr    error
	genCalls  int
}

func (f *fakePatterns) List(concept string, marks *int, minDifficulty, maxDifficulty float64) []tutor.PatternTemplate {
	var out []tutor.PatternTemplate
	for _, t := range f.templates {
		if t.Concept == concept {
			out = append(out, t)
		}
	}
	return out
}

func (f *fakePatterns) Generate(ctx context.Context, patternID string) (*tutor.Question, error) {
	f.genCalls++
	if f.genErr != nil {
		return nil, f.genErr
	}
	return &tutor.Question{QuestionID: "p-1", Concept: "algebra", Source: tutor.SourcePattern}, nil
}

type fakeAI struct {
	genErr   error
	genCalls int
}

func (f *fakeAI) Generate(ctx context.Context, concept string, marks int, difficulty float64, contextHint string) (*tutor.Question, error) {
	f.genCalls++
	if f.genErr != nil {
		return nil, f.genErr
	}
	return &tutor.Question{QuestionID: "a-1", Concept: concept, Source: tutor.SourceAI}, nil
}

func testTemplates() []tutor.PatternTemplate {
	return []tutor.PatternTemplate{
		{PatternID: "p1", Concept: "algebra", Marks: 2, Difficulty: 0.3},
	}
}

func TestOrchestratorHonorsForceSource(t *testing.T) {
	patterns := &fakePatterns{templates: testTemplates()}
	ai := &fakeAI{}
	o := New(patterns, ai, nil, 0.5, 1)

	q, err := o.Generate(context.Background(), "algebra", 2, 0.3, SourceAI)
	require.NoError(t, err)
	require.Equal(t, tutor.SourceAI, q.Source)
	require.Equal(t, 1, ai.genCalls)
	require.Equal(t, 0, patterns.genCalls)
}

func TestOrchestratorHonorsPreferenceTable(t *testing.T) {
	patterns := &fakePatterns{templates: testTemplates()}
	ai := &fakeAI{}
	prefs := &PreferenceTable{patternPreferred: map[string]bool{"algebra": true}}
	o := New(patterns, ai, prefs, 0.9, 1)

	q, err := o.Generate(context.Background(), "algebra", 2, 0.3, "")
	require.NoError(t, err)
	require.Equal(t, tutor.SourcePattern, q.Source)
}

func TestOrchestratorFallsBackWhenPreferredSourceFails(t *testing.T) {
	patterns := &fakePatterns{templates: testTemplates(), genErr: errors.New("pattern boom")}
	ai := &fakeAI{}
	prefs := &PreferenceTable{patternPreferred: map[string]bool{"algebra": true}}
	o := New(patterns, ai, prefs, 0.5, 1)

	q, err := o.Generate(context.Background(), "algebra", 2, 0.3, "")
	require.NoError(t, err)
	require.Equal(t, tutor.SourceAI, q.Source)

	stats := o.Stats()
	require.Equal(t, int64(1), stats.AICount)
	require.Equal(t, int64(0), stats.Failures)
}

func TestOrchestratorReturnsPreferredSourceFailureWhenBothFail(t *testing.T) {
	patterns := &fakePatterns{templates: testTemplates(), genErr: errors.New("pattern boom")}
	ai := &fakeAI{genErr: errors.New("ai boom")}
	prefs := &PreferenceTable{patternPreferred: map[string]bool{"algebra": true}}
	o := New(patterns, ai, prefs, 0.5, 1)

	_, err := o.Generate(context.Background(), "algebra", 2, 0.3, "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "pattern boom")

	stats := o.Stats()
	require.Equal(t, int64(1), stats.Failures)
}

func TestOrchestratorRatioWeightedChoiceWithoutPreference(t *testing.T) {
	patterns := &fakePatterns{templates: testTemplates()}
	ai := &fakeAI{}
	o := New(patterns, ai, nil, 1.0, 7)

	_, err := o.Generate(context.Background(), "algebra", 2, 0.3, "")
	require.NoError(t, err)
	require.Equal(t, 1, ai.genCalls)
	require.Equal(t, 0, patterns.genCalls)
}

func TestOrchestratorStatsTrackCounts(t *testing.T) {
	patterns := &fakePatterns{templates: testTemplates()}
	ai := &fakeAI{}
	o := New(patterns, ai, nil, 0, 1)

	_, err := o.Generate(context.Background(), "algebra", 2, 0.3, SourcePattern)
	require.NoError(t, err)

	stats := o.Stats()
	require.Equal(t, int64(1), stats.PatternCount)
	require.Equal(t, int64(0), stats.AICount)
	require.GreaterOrEqual(t, stats.LastLatencyMs, int64(0))
}
