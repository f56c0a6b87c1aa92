package curriculum

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noble-ngs/tutor-runtime/pkg/tutor"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	return &Catalog{
		byID: map[string]tutor.PatternTemplate{
			"linear-one-step": {
				PatternID: "linear-one-step",
				Concept:   "linear_equations",
				Marks:     2,
				Difficulty: 0.3,
				TextTemplate: "Solve for x: x + {a} = {b}",
				VariableSchema: []tutor.VariableSpec{
					{Name: "a", Kind: tutor.VarInt, Min: 1, Max: 9},
					{Name: "b", Kind: tutor.VarInt, Min: 10, Max: 20},
					{Name: "x", Kind: tutor.VarCalculated, Expression: "b - a"},
				},
				SolutionTemplate: []string{"x = {b} - {a}", "x = {x}"},
				AnswerTemplate:   "{x}",
			},
		},
		byConcept: map[string][]string{
			"linear_equations": {"linear-one-step"},
		},
	}
}

func TestEngineGenerateProducesRenderedQuestion(t *testing.T) {
	engine := NewEngine(testCatalog(t), 42)
	q, err := engine.Generate(context.Background(), "linear-one-step")
	require.NoError(t, err)
	require.Equal(t, tutor.SourcePattern, q.Source)
	require.Equal(t, "linear_equations", q.Concept)
	require.NotEmpty(t, q.QuestionID)
	require.NotContains(t, q.Text, "{a}")
	require.NotContains(t, q.Text, "{b}")
	require.Len(t, q.SolutionSteps, 2)
	require.NotContains(t, q.SolutionSteps[1], "{x}")
}

func TestEngineGenerateUnknownPatternFails(t *testing.T) {
	engine := NewEngine(testCatalog(t), 1)
	_, err := engine.Generate(context.Background(), "does-not-exist")
	require.Error(t, err)
}

func TestEngineListFiltersByConcept(t *testing.T) {
	engine := NewEngine(testCatalog(t), 1)
	require.Len(t, engine.List("linear_equations", nil, 0, 0), 1)
	require.Empty(t, engine.List("quadratic_equations", nil, 0, 0))
}

func TestValidateTemplateRejectsForwardReference(t *testing.T) {
	err := validateTemplate(tutor.PatternTemplate{
		PatternID:    "bad",
		Concept:      "c",
		TextTemplate: "x = {x}",
		AnswerTemplate: "{x}",
		VariableSchema: []tutor.VariableSpec{
			{Name: "x", Kind: tutor.VarCalculated, Expression: "y + 1"},
			{Name: "y", Kind: tutor.VarInt, Min: 1, Max: 5},
		},
	})
	require.Error(t, err)
}

func TestValidateTemplateRejectsUnparenthesizedSignedPower(t *testing.T) {
	err := validateTemplate(tutor.PatternTemplate{
		PatternID:      "quad",
		Concept:        "c",
		TextTemplate:   "Evaluate {b}**2",
		AnswerTemplate: "{b}",
		VariableSchema: []tutor.VariableSpec{
			{Name: "b", Kind: tutor.VarInt, Min: -5, Max: 5},
		},
	})
	require.Error(t, err)
}

func TestValidateTemplateAcceptsParenthesizedSignedPower(t *testing.T) {
	err := validateTemplate(tutor.PatternTemplate{
		PatternID:      "quad-ok",
		Concept:        "c",
		TextTemplate:   "Evaluate ({b})**2",
		AnswerTemplate: "{b}",
		VariableSchema: []tutor.VariableSpec{
			{Name: "b", Kind: tutor.VarInt, Min: -5, Max: 5},
		},
	})
	require.NoError(t, err)
}
