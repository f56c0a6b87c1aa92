package generative

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noble-ngs/tutor-runtime/internal/llmprovider"
)

func TestEngineGenerateComputesAuthoritativeAnswer(t *testing.T) {
	// The stub StubProvider returns the same text for every call, so use
	// a provider that replays a scripted sequence, one reply per call,
	// to drive the engine's three-call protocol (scenario, solution
	// steps, diagram description).
	sequenced := &sequencedProvider{
		replies: []string{
			`{"scenario_text": "A ladder leans against a wall.", "variables": {"distance": 10, "angle_degrees": 45}}`,
			`{"steps": ["height = {distance} * tan({angle_degrees} degrees)", "height = {answer}"]}`,
			"A right triangle with the ladder as hypotenuse.",
		},
	}

	engine := NewEngine(sequenced, nil, nil)
	q, err := engine.Generate(context.Background(), "heights_and_distances", 3, 0.5, "")
	require.NoError(t, err)
	require.Equal(t, "heights_and_distances", q.Concept)
	require.NotEmpty(t, q.FinalAnswer)
	require.Len(t, q.SolutionSteps, 2)
	require.NotContains(t, q.SolutionSteps[1], "{answer}")
}

func TestEngineGenerateUnknownConceptFailsWithoutFallback(t *testing.T) {
	engine := NewEngine(&llmprovider.StubProvider{}, nil, nil)
	_, err := engine.Generate(context.Background(), "not_a_real_concept", 1, 0.1, "")
	require.Error(t, err)
}

// sequencedProvider returns its scripted replies in order, one per
// Complete call, regardless of the request content — enough to drive
// GenerativeEngine's three-call protocol in a test without a real LLM.
type sequencedProvider struct {
	replies []string
	calls   int
}

func (s *sequencedProvider) Name() string        { return "sequenced-stub" }
func (s *sequencedProvider) SupportsTools() bool { return false }

func (s *sequencedProvider) Complete(ctx context.Context, req *llmprovider.CompletionRequest) (<-chan *llmprovider.CompletionChunk, error) {
	var text string
	if s.calls < len(s.replies) {
		text = s.replies[s.calls]
	}
	s.calls++

	chunks := make(chan *llmprovider.CompletionChunk, 2)
	chunks <- &llmprovider.CompletionChunk{Text: text}
	chunks <- &llmprovider.CompletionChunk{Done: true}
	close(chunks)
	return chunks, nil
}
