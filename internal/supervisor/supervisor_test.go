package supervisor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noble-ngs/tutor-runtime/pkg/tutor"
)

func TestRouteSlashCommand(t *testing.T) {
	s := New(nil)
	decision, err := s.Route(context.Background(), "/spark quadratics", nil, "")
	require.NoError(t, err)
	require.Equal(t, tutor.AgentChallenge, decision.Target)
	require.Equal(t, tutor.RouteSourceSlash, decision.Source)
	require.Equal(t, 1.0, decision.Confidence)
}

func TestRouteClosureDetection(t *testing.T) {
	s := New(nil)
	decision, err := s.Route(context.Background(), "bye", nil, "")
	require.NoError(t, err)
	require.Equal(t, tutor.AgentFinish, decision.Target)

	decision, err = s.Route(context.Background(), "ok that's all for today", nil, "")
	require.NoError(t, err)
	require.Equal(t, tutor.AgentFinish, decision.Target)
}

func TestRouteThankYouNeverFinishes(t *testing.T) {
	s := New(nil)
	decision, err := s.Route(context.Background(), "thank you so much!", nil, "")
	require.NoError(t, err)
	require.NotEqual(t, tutor.AgentFinish, decision.Target)
	require.Equal(t, tutor.AgentTeach, decision.Target)
}

func TestRouteStressVocabularyGoesToWellbeing(t *testing.T) {
	s := New(nil)
	decision, err := s.Route(context.Background(), "I'm so anxious about my exam", nil, "")
	require.NoError(t, err)
	require.Equal(t, tutor.AgentWellbeing, decision.Target)
}

func TestRoutePracticeRequest(t *testing.T) {
	s := New(nil)
	decision, err := s.Route(context.Background(), "can I get a practice question", nil, "")
	require.NoError(t, err)
	require.Equal(t, tutor.AgentPractice, decision.Target)
}

func TestRouteForceAgentOverridesEverything(t *testing.T) {
	s := New(nil)
	decision, err := s.Route(context.Background(), "bye", nil, "plan")
	require.NoError(t, err)
	require.Equal(t, tutor.AgentPlan, decision.Target)
}

func TestRouteUnrecognizedMessageFallsBackToTeachWithoutProvider(t *testing.T) {
	s := New(nil)
	decision, err := s.Route(context.Background(), "explain the quadratic formula to me please", nil, "")
	require.NoError(t, err)
	require.Equal(t, tutor.AgentTeach, decision.Target)
	require.Equal(t, tutor.RouteSourceDefault, decision.Source)
}
