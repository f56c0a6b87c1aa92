package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noble-ngs/tutor-runtime/internal/agents"
	"github.com/noble-ngs/tutor-runtime/internal/llmprovider"
	"github.com/noble-ngs/tutor-runtime/internal/orchestrator"
	"github.com/noble-ngs/tutor-runtime/internal/ratelimit"
	"github.com/noble-ngs/tutor-runtime/internal/sessionmemory"
	"github.com/noble-ngs/tutor-runtime/internal/supervisor"
	"github.com/noble-ngs/tutor-runtime/internal/turnrunner"
	"github.com/noble-ngs/tutor-runtime/pkg/tutor"
)

type fakePatternGen struct{}

func (fakePatternGen) Generate(ctx context.Context, patternID string) (*tutor.Question, error) {
	return &tutor.Question{QuestionID: "q1", Concept: patternID, Source: tutor.SourcePattern}, nil
}
func (fakePatternGen) List(concept string, marks *int, minDifficulty, maxDifficulty float64) []tutor.PatternTemplate {
	return nil
}

type fakeAIGen struct{}

func (fakeAIGen) Generate(ctx context.Context, concept string, marks int, difficulty float64, contextHint string) (*tutor.Question, error) {
	return &tutor.Question{QuestionID: "q2", Concept: concept, Source: tutor.SourceAI}, nil
}

func newTestServer(t *testing.T, debug bool) *Server {
	t.Helper()
	provider := &llmprovider.StubProvider{Default: "unused"}
	sup := supervisor.New(nil)
	store := sessionmemory.New(nil, nil, nil)
	tools := agents.Tools{Provider: provider}
	runner := turnrunner.New(sup, provider, tools, store, nil, time.Second, 5*time.Second)

	orch := orchestrator.New(fakePatternGen{}, fakeAIGen{}, nil, 0, 1)
	limiter := ratelimit.NewLimiter(ratelimit.Config{MaxRequests: 1000, WindowSeconds: 60, Enabled: true})
	health := Health{
		LLM:      func(ctx context.Context) bool { return true },
		Sandbox:  func(ctx context.Context) bool { return true },
		Patterns: func(ctx context.Context) bool { return true },
	}
	return New(runner, orch, limiter, debug, nil, health, nil)
}

func TestHandleChatReturnsReply(t *testing.T) {
	s := newTestServer(t, false)
	body, _ := json.Marshal(chatRequest{SessionID: "s1", Message: "hello"})
	req := httptest.NewRequest("POST", "/api/v1/chat", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "s1", resp.SessionID)
	require.NotEmpty(t, resp.Response)
	require.Empty(t, resp.RouteReason, "diagnostics hidden outside debug mode")
}

func TestHandleChatDebugIncludesDiagnostics(t *testing.T) {
	s := newTestServer(t, true)
	body, _ := json.Marshal(chatRequest{SessionID: "s2", Message: "hello"})
	req := httptest.NewRequest("POST", "/api/v1/chat", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.RouteReason)
}

func TestHandleChatRejectsEmptyMessage(t *testing.T) {
	s := newTestServer(t, false)
	body, _ := json.Marshal(chatRequest{SessionID: "s1", Message: ""})
	req := httptest.NewRequest("POST", "/api/v1/chat", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, 400, rec.Code)
}

func TestHandleGenerateQuestion(t *testing.T) {
	s := newTestServer(t, false)
	body, _ := json.Marshal(generateRequest{Concept: "quadratic_equations", Marks: 2})
	req := httptest.NewRequest("POST", "/api/v1/question/generate", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	var question tutor.Question
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &question))
	require.NotEmpty(t, question.QuestionID)
}

func TestHandleGenerateQuestionRejectsMissingConcept(t *testing.T) {
	s := newTestServer(t, false)
	body, _ := json.Marshal(generateRequest{Marks: 2})
	req := httptest.NewRequest("POST", "/api/v1/question/generate", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, 400, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, false)
	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "healthy", resp.Status)
}

func TestHandleHealthDegradedWhenComponentUnhealthy(t *testing.T) {
	s := newTestServer(t, false)
	s.health.LLM = func(ctx context.Context) bool { return false }
	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, 503, rec.Code)
}

func TestMetricsEndpointServesPrometheusFormat(t *testing.T) {
	s := newTestServer(t, false)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	require.Contains(t, rec.Body.String(), "tutor_pattern_questions_total")
}
