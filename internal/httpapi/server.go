// Package httpapi exposes the tutor runtime over HTTP (spec §6): a unary
// chat endpoint, an SSE streaming chat endpoint, question generation, and
// a health check. It follows the teacher's internal/gateway http_server.go
// shape — a plain net/http.ServeMux wrapped in a small middleware chain,
// no web framework.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noble-ngs/tutor-runtime/internal/orchestrator"
	"github.com/noble-ngs/tutor-runtime/internal/ratelimit"
	"github.com/noble-ngs/tutor-runtime/internal/turnrunner"
)

// Server bundles everything the HTTP surface needs to serve requests.
type Server struct {
	runner       *turnrunner.Runner
	orchestrator *orchestrator.Orchestrator
	limiter      *ratelimit.Limiter
	logger       *slog.Logger

	debug       bool
	corsOrigins []string

	health  Health
	metrics *prometheus.Registry
}

// Health names the components the health endpoint probes.
type Health struct {
	LLM      func(ctx context.Context) bool
	Sandbox  func(ctx context.Context) bool
	Patterns func(ctx context.Context) bool
}

// New builds a Server. logger defaults to slog.Default() when nil.
func New(runner *turnrunner.Runner, orch *orchestrator.Orchestrator, limiter *ratelimit.Limiter, debug bool, corsOrigins []string, health Health, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		runner:       runner,
		orchestrator: orch,
		limiter:      limiter,
		logger:       logger,
		debug:        debug,
		corsOrigins:  corsOrigins,
		health:       health,
		metrics:      registerOrchestratorMetrics(orch),
	}
}

// Handler builds the full routed, middleware-wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/chat", s.handleChat)
	mux.HandleFunc("POST /api/v1/chat/stream", s.handleChatStream)
	mux.HandleFunc("POST /api/v1/question/generate", s.handleGenerateQuestion)
	mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{}))

	var handler http.Handler = mux
	handler = s.rateLimitMiddleware(handler)
	handler = s.corsMiddleware(handler)
	handler = s.loggingMiddleware(handler)
	return handler
}

// NewHTTPServer wraps Handler in an *http.Server with the teacher's
// ReadHeaderTimeout convention, ready for ListenAndServe.
func NewHTTPServer(addr string, s *Server) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
}
