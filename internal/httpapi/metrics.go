package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/noble-ngs/tutor-runtime/internal/orchestrator"
)

// registerOrchestratorMetrics exposes HybridOrchestrator.Stats as
// GaugeFuncs on a private registry, following the teacher's
// internal/gateway http_server.go pattern of mounting promhttp.Handler()
// on /metrics rather than relying on the global default registry.
func registerOrchestratorMetrics(orch *orchestrator.Orchestrator) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "tutor_pattern_questions_total",
		Help: "Questions served from the pattern engine.",
	}, func() float64 { return float64(orch.Stats().PatternCount) })

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "tutor_ai_questions_total",
		Help: "Questions served from the generative engine.",
	}, func() float64 { return float64(orch.Stats().AICount) })

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "tutor_question_generation_failures_total",
		Help: "Question generation attempts that returned an error.",
	}, func() float64 { return float64(orch.Stats().Failures) })

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "tutor_question_generation_last_latency_ms",
		Help: "Wall-clock latency of the most recent question generation.",
	}, func() float64 { return float64(orch.Stats().LastLatencyMs) })

	return reg
}
