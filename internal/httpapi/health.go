package httpapi

import (
	"context"
	"net/http"
)

type healthResponse struct {
	Status     string          `json:"status"`
	Components map[string]bool `json:"components"`
}

// handleHealth serves GET /api/v1/health, probing each configured
// component check. A nil check is treated as healthy so a server wired
// without, say, a patterns catalog still reports overall status from
// what it does have.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := map[string]bool{
		"llm":      probe(r, s.health.LLM),
		"sandbox":  probe(r, s.health.Sandbox),
		"patterns": probe(r, s.health.Patterns),
	}

	status := "healthy"
	statusCode := http.StatusOK
	for _, healthy := range components {
		if !healthy {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
			break
		}
	}

	writeJSON(w, statusCode, healthResponse{Status: status, Components: components})
}

func probe(r *http.Request, check func(ctx context.Context) bool) bool {
	if check == nil {
		return true
	}
	return check(r.Context())
}
