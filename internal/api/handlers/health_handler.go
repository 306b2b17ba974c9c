package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger is a dependency whose reachability is reported by /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness and optional dependency status.
type HealthHandler struct {
	checks map[string]Pinger
}

// NewHealthHandler creates a health handler. Dependencies are informational:
// the service stays live while a dependency is down because every external
// collaborator has a fallback.
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dependencies := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if check == nil {
			continue
		}
		if err := check.Ping(ctx); err != nil {
			dependencies[name] = "unavailable"
			continue
		}
		dependencies[name] = "ok"
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"dependencies": dependencies,
	})
}
