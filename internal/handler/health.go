package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger is a dependency that can report its health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	checks map[string]Pinger
	logger *slog.Logger
}

// NewHealthHandler creates a new health handler. checks maps a dependency
// name to its pinger; a nil pinger reports "not configured" and does not fail
// readiness.
func NewHealthHandler(checks map[string]Pinger, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &HealthHandler{
		checks: checks,
		logger: logger,
	}
}

// HealthResponse represents the health status response
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health handles GET /healthz - Simple liveness check
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready handles GET /readyz - returns 200 only if all dependencies are healthy
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.checks))
	allHealthy := true
	for name, pinger := range h.checks {
		if pinger == nil {
			checks[name] = "not configured"
			continue
		}
		if err := pinger.Ping(ctx); err != nil {
			checks[name] = "error: " + err.Error()
			allHealthy = false
			continue
		}
		checks[name] = "ok"
	}

	status := "ready"
	statusCode := http.StatusOK
	if !allHealthy {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		h.logger.Warn("readiness check failed", slog.Any("checks", checks))
	}

	writeJSON(w, statusCode, ReadinessResponse{Status: status, Checks: checks})
}
