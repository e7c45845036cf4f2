package handlers

import (
	"net/http"
	"time"

	"taskmind/internal/api/response"
	"taskmind/internal/pipeline"
	"taskmind/internal/storage"
)

// HealthHandler reports service health. The engine being unreachable makes
// this endpoint return 503; the pipeline itself never does, it degrades.
type HealthHandler struct {
	controller *pipeline.Controller
	store      *storage.Store // nil when persistence is disabled
	startedAt  time.Time
	version    string
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(controller *pipeline.Controller, store *storage.Store, version string) *HealthHandler {
	return &HealthHandler{
		controller: controller,
		store:      store,
		startedAt:  time.Now(),
		version:    version,
	}
}

// HealthStatus is the health endpoint payload.
type HealthStatus struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks"`
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	healthy := true

	engineStatus := h.controller.HealthCheck(r.Context())
	if engineStatus.EngineHealthy {
		checks["engine"] = "ok"
	} else {
		checks["engine"] = engineStatus.EngineError
		healthy = false
	}

	if h.store != nil {
		if err := h.store.Ping(r.Context()); err != nil {
			checks["database"] = err.Error()
			healthy = false
		} else {
			checks["database"] = "ok"
		}
	}

	status := HealthStatus{
		Status:        "healthy",
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		Checks:        checks,
	}

	if !healthy {
		status.Status = "unhealthy"
		response.WriteJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	response.WriteSuccess(w, status)
}
