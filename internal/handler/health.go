package handler

import (
	"net/http"
)

// EventBus reports the state of the event connection.
type EventBus interface {
	IsConnected() bool
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	events EventBus
}

// NewHealthHandler creates a new health handler. A nil bus means event
// publishing is disabled and does not affect readiness.
func NewHealthHandler(events EventBus) *HealthHandler {
	return &HealthHandler{
		events: events,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ready",
			"events": "disabled",
		})
		return
	}

	if !h.events.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "NATS not connected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"events": "connected",
	})
}
