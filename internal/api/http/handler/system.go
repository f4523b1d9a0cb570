package handler

import (
	"context"
	"net/http"

	"github.com/minicrm/server/internal/logger"
)

// Pinger reports storage health for the readiness endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// System handles the root and health endpoints.
type System struct {
	pinger Pinger
	logger *logger.Logger
}

// NewSystem creates a new System handler.
func NewSystem(pinger Pinger, logger *logger.Logger) *System {
	return &System{pinger: pinger, logger: logger}
}

// Root answers a small welcome payload.
// GET /
func (h *System) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to Mini CRM API",
	})
}

// Healthz reports whether the database is reachable.
// GET /healthz
func (h *System) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.pinger.Ping(r.Context()); err != nil {
		h.logger.Error("System handler: database ping failed",
			"error", err.Error())
		writeMessage(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeMessage(w, http.StatusOK, "ok")
}
