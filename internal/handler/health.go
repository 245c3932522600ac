package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/traction/internal/apperror"
)

// Pinger is the slice of the storage layer the health check needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports whether the server can reach its store.
//
// A failing probe answers 503 rather than a generic 500, so a load balancer
// or operator can tell "store unreachable" apart from an application bug.
type HealthHandler struct {
	store  Pinger
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(store Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		store:  store,
		logger: logger,
	}
}

// HandleHealth probes the store.
//
// HTTP: GET /healthz
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Error("health check: store unreachable", slog.String("error", err.Error()))
		writeError(w, apperror.Unavailable("storage backend unreachable"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
