package http

import (
	"context"
	"net/http"
	"time"

	"github.com/atinyakov/ParkPassport/internal/apperrors"
	"github.com/atinyakov/ParkPassport/internal/response"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports service readiness.
type HealthHandler struct {
	DB Pinger
}

// Health handles GET /healthz.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.DB.PingContext(ctx); err != nil {
		response.Error(w, apperrors.Storage("database unreachable", err))
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
