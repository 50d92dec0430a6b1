package http

import (
	"context"
	"net/http"
	"time"

	"github.com/tuanvumaihuynh/inventory-sale/internal/apperr"
	"github.com/tuanvumaihuynh/inventory-sale/internal/storage/db"
)

const healthCheckTimeout = 2 * time.Second

type healthHandler struct {
	checker db.HealthChecker
}

func newHealthHandler(checker db.HealthChecker) *healthHandler {
	return &healthHandler{checker: checker}
}

func (h *healthHandler) Health(w http.ResponseWriter, r *http.Request) error {
	if h.checker != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		if healthy, err := h.checker.IsHealthy(ctx); !healthy || err != nil {
			return apperr.StorageFailureErr.WrapParent(err)
		}
	}

	return writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}
