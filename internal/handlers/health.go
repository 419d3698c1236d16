package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/respond"
)

// HealthHandler responds with service health information.
type HealthHandler struct{}

// Handle implements GET /api/v1/healthcheck.
func (HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	respond.JSON(r.Context(), w, http.StatusOK, "Ok", "Health check passed")
}
