package handler

import (
	"net/http"
	"strconv"

	"github.com/Rrens/clinic-assistant/internal/api/response"
	"github.com/Rrens/clinic-assistant/internal/service"
)

// HealthHandler serves the health endpoint
type HealthHandler struct {
	healthService *service.HealthService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(healthService *service.HealthService) *HealthHandler {
	return &HealthHandler{healthService: healthService}
}

// Check reports configured backends; ?detailed=true also probes them.
// It always answers 200.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	detailed, _ := strconv.ParseBool(r.URL.Query().Get("detailed"))
	response.OK(w, h.healthService.Check(r.Context(), detailed))
}
