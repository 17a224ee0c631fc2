package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/themecast/backend/pkg/database"
)

// HealthChecker reports database health
type HealthChecker interface {
	HealthCheck(ctx context.Context) database.HealthStatus
}

// HealthHandler serves /health
type HealthHandler struct {
	db HealthChecker
}

// NewHealthHandler creates a new health handler. db may be nil.
func NewHealthHandler(db HealthChecker) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check returns server and database health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":  "ok",
		"service": "themecast-api",
	}

	if h.db == nil {
		respondJSON(w, http.StatusOK, body)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := h.db.HealthCheck(ctx)
	body["database"] = status
	if !status.Healthy {
		body["status"] = "degraded"
		respondJSON(w, http.StatusServiceUnavailable, body)
		return
	}

	respondJSON(w, http.StatusOK, body)
}
