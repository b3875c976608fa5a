package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/civicpulse/grievance-server/internal/models"
	"go.uber.org/zap"
)

// Version is reported by the health endpoints
const Version = "1.0.0"

var startTime = time.Now()

// Pinger reports whether a backing service is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides health check endpoints
type HealthHandler struct {
	db     Pinger
	cache  Pinger
	logger *zap.SugaredLogger
}

// NewHealthHandler creates a new health handler. db is nil on the in-memory
// store and cache is nil when Redis is not configured.
func NewHealthHandler(db, cache Pinger, logger *zap.SugaredLogger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, logger: logger}
}

// Check handles GET /health (liveness probe)
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.HealthStatus{
		Status:  "ok",
		Version: Version,
		Uptime:  time.Since(startTime).Round(time.Second).String(),
	})
}

// Ready handles GET /health/ready (readiness probe). The database gates
// readiness; a lost cache only degrades it.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := models.HealthStatus{
		Status:  "ready",
		Version: Version,
		Uptime:  time.Since(startTime).Round(time.Second).String(),
		Checks:  map[string]string{"database": "memory"},
	}
	code := http.StatusOK

	if h.db != nil {
		status.Checks["database"] = "connected"
		if err := h.db.Ping(ctx); err != nil {
			h.logger.Warnw("Readiness ping failed", "dependency", "database", "error", err)
			status.Checks["database"] = "disconnected"
			status.Status = "not ready"
			code = http.StatusServiceUnavailable
		}
	}
	if h.cache != nil {
		status.Checks["cache"] = "connected"
		if err := h.cache.Ping(ctx); err != nil {
			h.logger.Warnw("Readiness ping failed", "dependency", "cache", "error", err)
			status.Checks["cache"] = "disconnected"
			if code == http.StatusOK {
				status.Status = "degraded"
			}
		}
	}

	respondJSON(w, code, status)
}
