package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/muaina/portal/internal/cache"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler distinguishes critical from non-critical dependencies:
// the cache is a best-effort accelerator, so losing it only degrades the
// service; losing the database makes it unhealthy.
type HealthHandler struct {
	db    Pinger
	cache cache.Store
}

func NewHealthHandler(db Pinger, store cache.Store) *HealthHandler {
	return &HealthHandler{db: db, cache: store}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	services := map[string]string{
		"database": "connected",
		"cache":    "connected",
	}

	if h.db == nil || h.db.Ping(r.Context()) != nil {
		services["database"] = "disconnected"
	}

	if h.cache == nil || h.cache.Set(r.Context(), "health:check", time.Now().Unix(), 10*time.Second) != nil {
		services["cache"] = "disconnected"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	switch {
	case services["database"] == "disconnected":
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	case services["cache"] == "disconnected":
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":   status,
		"services": services,
	})
}
