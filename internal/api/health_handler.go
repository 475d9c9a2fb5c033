package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/taskmaster-api/internal/api/shared"
	"github.com/phrazzld/taskmaster-api/internal/platform/logger"
	"github.com/phrazzld/taskmaster-api/internal/redact"
)

// Pinger reports whether the database is reachable. *sqlx.DB implements it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

const healthPingTimeout = 2 * time.Second

// HealthHandler serves GET /health.
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health answers 200 "OK" when the database answers a ping, 503 otherwise.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		logger.FromContextOrDefault(r.Context(), slog.Default()).
			Warn("health check failed", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
