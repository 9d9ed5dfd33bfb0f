package observability

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/eduelevate/lms/pkg/httputil"
)

// HealthHandler reports liveness and, when a database is attached, readiness
// of the storage backend.
type HealthHandler struct {
	db *sql.DB
}

// NewHealthHandler creates a health handler. db may be nil.
func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// ServeHTTP answers GET /healthz.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			httputil.WriteJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		status["database"] = "ok"
	}

	httputil.WriteJSON(w, http.StatusOK, status)
}
