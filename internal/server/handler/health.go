package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Hugo-SEQUIER/nbbo-backend/internal/book"
	"github.com/Hugo-SEQUIER/nbbo-backend/internal/domain"
)

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	latest *book.LatestCell
	venues []domain.VenueID
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler. latest may be consulted to report
// the age of the last successful refresh cycle.
func NewHealthHandler(latest *book.LatestCell, venues []domain.VenueID, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{latest: latest, venues: venues, logger: logger}
}

// HealthCheck responds with a JSON status indicating the server is alive and
// how stale the consolidated book is.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"venues":    h.venues,
	}
	if cb, ok := h.latest.Load(); ok {
		resp["last_cycle"] = cb.AsOf.UTC().Format(time.RFC3339)
		resp["book_age_ms"] = time.Since(cb.AsOf).Milliseconds()
		resp["venues_failed"] = cb.VenuesFailed
	}
	writeJSON(w, http.StatusOK, resp)
}
