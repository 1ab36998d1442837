package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Hugo-SEQUIER/nbbo-backend/internal/book"
	"github.com/Hugo-SEQUIER/nbbo-backend/internal/domain"
)

// BookHandler serves the consolidated order book and NBBO summary endpoints.
// Reads come from the in-memory latest cell; the Redis cache, when configured,
// is only a fallback for the summary before the first refresh cycle lands.
type BookHandler struct {
	latest *book.LatestCell
	cache  domain.NbboCache // may be nil
	symbol domain.Symbol
	logger *slog.Logger
}

// NewBookHandler creates a BookHandler. cache may be nil.
func NewBookHandler(latest *book.LatestCell, cache domain.NbboCache, symbol domain.Symbol, logger *slog.Logger) *BookHandler {
	return &BookHandler{latest: latest, cache: cache, symbol: symbol, logger: logger}
}

// GetOrderBook returns the most recent consolidated book.
// GET /api/orderbook
func (h *BookHandler) GetOrderBook(w http.ResponseWriter, r *http.Request) {
	cb, ok := h.latest.Load()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no consolidated book yet")
		return
	}
	nbbo := cb.NBBO()
	writeJSON(w, http.StatusOK, map[string]any{
		"book": cb,
		"nbbo": nbbo,
		"metadata": map[string]any{
			"crossed":         nbbo.Crossed(),
			"venues_included": len(cb.VenuesIncluded),
			"venues_failed":   len(cb.VenuesFailed),
		},
	})
}

// GetNbbo returns just the top-of-book summary, plus the last trade seen
// when the cache holds one.
// GET /api/nbbo
func (h *BookHandler) GetNbbo(w http.ResponseWriter, r *http.Request) {
	if cb, ok := h.latest.Load(); ok {
		h.writeNbbo(w, r, cb.NBBO())
		return
	}

	if h.cache != nil {
		nbbo, err := h.cache.GetSummary(r.Context(), h.symbol)
		if err == nil {
			h.writeNbbo(w, r, nbbo)
			return
		}
		if !errors.Is(err, domain.ErrNotFound) {
			logHandler(h.logger, "nbbo").WarnContext(r.Context(), "cache read failed",
				slog.String("error", err.Error()),
			)
		}
	}

	writeError(w, http.StatusServiceUnavailable, "no nbbo yet")
}

func (h *BookHandler) writeNbbo(w http.ResponseWriter, r *http.Request, nbbo domain.NbboSummary) {
	resp := map[string]any{
		"nbbo":    nbbo,
		"crossed": nbbo.Crossed(),
	}
	if h.cache != nil {
		if trade, err := h.cache.GetLatestTrade(r.Context(), h.symbol); err == nil {
			resp["last_trade"] = trade
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
