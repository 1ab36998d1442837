package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Hugo-SEQUIER/nbbo-backend/internal/candle"
	"github.com/Hugo-SEQUIER/nbbo-backend/internal/domain"
)

// defaultCandleCount bounds how far back a chart request reaches when the
// caller does not pass an explicit from.
const defaultCandleCount = 500

// ChartHandler serves candle series derived from stored snapshots. Only the
// configured symbol is served; anything else is rejected rather than answered
// with an empty series.
type ChartHandler struct {
	builder *candle.Builder
	symbol  domain.Symbol
	logger  *slog.Logger
}

// NewChartHandler creates a ChartHandler backed by the given builder.
func NewChartHandler(builder *candle.Builder, symbol domain.Symbol, logger *slog.Logger) *ChartHandler {
	return &ChartHandler{builder: builder, symbol: symbol, logger: logger}
}

// GetChart returns OHLC candles for a symbol and timeframe.
// GET /api/chart/{symbol}?timeframe=1m&from=<RFC3339|unix>&to=<RFC3339|unix>
func (h *ChartHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	symbol := domain.Symbol(r.PathValue("symbol"))
	if symbol != h.symbol {
		writeError(w, http.StatusBadRequest, domain.ErrInvalidSymbol.Error()+": "+strconv.Quote(string(symbol)))
		return
	}

	q := r.URL.Query()

	tfRaw := q.Get("timeframe")
	if tfRaw == "" {
		tfRaw = "1m"
	}
	tf, err := domain.ParseTimeframe(tfRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid timeframe "+strconv.Quote(tfRaw)+" (valid: 1m, 5m, 15m, 1h, 4h, 1d)")
		return
	}

	to := time.Now().UTC()
	if v := q.Get("to"); v != "" {
		t, perr := parseTime(v)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "invalid to: "+perr.Error())
			return
		}
		to = t
	}

	from := to.Add(-time.Duration(defaultCandleCount) * tf.Duration())
	if v := q.Get("from"); v != "" {
		t, perr := parseTime(v)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "invalid from: "+perr.Error())
			return
		}
		from = t
	}
	if !from.Before(to) {
		writeError(w, http.StatusBadRequest, "from must be before to")
		return
	}

	candles, err := h.builder.Build(r.Context(), symbol, tf, from, to)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTimeframe) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		logHandler(h.logger, "chart").ErrorContext(r.Context(), "candle build failed",
			slog.String("symbol", string(symbol)),
			slog.String("timeframe", string(tf)),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to build candles")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"symbol":    symbol,
		"timeframe": tf,
		"from":      from.UTC().Format(time.RFC3339),
		"to":        to.UTC().Format(time.RFC3339),
		"candles":   candles,
	})
}

// parseTime accepts RFC3339 timestamps or integer unix seconds.
func parseTime(s string) (time.Time, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(n, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
