package handler_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Hugo-SEQUIER/nbbo-backend/internal/candle"
	"github.com/Hugo-SEQUIER/nbbo-backend/internal/domain"
	"github.com/Hugo-SEQUIER/nbbo-backend/internal/server/handler"
)

type emptyStore struct{}

func (emptyStore) Append(ctx context.Context, snap domain.Snapshot) error { return nil }

func (emptyStore) QueryRange(ctx context.Context, symbol domain.Symbol, from, to time.Time) ([]domain.Snapshot, error) {
	return nil, nil
}

func (emptyStore) QueryBefore(ctx context.Context, cutoff time.Time) ([]domain.Snapshot, error) {
	return nil, nil
}

func (emptyStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func chartMux(t *testing.T) *http.ServeMux {
	t.Helper()
	h := handler.NewChartHandler(candle.NewBuilder(emptyStore{}), "HYPE", slog.New(slog.DiscardHandler))
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/chart/{symbol}", h.GetChart)
	return mux
}

func TestGetChartRejectsUnknownSymbol(t *testing.T) {
	mux := chartMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chart/NOSUCHCOIN", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusBadRequest, rec.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body["error"] == "" {
		t.Fatal("expected an error message in the response body")
	}
}

func TestGetChartServesConfiguredSymbol(t *testing.T) {
	mux := chartMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chart/HYPE?timeframe=5m", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	var body struct {
		Symbol    string `json:"symbol"`
		Timeframe string `json:"timeframe"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Symbol != "HYPE" || body.Timeframe != "5m" {
		t.Fatalf("got symbol=%q timeframe=%q", body.Symbol, body.Timeframe)
	}
}
