package hyperliquid

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Hugo-SEQUIER/nbbo-backend/internal/domain"
)

func l2Server(t *testing.T, coin string, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/info" {
			t.Errorf("expected POST /info, got %s %s", r.Method, r.URL.Path)
		}
		var req infoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Type != "l2Book" {
			t.Errorf("expected type l2Book, got %q", req.Type)
		}
		if req.Coin != coin {
			t.Errorf("expected coin %q, got %q", coin, req.Coin)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestVenue_FetchOrderBook(t *testing.T) {
	srv := l2Server(t, "merrli:HYPE", http.StatusOK, `{
		"coin": "merrli:HYPE",
		"time": 1700000000000,
		"levels": [
			[{"px": "10.5", "sz": "2.0", "n": 3}, {"px": "10.4", "sz": "1.5", "n": 1}],
			[{"px": "10.6", "sz": "0.5", "n": 2}]
		]
	}`)
	defer srv.Close()

	v := NewVenue(NewClient(srv.URL), "merrli", "merrli:HYPE")

	raw, err := v.FetchOrderBook(context.Background(), "HYPE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw.Venue != "merrli" || raw.Symbol != "HYPE" {
		t.Errorf("unexpected identity: venue=%s symbol=%s", raw.Venue, raw.Symbol)
	}
	if len(raw.Bids) != 2 || len(raw.Asks) != 1 {
		t.Fatalf("expected 2 bids 1 ask, got %d/%d", len(raw.Bids), len(raw.Asks))
	}
	if raw.Bids[0].Price != 10.5 || raw.Bids[0].Size != 2.0 {
		t.Errorf("bid parse mismatch: %+v", raw.Bids[0])
	}
	if raw.Asks[0].Price != 10.6 || raw.Asks[0].Size != 0.5 {
		t.Errorf("ask parse mismatch: %+v", raw.Asks[0])
	}
}

func TestVenue_FetchOrderBook_ServerError(t *testing.T) {
	srv := l2Server(t, "HYPE", http.StatusBadGateway, `upstream error`)
	defer srv.Close()

	v := NewVenue(NewClient(srv.URL), "hyperliquid", "HYPE")

	_, err := v.FetchOrderBook(context.Background(), "HYPE")
	if !errors.Is(err, domain.ErrVenueUnavailable) {
		t.Errorf("expected ErrVenueUnavailable, got %v", err)
	}
}

func TestVenue_FetchOrderBook_UnparsableLevelsParseToZero(t *testing.T) {
	srv := l2Server(t, "HYPE", http.StatusOK, `{
		"coin": "HYPE",
		"time": 1700000000000,
		"levels": [[{"px": "garbage", "sz": "1.0", "n": 1}], []]
	}`)
	defer srv.Close()

	v := NewVenue(NewClient(srv.URL), "hyperliquid", "HYPE")

	raw, err := v.FetchOrderBook(context.Background(), "HYPE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Zero-priced levels are left for normalization to drop.
	if len(raw.Bids) != 1 || raw.Bids[0].Price != 0 {
		t.Errorf("expected zero-valued level, got %+v", raw.Bids)
	}
}
