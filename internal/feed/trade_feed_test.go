package feed_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Hugo-SEQUIER/nbbo-backend/internal/domain"
	"github.com/Hugo-SEQUIER/nbbo-backend/internal/feed"
)

type nopHub struct{}

func (nopHub) BroadcastTrade(domain.Trade) {}

// quietTradeServer upgrades the connection, consumes subscription messages
// and pings, and never sends a trade.
func quietTradeServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func TestRunReturnsOnCancelWithQuietStream(t *testing.T) {
	srv := quietTradeServer(t)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	f := feed.NewTradeFeed(wsURL, "HYPE", map[string]domain.VenueID{"HYPE": "hyperliquid"},
		nopHub{}, nil, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Run(ctx) }()

	// Let the feed connect and park inside the read loop before cancelling.
	time.Sleep(500 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
