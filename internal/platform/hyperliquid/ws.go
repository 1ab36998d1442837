package hyperliquid

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Hugo-SEQUIER/nbbo-backend/internal/domain"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10
)

// TradeHandler is called for each execution received on the trades stream.
type TradeHandler func(domain.Trade)

// WSClient consumes the Hyperliquid trades stream for a set of coins. The
// caller owns the reconnect policy; one WSClient represents one connection.
type WSClient struct {
	wsURL   string
	venueBy map[string]domain.VenueID // coin -> venue

	mu      sync.Mutex
	conn    *websocket.Conn
	onTrade TradeHandler

	done      chan struct{}
	closeOnce sync.Once
}

// NewWSClient creates a client for the given WebSocket endpoint. venueByCoin
// maps each subscribed coin to its venue identifier; trades for unmapped
// coins are ignored.
func NewWSClient(wsURL string, venueByCoin map[string]domain.VenueID) *WSClient {
	return &WSClient{
		wsURL:   wsURL,
		venueBy: venueByCoin,
		done:    make(chan struct{}),
	}
}

// OnTrade registers the trade handler. Must be called before Connect.
func (w *WSClient) OnTrade(h TradeHandler) {
	w.onTrade = h
}

// Connect dials the endpoint, subscribes to trades for every mapped coin, and
// starts the read and ping loops.
func (w *WSClient) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return fmt.Errorf("hyperliquid/ws: connect: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	w.mu.Lock()
	w.conn = conn
	w.mu.Unlock()

	for coin := range w.venueBy {
		sub := wsSubscription{
			Method:       "subscribe",
			Subscription: map[string]any{"type": "trades", "coin": coin},
		}
		if err := w.writeJSON(sub); err != nil {
			conn.Close()
			return fmt.Errorf("hyperliquid/ws: subscribe %s: %w", coin, err)
		}
	}

	go w.pingLoop(conn)
	return nil
}

// Listen reads the stream and dispatches trades until the connection drops,
// Close is called, or ctx is cancelled.
func (w *WSClient) Listen(ctx context.Context) error {
	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("hyperliquid/ws: not connected")
	}

	// ReadMessage blocks until the connection closes, so a watcher tears the
	// connection down on cancellation to unblock it.
	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-stopped:
			return
		case <-ctx.Done():
		case <-w.done:
		}
		conn.Close()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			select {
			case <-w.done:
				return nil
			default:
			}
			return fmt.Errorf("hyperliquid/ws: read: %w", err)
		}

		var msg wsMessage
		if err := json.Unmarshal(payload, &msg); err != nil || msg.Channel != "trades" {
			continue
		}
		for _, t := range msg.Data {
			venue, ok := w.venueBy[t.Coin]
			if !ok {
				continue
			}
			price, _ := strconv.ParseFloat(t.Px, 64)
			size, _ := strconv.ParseFloat(t.Sz, 64)
			if price <= 0 || size <= 0 {
				continue
			}
			if w.onTrade != nil {
				w.onTrade(domain.Trade{
					Venue:   venue,
					Coin:    t.Coin,
					Price:   price,
					Size:    size,
					Side:    domain.TradeSide(t.Side),
					Time:    time.UnixMilli(t.Time).UTC(),
					TradeID: t.Tid,
				})
			}
		}
	}
}

func (w *WSClient) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(wsPingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (w *WSClient) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.conn.WriteJSON(v)
}

// Close shuts the connection down. Safe to call more than once.
func (w *WSClient) Close() {
	w.closeOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		if w.conn != nil {
			w.conn.Close()
		}
		w.mu.Unlock()
	})
}
