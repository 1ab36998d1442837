package ws

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize is the maximum size of an incoming message. Clients
	// only ever send pongs and the occasional keepalive text.
	maxMessageSize = 1024
)

// upgrader configures the WebSocket upgrade parameters. All origins are
// allowed, matching the open CORS policy of the REST surface.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandlePrices upgrades the request and attaches the client to the price
// channel.
// GET /ws/prices
func (h *Hub) HandlePrices(w http.ResponseWriter, r *http.Request) {
	h.handleWS(w, r, PriceChannel)
}

// HandleTrades upgrades the request and attaches the client to the trade
// channel.
// GET /ws/trades
func (h *Hub) HandleTrades(w http.ResponseWriter, r *http.Request) {
	h.handleWS(w, r, TradeChannel)
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request, ch Channel) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws: upgrade failed", slog.String("error", err.Error()))
		return
	}

	sub := h.Subscribe(ch)

	if frame := statusFrame(ch, h.Count()); frame != nil {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteMessage(websocket.TextMessage, frame)
	}

	go h.writePump(sub, conn)
	go h.readPump(sub, conn)
}

// writePump pumps messages from the subscriber's queue to the WebSocket
// connection and sends periodic pings for keepalive. It exits when the hub
// drops the subscriber.
func (h *Hub) writePump(sub *Subscriber, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case <-sub.Done():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case msg := <-sub.Out():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.Unsubscribe(sub)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.Unsubscribe(sub)
				return
			}
		}
	}
}

// readPump consumes frames from the client. The subscriber streams are
// server-push only, so inbound payloads are discarded; the pump exists to
// process control frames and detect disconnects.
func (h *Hub) readPump(sub *Subscriber, conn *websocket.Conn) {
	defer func() {
		h.Unsubscribe(sub)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("ws: unexpected close",
					slog.String("id", sub.ID().String()),
					slog.String("error", err.Error()),
				)
			}
			return
		}
	}
}
