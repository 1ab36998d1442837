// Package ws implements the broadcast hub and its WebSocket transport. The
// hub itself is transport-agnostic: subscribers are handles with a bounded
// outbound queue, and the WebSocket client type in client.go pumps those
// queues over gorilla/websocket connections.
package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Hugo-SEQUIER/nbbo-backend/internal/domain"
)

// Channel selects which stream a subscriber receives. The two channels carry
// different delivery semantics and must not be conflated: the price channel
// is lossy latest-wins, the trade channel disconnects slow consumers.
type Channel int

const (
	// PriceChannel delivers the consolidated book every refresh cycle. When
	// a subscriber's queue is full the oldest queued message is dropped in
	// favor of the newest; clients always want freshest state.
	PriceChannel Channel = iota

	// TradeChannel delivers discrete trade events. Every event matters, so a
	// subscriber that cannot keep up is disconnected rather than silently
	// losing trades.
	TradeChannel
)

func (c Channel) String() string {
	if c == TradeChannel {
		return "trades"
	}
	return "prices"
}

// Subscriber is one live connection's handle. Messages arrive on Out in
// producer order; Done is closed when the hub has dropped the subscriber.
type Subscriber struct {
	id        uuid.UUID
	channel   Channel
	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// ID returns the connection identifier.
func (s *Subscriber) ID() uuid.UUID { return s.id }

// Channel returns which stream this subscriber receives.
func (s *Subscriber) Channel() Channel { return s.channel }

// Out is the subscriber's bounded outbound queue.
func (s *Subscriber) Out() <-chan []byte { return s.out }

// Done is closed once the subscriber has been removed from the hub.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

// Hub fans the latest consolidated book and the live trade stream out to all
// current subscribers. Subscribe and Unsubscribe serialize against iteration
// during publish; unsubscribing concurrently with an in-flight publish is
// safe, and a publish to a just-removed subscriber is a no-op.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]*Subscriber
	queue  int
	logger *slog.Logger
}

// NewHub creates a hub whose subscribers each get an outbound queue of
// queueDepth messages.
func NewHub(queueDepth int, logger *slog.Logger) *Hub {
	if queueDepth <= 0 {
		queueDepth = 16
	}
	return &Hub{
		subs:   make(map[uuid.UUID]*Subscriber),
		queue:  queueDepth,
		logger: logger.With(slog.String("component", "hub")),
	}
}

// Subscribe registers a new connection on the given channel and returns its
// handle.
func (h *Hub) Subscribe(ch Channel) *Subscriber {
	s := &Subscriber{
		id:      uuid.New(),
		channel: ch,
		out:     make(chan []byte, h.queue),
		done:    make(chan struct{}),
	}

	h.mu.Lock()
	h.subs[s.id] = s
	total := len(h.subs)
	h.mu.Unlock()

	h.logger.Info("subscriber connected",
		slog.String("id", s.id.String()),
		slog.String("channel", ch.String()),
		slog.Int("total", total),
	)
	return s
}

// Unsubscribe removes a subscriber and signals its Done channel. Idempotent
// and safe to call concurrently with a publish; the queue is left open so a
// late send parks in the buffer and is garbage collected with the handle.
func (h *Hub) Unsubscribe(s *Subscriber) {
	if s == nil {
		return
	}

	h.mu.Lock()
	_, present := h.subs[s.id]
	delete(h.subs, s.id)
	total := len(h.subs)
	h.mu.Unlock()

	s.closeOnce.Do(func() { close(s.done) })

	if present {
		h.logger.Info("subscriber disconnected",
			slog.String("id", s.id.String()),
			slog.String("channel", s.channel.String()),
			slog.Int("total", total),
		)
	}
}

// Count returns the number of live subscribers across both channels.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// PublishPrice offers msg to every price-channel subscriber independently.
// A full queue never blocks delivery to other subscribers: the oldest queued
// message for that subscriber is evicted to make room for the newest.
func (h *Hub) PublishPrice(msg []byte) {
	for _, s := range h.snapshot(PriceChannel) {
		h.offerLatest(s, msg)
	}
}

// PublishTrade offers msg to every trade-channel subscriber independently. A
// subscriber whose queue is full is disconnected; trades are never silently
// dropped.
func (h *Hub) PublishTrade(msg []byte) {
	for _, s := range h.snapshot(TradeChannel) {
		select {
		case s.out <- msg:
		default:
			h.logger.Warn("trade subscriber overloaded, disconnecting",
				slog.String("id", s.id.String()),
				slog.String("error", domain.ErrSubscriberOverload.Error()),
			)
			h.Unsubscribe(s)
		}
	}
}

// snapshot copies the current subscriber set for one channel so publishing
// iterates without holding the lock.
func (h *Hub) snapshot(ch Channel) []*Subscriber {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		if s.channel == ch {
			out = append(out, s)
		}
	}
	return out
}

// offerLatest enqueues msg, evicting the oldest queued message while the
// queue is full. The eviction loop is bounded in practice by the queue depth;
// the reader draining concurrently only makes room sooner.
func (h *Hub) offerLatest(s *Subscriber, msg []byte) {
	for {
		select {
		case s.out <- msg:
			return
		default:
		}
		select {
		case <-s.out:
		default:
		}
	}
}

// priceEnvelope is the JSON frame sent on the price channel. Field layout
// follows the snapshot payloads the frontend already consumes; additions are
// safe, removals are not.
type priceEnvelope struct {
	Type     string                   `json:"type"`
	Data     *domain.ConsolidatedBook `json:"data"`
	Metadata priceMetadata            `json:"metadata"`
}

type priceMetadata struct {
	Nbbo           domain.NbboSummary `json:"nbbo"`
	Crossed        bool               `json:"crossed"`
	VenuesIncluded int                `json:"venues_included"`
	VenuesFailed   int                `json:"venues_failed"`
}

type tradeEnvelope struct {
	Type string       `json:"type"`
	Data domain.Trade `json:"data"`
}

// BroadcastBook encodes the consolidated book once and fans it out on the
// price channel.
func (h *Hub) BroadcastBook(cb *domain.ConsolidatedBook) {
	nbbo := cb.NBBO()
	msg, err := json.Marshal(priceEnvelope{
		Type: "aggregated_order_book",
		Data: cb,
		Metadata: priceMetadata{
			Nbbo:           nbbo,
			Crossed:        nbbo.Crossed(),
			VenuesIncluded: len(cb.VenuesIncluded),
			VenuesFailed:   len(cb.VenuesFailed),
		},
	})
	if err != nil {
		h.logger.Error("encode book broadcast", slog.String("error", err.Error()))
		return
	}
	h.PublishPrice(msg)
}

// BroadcastTrade encodes a trade event once and fans it out on the trade
// channel.
func (h *Hub) BroadcastTrade(t domain.Trade) {
	msg, err := json.Marshal(tradeEnvelope{Type: "trade", Data: t})
	if err != nil {
		h.logger.Error("encode trade broadcast", slog.String("error", err.Error()))
		return
	}
	h.PublishTrade(msg)
}

// Uptime helpers used by the status frame on connect.
var startedAt = time.Now().UTC()

// statusFrame is sent once on connect so clients can mark the stream healthy
// before the first market event arrives.
func statusFrame(ch Channel, total int) []byte {
	msg, err := json.Marshal(map[string]any{
		"type": "status",
		"payload": map[string]any{
			"channel":        ch.String(),
			"connected":      true,
			"subscribers":    total,
			"uptime_seconds": int64(time.Since(startedAt).Seconds()),
		},
	})
	if err != nil {
		return nil
	}
	return msg
}
