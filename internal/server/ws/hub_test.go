package ws_test

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Hugo-SEQUIER/nbbo-backend/internal/server/ws"
)

func newHub(queue int) *ws.Hub {
	return ws.NewHub(queue, slog.New(slog.DiscardHandler))
}

func drain(s *ws.Subscriber) [][]byte {
	var out [][]byte
	for {
		select {
		case msg := <-s.Out():
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestPublishPrice_LatestWinsEviction(t *testing.T) {
	h := newHub(2)
	sub := h.Subscribe(ws.PriceChannel)

	h.PublishPrice([]byte("book-1"))
	h.PublishPrice([]byte("book-2"))
	h.PublishPrice([]byte("book-3")) // queue full, book-1 evicted

	msgs := drain(sub)
	if len(msgs) != 2 {
		t.Fatalf("expected queue depth 2, got %d messages", len(msgs))
	}
	if !bytes.Equal(msgs[len(msgs)-1], []byte("book-3")) {
		t.Errorf("newest message must survive, got %s", msgs[len(msgs)-1])
	}
	for _, m := range msgs {
		if bytes.Equal(m, []byte("book-1")) {
			t.Error("oldest message must have been evicted")
		}
	}
}

func TestPublishPrice_SlowSubscriberDoesNotBlockOthers(t *testing.T) {
	h := newHub(1)
	slow := h.Subscribe(ws.PriceChannel)
	fast := h.Subscribe(ws.PriceChannel)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			h.PublishPrice([]byte(fmt.Sprintf("book-%d", i)))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish loop blocked on a slow subscriber")
	}

	// The slow subscriber never read: its queue holds only the newest.
	msgs := drain(slow)
	if len(msgs) != 1 || !bytes.Equal(msgs[0], []byte("book-99")) {
		t.Errorf("slow subscriber should hold only the newest message, got %v", msgs)
	}
	if got := drain(fast); len(got) != 1 {
		t.Errorf("fast subscriber queue depth 1 should hold 1 message, got %d", len(got))
	}

	if h.Count() != 2 {
		t.Errorf("price subscribers must never be disconnected for being slow, count=%d", h.Count())
	}
}

func TestPublishTrade_OverflowDisconnects(t *testing.T) {
	h := newHub(2)
	sub := h.Subscribe(ws.TradeChannel)

	h.PublishTrade([]byte("t1"))
	h.PublishTrade([]byte("t2"))
	h.PublishTrade([]byte("t3")) // queue full, subscriber dropped

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("overflowed trade subscriber must have Done closed")
	}
	if h.Count() != 0 {
		t.Errorf("overflowed subscriber must be removed from the hub, count=%d", h.Count())
	}

	// The queued trades before the overflow are still readable.
	msgs := drain(sub)
	if len(msgs) != 2 {
		t.Errorf("expected the 2 queued trades to remain, got %d", len(msgs))
	}
}

func TestPublishTrade_KeepsUpSubscriber(t *testing.T) {
	h := newHub(4)
	sub := h.Subscribe(ws.TradeChannel)

	for i := 0; i < 3; i++ {
		h.PublishTrade([]byte(fmt.Sprintf("t%d", i)))
	}

	msgs := drain(sub)
	if len(msgs) != 3 {
		t.Fatalf("expected 3 trades, got %d", len(msgs))
	}
	// Producer order is preserved.
	for i, m := range msgs {
		if want := fmt.Sprintf("t%d", i); !bytes.Equal(m, []byte(want)) {
			t.Errorf("message %d: expected %s, got %s", i, want, m)
		}
	}
	select {
	case <-sub.Done():
		t.Error("subscriber that keeps up must not be disconnected")
	default:
	}
}

func TestChannelsAreIsolated(t *testing.T) {
	h := newHub(4)
	price := h.Subscribe(ws.PriceChannel)
	trade := h.Subscribe(ws.TradeChannel)

	h.PublishPrice([]byte("book"))
	h.PublishTrade([]byte("trade"))

	if msgs := drain(price); len(msgs) != 1 || !bytes.Equal(msgs[0], []byte("book")) {
		t.Errorf("price subscriber got %v", msgs)
	}
	if msgs := drain(trade); len(msgs) != 1 || !bytes.Equal(msgs[0], []byte("trade")) {
		t.Errorf("trade subscriber got %v", msgs)
	}
}

func TestUnsubscribe_Idempotent(t *testing.T) {
	h := newHub(4)
	sub := h.Subscribe(ws.PriceChannel)

	h.Unsubscribe(sub)
	h.Unsubscribe(sub)
	h.Unsubscribe(nil)

	if h.Count() != 0 {
		t.Errorf("expected empty hub, count=%d", h.Count())
	}
	select {
	case <-sub.Done():
	default:
		t.Error("Done must be closed after Unsubscribe")
	}
}

func TestUnsubscribe_ConcurrentWithPublish(t *testing.T) {
	h := newHub(1)

	var subs []*ws.Subscriber
	for i := 0; i < 32; i++ {
		subs = append(subs, h.Subscribe(ws.PriceChannel))
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			h.PublishPrice([]byte("book"))
		}
	}()
	go func() {
		defer wg.Done()
		for _, s := range subs {
			h.Unsubscribe(s)
			h.Unsubscribe(s)
		}
	}()
	wg.Wait()

	if h.Count() != 0 {
		t.Errorf("expected all subscribers removed, count=%d", h.Count())
	}
}
