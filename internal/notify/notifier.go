// Package notify delivers operator alerts over one or more channels
// (Telegram, Discord). Only total failures escalate here: per-venue and
// per-subscriber problems stay in the logs.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Sender is the interface each notification channel implements.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender.
	Name() string
}

// Notifier dispatches alerts to all registered senders, filtered by event
// type and throttled so a flapping condition cannot flood the channels.
type Notifier struct {
	senders  []Sender
	events   map[string]bool // allowed event types; empty allows all
	throttle time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	lastSent map[string]time.Time // per event type
}

// NewNotifier creates a Notifier. Only events named in events pass the
// filter; an empty list allows everything. At most one alert per event type
// is sent per throttle window (throttle <= 0 disables throttling).
func NewNotifier(senders []Sender, events []string, throttle time.Duration, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders:  senders,
		events:   allowed,
		throttle: throttle,
		logger:   logger.With(slog.String("component", "notifier")),
		lastSent: make(map[string]time.Time),
	}
}

// Alert sends a notification for the given event type, subject to the event
// filter and the per-event throttle. Sender failures are logged, never
// propagated; alerting is best effort.
func (n *Notifier) Alert(ctx context.Context, event, title, message string) {
	if len(n.senders) == 0 {
		return
	}
	if len(n.events) > 0 && !n.events[event] {
		return
	}

	n.mu.Lock()
	if n.throttle > 0 {
		if last, ok := n.lastSent[event]; ok && time.Since(last) < n.throttle {
			n.mu.Unlock()
			return
		}
	}
	n.lastSent[event] = time.Now()
	n.mu.Unlock()

	n.dispatch(ctx, title, message)
}

// dispatch sends to every sender; one sender failing does not prevent
// delivery to the rest.
func (n *Notifier) dispatch(ctx context.Context, title, message string) {
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			continue
		}
		n.logger.DebugContext(ctx, "alert delivered",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}
}

// checkStatus validates a webhook-style HTTP response code.
func checkStatus(name string, code int) error {
	if code < 200 || code >= 300 {
		return fmt.Errorf("%s: unexpected status %d", name, code)
	}
	return nil
}
