// Package feed maintains the upstream trade stream subscription and relays
// executions to live subscribers.
package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Hugo-SEQUIER/nbbo-backend/internal/domain"
	"github.com/Hugo-SEQUIER/nbbo-backend/internal/platform/hyperliquid"
)

const (
	reconnectDelay = 2 * time.Second

	// heartbeatEvery re-broadcasts the latest known trade when no fresh
	// trade arrived, so idle clients still see a recent print.
	heartbeatEvery = time.Minute
)

// TradeBroadcaster fans a trade event out on the trade channel.
type TradeBroadcaster interface {
	BroadcastTrade(t domain.Trade)
}

// TradeFeed subscribes to the venue trade stream, tracks the latest trade per
// coin and overall, and broadcasts the overall-latest trade whenever it
// advances. It reconnects with a fixed delay on disconnect.
type TradeFeed struct {
	wsURL       string
	symbol      domain.Symbol
	venueByCoin map[string]domain.VenueID
	hub         TradeBroadcaster
	cache       domain.NbboCache
	logger      *slog.Logger

	mu          sync.Mutex
	latestByCoin map[string]domain.Trade
	latest       *domain.Trade
	broadcastAt  time.Time
}

// NewTradeFeed creates a feed for the given coins. cache is optional.
func NewTradeFeed(wsURL string, symbol domain.Symbol, venueByCoin map[string]domain.VenueID, hub TradeBroadcaster, cache domain.NbboCache, logger *slog.Logger) *TradeFeed {
	return &TradeFeed{
		wsURL:        wsURL,
		symbol:       symbol,
		venueByCoin:  venueByCoin,
		hub:          hub,
		cache:        cache,
		logger:       logger.With(slog.String("component", "trade_feed")),
		latestByCoin: make(map[string]domain.Trade),
	}
}

// Run connects and consumes the stream until ctx is cancelled, reconnecting
// on disconnect. The heartbeat runs alongside the connection lifecycle so it
// keeps firing across reconnects.
func (f *TradeFeed) Run(ctx context.Context) error {
	if len(f.venueByCoin) == 0 {
		f.logger.Info("no coins configured, trade feed disabled")
		return nil
	}

	go f.heartbeatLoop(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := f.runConnection(ctx); err != nil && ctx.Err() == nil {
			f.logger.Warn("trade stream disconnected, reconnecting",
				slog.String("error", err.Error()),
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

func (f *TradeFeed) runConnection(ctx context.Context) error {
	client := hyperliquid.NewWSClient(f.wsURL, f.venueByCoin)
	defer client.Close()

	client.OnTrade(f.handleTrade)

	connCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	err := client.Connect(connCtx)
	cancel()
	if err != nil {
		return err
	}
	f.logger.Info("trade stream subscribed", slog.Int("coins", len(f.venueByCoin)))

	return client.Listen(ctx)
}

// handleTrade records the execution and broadcasts it only when it is now the
// most recent trade across all coins, matching the single consolidated trade
// stream clients expect.
func (f *TradeFeed) handleTrade(t domain.Trade) {
	f.mu.Lock()
	f.latestByCoin[t.Coin] = t

	advanced := f.latest == nil || t.Time.After(f.latest.Time)
	if advanced {
		f.latest = &t
		f.broadcastAt = time.Now()
	}
	f.mu.Unlock()

	if !advanced {
		return
	}

	f.hub.BroadcastTrade(t)

	if f.cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := f.cache.SetLatestTrade(ctx, f.symbol, t); err != nil {
			f.logger.Warn("trade cache update failed", slog.String("error", err.Error()))
		}
		cancel()
	}
}

// heartbeatLoop re-broadcasts the latest trade once per minute of silence.
func (f *TradeFeed) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(heartbeatEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.mu.Lock()
			var stale *domain.Trade
			if f.latest != nil && time.Since(f.broadcastAt) >= heartbeatEvery {
				stale = f.latest
				f.broadcastAt = time.Now()
			}
			f.mu.Unlock()

			if stale != nil {
				f.hub.BroadcastTrade(*stale)
				f.logger.Debug("heartbeat trade re-broadcast",
					slog.String("coin", stale.Coin),
					slog.Float64("price", stale.Price),
				)
			}
		}
	}
}

// Latest returns the most recent trade seen across all coins.
func (f *TradeFeed) Latest() (domain.Trade, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.latest == nil {
		return domain.Trade{}, false
	}
	return *f.latest, true
}
