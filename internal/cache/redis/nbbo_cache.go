package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Hugo-SEQUIER/nbbo-backend/internal/domain"
)

// NbboCache implements domain.NbboCache using Redis string keys holding JSON.
// Entries carry a TTL so a dead pipeline doesn't serve arbitrarily stale
// quotes after restart.
type NbboCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewNbboCache creates an NbboCache backed by the given Client. ttl <= 0
// means entries never expire.
func NewNbboCache(c *Client, ttl time.Duration) *NbboCache {
	return &NbboCache{rdb: c.Underlying(), ttl: ttl}
}

func summaryKey(symbol domain.Symbol) string {
	return "nbbo:" + string(symbol)
}

func tradeKey(symbol domain.Symbol) string {
	return "trade:" + string(symbol)
}

// SetSummary stores the latest NBBO summary for its symbol.
func (c *NbboCache) SetSummary(ctx context.Context, n domain.NbboSummary) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("redis: marshal nbbo %s: %w", n.Symbol, err)
	}
	if err := c.rdb.Set(ctx, summaryKey(n.Symbol), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set nbbo %s: %w", n.Symbol, err)
	}
	return nil
}

// GetSummary retrieves the latest NBBO summary for a symbol. Returns
// domain.ErrNotFound when the key is absent or expired.
func (c *NbboCache) GetSummary(ctx context.Context, symbol domain.Symbol) (domain.NbboSummary, error) {
	data, err := c.rdb.Get(ctx, summaryKey(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.NbboSummary{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.NbboSummary{}, fmt.Errorf("redis: get nbbo %s: %w", symbol, err)
	}

	var n domain.NbboSummary
	if err := json.Unmarshal(data, &n); err != nil {
		return domain.NbboSummary{}, fmt.Errorf("redis: unmarshal nbbo %s: %w", symbol, err)
	}
	return n, nil
}

// SetLatestTrade stores the most recent trade for a symbol.
func (c *NbboCache) SetLatestTrade(ctx context.Context, symbol domain.Symbol, t domain.Trade) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("redis: marshal trade %s: %w", symbol, err)
	}
	if err := c.rdb.Set(ctx, tradeKey(symbol), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set trade %s: %w", symbol, err)
	}
	return nil
}

// GetLatestTrade retrieves the most recent trade for a symbol. Returns
// domain.ErrNotFound when no trade has been cached.
func (c *NbboCache) GetLatestTrade(ctx context.Context, symbol domain.Symbol) (domain.Trade, error) {
	data, err := c.rdb.Get(ctx, tradeKey(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Trade{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Trade{}, fmt.Errorf("redis: get trade %s: %w", symbol, err)
	}

	var t domain.Trade
	if err := json.Unmarshal(data, &t); err != nil {
		return domain.Trade{}, fmt.Errorf("redis: unmarshal trade %s: %w", symbol, err)
	}
	return t, nil
}
