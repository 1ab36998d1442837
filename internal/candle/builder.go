// Package candle reconstructs OHLC series from persisted NBBO snapshots.
package candle

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Hugo-SEQUIER/nbbo-backend/internal/domain"
)

// Builder computes candles on demand from the snapshot store. It keeps no
// state between calls; the same stored snapshots always yield the same bars.
type Builder struct {
	store domain.SnapshotStore
}

// NewBuilder creates a Builder reading from the given store.
func NewBuilder(store domain.SnapshotStore) *Builder {
	return &Builder{store: store}
}

// Build partitions the snapshots for symbol in [from, to) into buckets of the
// timeframe's width, aligned to the Unix epoch (bucket boundaries are
// multiples of the timeframe, not offsets of from). Within a bucket, open and
// close come from the mid-price of the earliest and latest snapshot, high and
// low from the extremes across the bucket. Buckets with no usable snapshot
// produce no candle; gaps are omitted, never zero-filled. Results are ordered
// ascending by open time.
func (b *Builder) Build(ctx context.Context, symbol domain.Symbol, tf domain.Timeframe, from, to time.Time) ([]domain.Candle, error) {
	width := tf.Duration()
	if width <= 0 {
		return nil, domain.ErrInvalidTimeframe
	}

	snaps, err := b.store.QueryRange(ctx, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("candle: query snapshots: %w", err)
	}

	widthMs := width.Milliseconds()
	buckets := make(map[int64]*domain.Candle)

	// QueryRange returns rows ordered by as_of ascending, so the first
	// snapshot seen per bucket sets the open and every later one the close.
	for _, s := range snaps {
		mid, ok := s.MidPrice()
		if !ok {
			continue
		}
		openMs := (s.AsOf.UnixMilli() / widthMs) * widthMs

		c, exists := buckets[openMs]
		if !exists {
			buckets[openMs] = &domain.Candle{
				Symbol:    symbol,
				Timeframe: tf,
				OpenTime:  time.UnixMilli(openMs).UTC(),
				Open:      mid,
				High:      mid,
				Low:       mid,
				Close:     mid,
				Samples:   1,
			}
			continue
		}
		if mid > c.High {
			c.High = mid
		}
		if mid < c.Low {
			c.Low = mid
		}
		c.Close = mid
		c.Samples++
	}

	out := make([]domain.Candle, 0, len(buckets))
	for _, c := range buckets {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].OpenTime.Before(out[j].OpenTime)
	})
	return out, nil
}
