// Package pipeline contains the long-running loops: the refresh scheduler
// that drives the fetch→normalize→consolidate→record→broadcast cycle, and
// the cold-storage archiver.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Hugo-SEQUIER/nbbo-backend/internal/book"
	"github.com/Hugo-SEQUIER/nbbo-backend/internal/domain"
)

// Broadcaster fans a consolidated book out to live price subscribers.
type Broadcaster interface {
	BroadcastBook(cb *domain.ConsolidatedBook)
}

// Alerter escalates operator-visible events (degraded cycle, storage
// failure).
type Alerter interface {
	Alert(ctx context.Context, event, title, message string)
}

// Refresher runs the refresh cycle at a fixed period. Venue fetches within a
// tick run concurrently, each under its own timeout; a venue that fails or
// times out is excluded from that cycle and the cycle proceeds with whatever
// succeeded. If a cycle is still running when the next tick fires, that tick
// is skipped, never queued: at most one cycle is in flight at a time.
type Refresher struct {
	symbol       domain.Symbol
	venues       []domain.VenueClient // configured order; merge tie-break depends on it
	interval     time.Duration
	fetchTimeout time.Duration
	store        domain.SnapshotStore
	cache        domain.NbboCache
	hub          Broadcaster
	latest       *book.LatestCell
	alerter      Alerter
	logger       *slog.Logger
}

// RefresherConfig bundles the refresher's collaborators. Cache and Alerter
// are optional; Store, Hub, and Latest are required.
type RefresherConfig struct {
	Symbol       domain.Symbol
	Venues       []domain.VenueClient
	Interval     time.Duration
	FetchTimeout time.Duration
	Store        domain.SnapshotStore
	Cache        domain.NbboCache
	Hub          Broadcaster
	Latest       *book.LatestCell
	Alerter      Alerter
}

// NewRefresher creates a Refresher. The fetch timeout is clamped below the
// tick period so a slow venue can never stall a cycle past its slot.
func NewRefresher(cfg RefresherConfig, logger *slog.Logger) *Refresher {
	if cfg.Interval <= 0 {
		cfg.Interval = 4 * time.Second
	}
	if cfg.FetchTimeout <= 0 || cfg.FetchTimeout >= cfg.Interval {
		cfg.FetchTimeout = cfg.Interval * 3 / 4
	}
	return &Refresher{
		symbol:       cfg.Symbol,
		venues:       cfg.Venues,
		interval:     cfg.Interval,
		fetchTimeout: cfg.FetchTimeout,
		store:        cfg.Store,
		cache:        cfg.Cache,
		hub:          cfg.Hub,
		latest:       cfg.Latest,
		alerter:      cfg.Alerter,
		logger:       logger.With(slog.String("component", "refresher")),
	}
}

// Run executes cycles until ctx is cancelled. The first cycle starts
// immediately rather than waiting a full period.
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.Info("refresher starting",
		slog.String("symbol", string(r.symbol)),
		slog.Int("venues", len(r.venues)),
		slog.Duration("interval", r.interval),
		slog.Duration("fetch_timeout", r.fetchTimeout),
	)

	r.RunCycle(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresher stopped")
			return ctx.Err()
		case <-ticker.C:
			r.RunCycle(ctx)

			// A cycle that overran its slot leaves a tick buffered in the
			// ticker. Drain it so overruns coalesce instead of queueing.
			select {
			case <-ticker.C:
				r.logger.Warn("cycle overran tick period, skipping one tick",
					slog.Duration("interval", r.interval),
				)
			default:
			}
		}
	}
}

// RunCycle executes one full fetch→normalize→consolidate→record→broadcast
// cycle. It never returns an error: partial venue failure is provenance on
// the result, and the two output sinks are independent.
func (r *Refresher) RunCycle(ctx context.Context) *domain.ConsolidatedBook {
	start := time.Now().UTC()
	books, failed := r.fetchAll(ctx)

	cb := book.Consolidate(r.symbol, books, failed, start)
	r.latest.Store(&cb)

	if len(failed) == len(r.venues) && len(r.venues) > 0 {
		r.logger.Error("degraded cycle: all venues unavailable",
			slog.String("symbol", string(r.symbol)),
			slog.Int("venues", len(r.venues)),
		)
		if r.alerter != nil {
			r.alerter.Alert(ctx, "degraded_cycle",
				"All venues unavailable",
				"every configured venue failed or timed out; publishing an empty consolidated book")
		}
	} else if len(failed) > 0 {
		r.logger.Warn("partial cycle",
			slog.Int("succeeded", len(books)),
			slog.Int("failed", len(failed)),
		)
	}

	// Record then broadcast, in that order, but never let one sink's failure
	// suppress the other.
	r.record(ctx, &cb)
	r.hub.BroadcastBook(&cb)

	r.logger.Debug("cycle complete",
		slog.Int("bid_levels", len(cb.Bids)),
		slog.Int("ask_levels", len(cb.Asks)),
		slog.Duration("took", time.Since(start)),
	)
	return &cb
}

// fetchAll queries every configured venue concurrently and joins on all of
// them, each bounded by the per-fetch timeout. Results keep configured venue
// order regardless of completion order.
func (r *Refresher) fetchAll(ctx context.Context) ([]domain.VenueBook, []domain.VenueID) {
	results := make([]*domain.VenueBook, len(r.venues))

	var wg sync.WaitGroup
	for i, vc := range r.venues {
		wg.Add(1)
		go func(i int, vc domain.VenueClient) {
			defer wg.Done()

			fetchCtx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
			defer cancel()

			raw, err := vc.FetchOrderBook(fetchCtx, r.symbol)
			if err != nil {
				// Timeouts and venue errors are treated identically: the
				// venue sits this cycle out.
				r.logger.Warn("venue fetch failed",
					slog.String("venue", string(vc.Venue())),
					slog.String("error", err.Error()),
				)
				return
			}

			vb := book.Normalize(raw)
			if vb.DroppedLevels > 0 {
				r.logger.Warn("dropped invalid levels",
					slog.String("venue", string(vb.Venue)),
					slog.Int("dropped", vb.DroppedLevels),
				)
			}
			results[i] = &vb
		}(i, vc)
	}
	wg.Wait()

	books := make([]domain.VenueBook, 0, len(r.venues))
	failed := make([]domain.VenueID, 0)
	for i, vb := range results {
		if vb == nil {
			failed = append(failed, r.venues[i].Venue())
			continue
		}
		books = append(books, *vb)
	}
	return books, failed
}

// record persists the cycle's NBBO snapshot and refreshes the cache. A
// storage failure is logged and alerted but never blocks the broadcast;
// candle queries over the missing window will simply show a gap.
func (r *Refresher) record(ctx context.Context, cb *domain.ConsolidatedBook) {
	nbbo := cb.NBBO()

	if err := r.store.Append(ctx, domain.SnapshotFromNBBO(nbbo)); err != nil {
		r.logger.Error("snapshot append failed",
			slog.String("symbol", string(cb.Symbol)),
			slog.String("error", err.Error()),
		)
		if r.alerter != nil {
			r.alerter.Alert(ctx, "storage_failure",
				"Snapshot persistence failed",
				err.Error())
		}
	}

	if r.cache != nil {
		if err := r.cache.SetSummary(ctx, nbbo); err != nil {
			r.logger.Warn("nbbo cache update failed", slog.String("error", err.Error()))
		}
	}
}
