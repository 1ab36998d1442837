package book

import (
	"time"

	"github.com/Hugo-SEQUIER/nbbo-backend/internal/domain"
)

// Consolidate merges normalized venue books into one consolidated book via a
// k-way merge per side. Levels from different venues at the same price stay
// distinct entries (sizes are only summed within a venue, during
// normalization) so consumers keep per-venue attribution. Price ties break in
// favor of the venue that appears first in venueBooks, which the scheduler
// keeps in configured venue order. Crossed markets pass through unmodified.
//
// Consolidate never fails: a venue's failure is represented by its absence
// from venueBooks and its presence in failed.
func Consolidate(symbol domain.Symbol, venueBooks []domain.VenueBook, failed []domain.VenueID, asOf time.Time) domain.ConsolidatedBook {
	included := make([]domain.VenueID, 0, len(venueBooks))
	bidSides := make([]domain.OrderBookSide, 0, len(venueBooks))
	askSides := make([]domain.OrderBookSide, 0, len(venueBooks))
	for _, vb := range venueBooks {
		included = append(included, vb.Venue)
		bidSides = append(bidSides, vb.Bids)
		askSides = append(askSides, vb.Asks)
	}

	if failed == nil {
		failed = []domain.VenueID{}
	}

	return domain.ConsolidatedBook{
		Symbol:         symbol,
		Bids:           mergeSides(bidSides, true),
		Asks:           mergeSides(askSides, false),
		AsOf:           asOf,
		VenuesIncluded: included,
		VenuesFailed:   failed,
	}
}

// mergeSides performs a stable k-way merge over already-sorted sides. With
// the small venue counts involved (single digits) a linear scan over the
// heads beats a heap.
func mergeSides(sides []domain.OrderBookSide, descending bool) []domain.PriceLevel {
	total := 0
	for _, s := range sides {
		total += len(s)
	}
	out := make([]domain.PriceLevel, 0, total)
	heads := make([]int, len(sides))

	for len(out) < total {
		best := -1
		for i, s := range sides {
			if heads[i] >= len(s) {
				continue
			}
			if best == -1 {
				best = i
				continue
			}
			cur := s[heads[i]].Price
			bp := sides[best][heads[best]].Price
			// Strict inequality keeps the earlier-configured venue first
			// on equal prices.
			if (descending && cur > bp) || (!descending && cur < bp) {
				best = i
			}
		}
		out = append(out, sides[best][heads[best]])
		heads[best]++
	}
	return out
}
