// Package book implements the normalization and consolidation of per-venue
// order books into a single venue-tagged NBBO view.
package book

import (
	"sort"

	"github.com/Hugo-SEQUIER/nbbo-backend/internal/domain"
)

// Normalize converts a raw venue book into its canonical form: levels with
// non-positive price or size are dropped individually (counted in
// DroppedLevels), sizes at duplicate prices within the venue are summed, bids
// are sorted descending and asks ascending. The input is not modified.
func Normalize(raw domain.RawBook) domain.VenueBook {
	bids, droppedBids := normalizeSide(raw.Bids, raw.Venue, true)
	asks, droppedAsks := normalizeSide(raw.Asks, raw.Venue, false)

	return domain.VenueBook{
		Venue:         raw.Venue,
		Symbol:        raw.Symbol,
		Bids:          bids,
		Asks:          asks,
		FetchedAt:     raw.FetchedAt,
		DroppedLevels: droppedBids + droppedAsks,
	}
}

func normalizeSide(levels []domain.RawLevel, venue domain.VenueID, descending bool) (domain.OrderBookSide, int) {
	sizes := make(map[float64]float64, len(levels))
	dropped := 0
	for _, lv := range levels {
		if lv.Price <= 0 || lv.Size <= 0 {
			dropped++
			continue
		}
		sizes[lv.Price] += lv.Size
	}

	out := make(domain.OrderBookSide, 0, len(sizes))
	for price, size := range sizes {
		out = append(out, domain.PriceLevel{Price: price, Size: size, Venue: venue})
	}
	sort.Slice(out, func(i, j int) bool {
		if descending {
			return out[i].Price > out[j].Price
		}
		return out[i].Price < out[j].Price
	})
	return out, dropped
}
