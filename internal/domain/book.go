// Package domain holds the core market-data types and the interfaces that
// infrastructure packages (stores, caches, venue clients) implement.
package domain

import "time"

// VenueID identifies one trading venue (one polled order-book source).
type VenueID string

// Symbol is the canonical instrument identifier exposed to clients,
// e.g. "BTC". Each venue maps it to its own coin identifier.
type Symbol string

// PriceLevel is a single price+size entry on one side of a book. Venue is
// preserved through consolidation so consumers keep per-venue attribution.
type PriceLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
	Venue VenueID `json:"venue"`
}

// OrderBookSide is one side of a book, ordered best price first
// (bids descending, asks ascending).
type OrderBookSide []PriceLevel

// VenueBook is the normalized book fetched from a single venue during one
// refresh cycle. It is built fresh each cycle and never mutated afterwards.
type VenueBook struct {
	Venue     VenueID       `json:"venue"`
	Symbol    Symbol        `json:"symbol"`
	Bids      OrderBookSide `json:"bids"`
	Asks      OrderBookSide `json:"asks"`
	FetchedAt time.Time     `json:"fetched_at"`

	// DroppedLevels counts raw levels discarded during normalization
	// because of non-positive price or size.
	DroppedLevels int `json:"-"`
}

// ConsolidatedBook is the merged, venue-tagged view across all venues for one
// cycle. A crossed market (best bid above best ask) is representable and is
// never corrected here.
type ConsolidatedBook struct {
	Symbol         Symbol       `json:"symbol"`
	Bids           []PriceLevel `json:"bids"`
	Asks           []PriceLevel `json:"asks"`
	AsOf           time.Time    `json:"as_of"`
	VenuesIncluded []VenueID    `json:"venues_included"`
	VenuesFailed   []VenueID    `json:"venues_failed"`
}

// BestBid returns the top bid level, or nil if the bid side is empty.
func (b *ConsolidatedBook) BestBid() *PriceLevel {
	if len(b.Bids) == 0 {
		return nil
	}
	return &b.Bids[0]
}

// BestAsk returns the top ask level, or nil if the ask side is empty.
func (b *ConsolidatedBook) BestAsk() *PriceLevel {
	if len(b.Asks) == 0 {
		return nil
	}
	return &b.Asks[0]
}

// NBBO derives the top-of-book summary from the consolidated book.
func (b *ConsolidatedBook) NBBO() NbboSummary {
	return NbboSummary{
		Symbol:  b.Symbol,
		BestBid: b.BestBid(),
		BestAsk: b.BestAsk(),
		AsOf:    b.AsOf,
	}
}

// NbboSummary is the best bid and offer across all venues. Either side may be
// nil when that side had zero depth everywhere.
type NbboSummary struct {
	Symbol  Symbol      `json:"symbol"`
	BestBid *PriceLevel `json:"best_bid"`
	BestAsk *PriceLevel `json:"best_ask"`
	AsOf    time.Time   `json:"as_of"`
}

// Crossed reports whether the best bid is priced above the best ask.
func (n NbboSummary) Crossed() bool {
	return n.BestBid != nil && n.BestAsk != nil && n.BestBid.Price > n.BestAsk.Price
}

// Spread returns best ask minus best bid. ok is false when either side is
// absent. A crossed market yields a negative spread.
func (n NbboSummary) Spread() (float64, bool) {
	if n.BestBid == nil || n.BestAsk == nil {
		return 0, false
	}
	return n.BestAsk.Price - n.BestBid.Price, true
}

// MidPrice returns the midpoint of the best bid and ask when both sides are
// present, otherwise whichever side exists. ok is false when both are absent.
func (n NbboSummary) MidPrice() (float64, bool) {
	switch {
	case n.BestBid != nil && n.BestAsk != nil:
		return (n.BestBid.Price + n.BestAsk.Price) / 2, true
	case n.BestBid != nil:
		return n.BestBid.Price, true
	case n.BestAsk != nil:
		return n.BestAsk.Price, true
	default:
		return 0, false
	}
}

// RawLevel is an unvalidated price level as returned by a venue client.
type RawLevel struct {
	Price float64
	Size  float64
}

// RawBook is the unvalidated order book returned by a venue client before
// normalization.
type RawBook struct {
	Venue     VenueID
	Symbol    Symbol
	Bids      []RawLevel
	Asks      []RawLevel
	FetchedAt time.Time
}
