package domain

import "time"

// Snapshot is the persisted top-of-book record written once per refresh
// cycle. Rows are append-only; the core never updates or deletes them
// (retention is the archiver's concern). Price/size fields are nil when that
// side had no depth at capture time.
type Snapshot struct {
	Symbol       Symbol    `json:"symbol"`
	AsOf         time.Time `json:"as_of"`
	BestBidPrice *float64  `json:"best_bid_price"`
	BestBidSize  *float64  `json:"best_bid_size"`
	BestAskPrice *float64  `json:"best_ask_price"`
	BestAskSize  *float64  `json:"best_ask_size"`
}

// SnapshotFromNBBO converts a cycle's NBBO summary into its persisted form.
func SnapshotFromNBBO(n NbboSummary) Snapshot {
	s := Snapshot{Symbol: n.Symbol, AsOf: n.AsOf}
	if n.BestBid != nil {
		s.BestBidPrice = ptr(n.BestBid.Price)
		s.BestBidSize = ptr(n.BestBid.Size)
	}
	if n.BestAsk != nil {
		s.BestAskPrice = ptr(n.BestAsk.Price)
		s.BestAskSize = ptr(n.BestAsk.Size)
	}
	return s
}

// MidPrice derives the representative price of a snapshot: the bid/ask
// midpoint when both sides are present, else whichever side exists. ok is
// false when the snapshot has no depth on either side.
func (s Snapshot) MidPrice() (float64, bool) {
	switch {
	case s.BestBidPrice != nil && s.BestAskPrice != nil:
		return (*s.BestBidPrice + *s.BestAskPrice) / 2, true
	case s.BestBidPrice != nil:
		return *s.BestBidPrice, true
	case s.BestAskPrice != nil:
		return *s.BestAskPrice, true
	default:
		return 0, false
	}
}

func ptr(v float64) *float64 { return &v }
