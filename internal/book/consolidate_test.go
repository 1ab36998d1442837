package book_test

import (
	"testing"
	"time"

	"github.com/Hugo-SEQUIER/nbbo-backend/internal/book"
	"github.com/Hugo-SEQUIER/nbbo-backend/internal/domain"
)

func side(venue domain.VenueID, prices ...float64) domain.OrderBookSide {
	out := make(domain.OrderBookSide, 0, len(prices))
	for _, p := range prices {
		out = append(out, domain.PriceLevel{Price: p, Size: 1, Venue: venue})
	}
	return out
}

func TestConsolidate_MergeOrdering(t *testing.T) {
	vbA := domain.VenueBook{
		Venue: "a",
		Bids:  side("a", 10.5, 10.3),
		Asks:  side("a", 10.6, 10.8),
	}
	vbB := domain.VenueBook{
		Venue: "b",
		Bids:  side("b", 10.4),
		Asks:  side("b", 10.7),
	}

	cb := book.Consolidate("HYPE", []domain.VenueBook{vbA, vbB}, nil, time.Now())

	wantBids := []float64{10.5, 10.4, 10.3}
	for i, p := range wantBids {
		if cb.Bids[i].Price != p {
			t.Errorf("bid %d: expected %v, got %v", i, p, cb.Bids[i].Price)
		}
	}
	wantAsks := []float64{10.6, 10.7, 10.8}
	for i, p := range wantAsks {
		if cb.Asks[i].Price != p {
			t.Errorf("ask %d: expected %v, got %v", i, p, cb.Asks[i].Price)
		}
	}
}

func TestConsolidate_TieBreakByVenueOrder(t *testing.T) {
	vbA := domain.VenueBook{Venue: "a", Bids: side("a", 10.5)}
	vbB := domain.VenueBook{Venue: "b", Bids: side("b", 10.5)}

	cb := book.Consolidate("HYPE", []domain.VenueBook{vbA, vbB}, nil, time.Now())

	if len(cb.Bids) != 2 {
		t.Fatalf("expected both levels kept, got %d", len(cb.Bids))
	}
	if cb.Bids[0].Venue != "a" || cb.Bids[1].Venue != "b" {
		t.Errorf("tie should rank first-configured venue first, got %s then %s",
			cb.Bids[0].Venue, cb.Bids[1].Venue)
	}

	// Reversed input order reverses the winner.
	cb = book.Consolidate("HYPE", []domain.VenueBook{vbB, vbA}, nil, time.Now())
	if cb.Bids[0].Venue != "b" {
		t.Errorf("expected venue b first after reorder, got %s", cb.Bids[0].Venue)
	}
}

func TestConsolidate_NoSizeNettingAcrossVenues(t *testing.T) {
	vbA := domain.VenueBook{Venue: "a", Asks: domain.OrderBookSide{{Price: 10.6, Size: 2, Venue: "a"}}}
	vbB := domain.VenueBook{Venue: "b", Asks: domain.OrderBookSide{{Price: 10.6, Size: 3, Venue: "b"}}}

	cb := book.Consolidate("HYPE", []domain.VenueBook{vbA, vbB}, nil, time.Now())

	if len(cb.Asks) != 2 {
		t.Fatalf("cross-venue levels must stay distinct, got %d", len(cb.Asks))
	}
	if cb.Asks[0].Size != 2 || cb.Asks[1].Size != 3 {
		t.Errorf("sizes must not be summed across venues: %v, %v", cb.Asks[0].Size, cb.Asks[1].Size)
	}
}

func TestConsolidate_CrossedMarketPassesThrough(t *testing.T) {
	vbA := domain.VenueBook{Venue: "a", Bids: side("a", 100)}
	vbB := domain.VenueBook{Venue: "b", Asks: side("b", 99)}

	cb := book.Consolidate("HYPE", []domain.VenueBook{vbA, vbB}, nil, time.Now())

	nbbo := cb.NBBO()
	if !nbbo.Crossed() {
		t.Fatal("expected crossed market to be reported")
	}
	if nbbo.BestBid.Price != 100 || nbbo.BestAsk.Price != 99 {
		t.Errorf("crossed book must pass through unmodified: bid %v ask %v",
			nbbo.BestBid.Price, nbbo.BestAsk.Price)
	}
	if spread, ok := nbbo.Spread(); !ok || spread >= 0 {
		t.Errorf("expected negative spread, got %v (ok=%v)", spread, ok)
	}
}

func TestConsolidate_EmptyInput(t *testing.T) {
	cb := book.Consolidate("HYPE", nil, []domain.VenueID{"a", "b"}, time.Now())

	if len(cb.Bids) != 0 || len(cb.Asks) != 0 {
		t.Errorf("expected empty sides, got %d bids %d asks", len(cb.Bids), len(cb.Asks))
	}
	if len(cb.VenuesIncluded) != 0 {
		t.Errorf("expected no venues included, got %v", cb.VenuesIncluded)
	}
	if len(cb.VenuesFailed) != 2 {
		t.Errorf("expected 2 failed venues, got %v", cb.VenuesFailed)
	}
	if nbbo := cb.NBBO(); nbbo.BestBid != nil || nbbo.BestAsk != nil {
		t.Error("empty book must yield nil NBBO sides")
	}
}

func TestLatestCell(t *testing.T) {
	cell := book.NewLatestCell()

	if _, ok := cell.Load(); ok {
		t.Fatal("fresh cell must be empty")
	}

	cb := book.Consolidate("HYPE", nil, nil, time.Now())
	cell.Store(&cb)

	got, ok := cell.Load()
	if !ok || got.Symbol != "HYPE" {
		t.Fatalf("expected stored book back, got ok=%v", ok)
	}
}
