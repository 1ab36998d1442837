package book_test

import (
	"testing"
	"time"

	"github.com/Hugo-SEQUIER/nbbo-backend/internal/book"
	"github.com/Hugo-SEQUIER/nbbo-backend/internal/domain"
)

func TestNormalize_DropsInvalidLevels(t *testing.T) {
	raw := domain.RawBook{
		Venue:  "hyperliquid",
		Symbol: "HYPE",
		Bids: []domain.RawLevel{
			{Price: 10.5, Size: 2},
			{Price: 0, Size: 5},
			{Price: 10.4, Size: -1},
		},
		Asks: []domain.RawLevel{
			{Price: 10.6, Size: 1},
			{Price: -3, Size: 1},
		},
		FetchedAt: time.Now(),
	}

	vb := book.Normalize(raw)

	if len(vb.Bids) != 1 {
		t.Fatalf("expected 1 bid, got %d", len(vb.Bids))
	}
	if len(vb.Asks) != 1 {
		t.Fatalf("expected 1 ask, got %d", len(vb.Asks))
	}
	if vb.DroppedLevels != 3 {
		t.Errorf("expected 3 dropped levels, got %d", vb.DroppedLevels)
	}
}

func TestNormalize_SumsDuplicatePrices(t *testing.T) {
	raw := domain.RawBook{
		Venue:  "hyperliquid",
		Symbol: "HYPE",
		Bids: []domain.RawLevel{
			{Price: 10.5, Size: 2},
			{Price: 10.5, Size: 3},
			{Price: 10.4, Size: 1},
		},
	}

	vb := book.Normalize(raw)

	if len(vb.Bids) != 2 {
		t.Fatalf("expected 2 bids after duplicate merge, got %d", len(vb.Bids))
	}
	if vb.Bids[0].Price != 10.5 || vb.Bids[0].Size != 5 {
		t.Errorf("expected merged level 10.5@5, got %v@%v", vb.Bids[0].Price, vb.Bids[0].Size)
	}
}

func TestNormalize_SortsSides(t *testing.T) {
	raw := domain.RawBook{
		Venue:  "hyperliquid",
		Symbol: "HYPE",
		Bids: []domain.RawLevel{
			{Price: 10.3, Size: 1},
			{Price: 10.5, Size: 1},
			{Price: 10.4, Size: 1},
		},
		Asks: []domain.RawLevel{
			{Price: 10.8, Size: 1},
			{Price: 10.6, Size: 1},
			{Price: 10.7, Size: 1},
		},
	}

	vb := book.Normalize(raw)

	for i := 1; i < len(vb.Bids); i++ {
		if vb.Bids[i].Price > vb.Bids[i-1].Price {
			t.Errorf("bids not descending at %d: %v > %v", i, vb.Bids[i].Price, vb.Bids[i-1].Price)
		}
	}
	for i := 1; i < len(vb.Asks); i++ {
		if vb.Asks[i].Price < vb.Asks[i-1].Price {
			t.Errorf("asks not ascending at %d: %v < %v", i, vb.Asks[i].Price, vb.Asks[i-1].Price)
		}
	}
}

func TestNormalize_TagsVenue(t *testing.T) {
	raw := domain.RawBook{
		Venue:  "merrli",
		Symbol: "HYPE",
		Bids:   []domain.RawLevel{{Price: 10.5, Size: 2}},
	}

	vb := book.Normalize(raw)

	if vb.Bids[0].Venue != "merrli" {
		t.Errorf("expected venue tag merrli, got %s", vb.Bids[0].Venue)
	}
}
