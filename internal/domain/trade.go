package domain

import "time"

// TradeSide is the taker direction reported by the venue ("B" buy, "A" sell).
type TradeSide string

const (
	TradeBuy  TradeSide = "B"
	TradeSell TradeSide = "A"
)

// Trade is a single execution reported by a venue's trade stream.
type Trade struct {
	Venue   VenueID   `json:"venue"`
	Coin    string    `json:"coin"`
	Price   float64   `json:"price"`
	Size    float64   `json:"size"`
	Side    TradeSide `json:"side"`
	Time    time.Time `json:"time"`
	TradeID int64     `json:"tid"`
}
