package domain

import (
	"context"
	"encoding/json"
)

// VenueClient fetches the current raw order book for one venue. Timeouts are
// imposed by the caller through ctx; a timeout and a venue error are treated
// identically (the venue is excluded from that cycle).
type VenueClient interface {
	Venue() VenueID
	FetchOrderBook(ctx context.Context, symbol Symbol) (RawBook, error)
}

// AccountBalance is the per-dex clearinghouse state for a user address plus
// the summed account value across dexs. Per-dex payloads are passed through
// opaque; only the account value is extracted for the total.
type AccountBalance struct {
	Dexs              map[string]json.RawMessage `json:"dexs"`
	TotalAccountValue float64                    `json:"total_account_value"`
}

// AccountClient exposes the user-scoped venue queries (balance, positions,
// historical orders) that the account endpoints proxy.
type AccountClient interface {
	Balance(ctx context.Context, address string, dexs []string) (AccountBalance, error)
	Positions(ctx context.Context, address string) (json.RawMessage, error)
	HistoricalOrders(ctx context.Context, address string, coins []string) ([]json.RawMessage, error)
}
