package hyperliquid

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Hugo-SEQUIER/nbbo-backend/internal/domain"
)

// Balance implements domain.AccountClient. It queries clearinghouseState once
// per dex, passes each payload through opaque, and sums the account values.
// A dex whose payload lacks a parsable account value contributes zero.
func (c *Client) Balance(ctx context.Context, address string, dexs []string) (domain.AccountBalance, error) {
	out := domain.AccountBalance{
		Dexs: make(map[string]json.RawMessage, len(dexs)),
	}

	for _, dex := range dexs {
		body, err := c.postInfo(ctx, infoRequest{
			Type: "clearinghouseState",
			User: address,
			Dex:  dex,
		})
		if err != nil {
			return domain.AccountBalance{}, fmt.Errorf("hyperliquid: balance for dex %s: %w", dex, err)
		}
		out.Dexs[dex] = json.RawMessage(body)

		var state clearinghouseState
		if err := json.Unmarshal(body, &state); err != nil {
			continue
		}
		if v, err := strconv.ParseFloat(state.MarginSummary.AccountValue, 64); err == nil {
			out.TotalAccountValue += v
		}
	}
	return out, nil
}

// Positions implements domain.AccountClient by querying the user's
// sub-accounts. The payload is passed through to the caller untouched.
func (c *Client) Positions(ctx context.Context, address string) (json.RawMessage, error) {
	body, err := c.postInfo(ctx, infoRequest{Type: "subAccounts", User: address})
	if err != nil {
		return nil, fmt.Errorf("hyperliquid: positions: %w", err)
	}
	return json.RawMessage(body), nil
}

// HistoricalOrders implements domain.AccountClient. Orders are filtered to
// the given coins; an empty coin list returns everything.
func (c *Client) HistoricalOrders(ctx context.Context, address string, coins []string) ([]json.RawMessage, error) {
	body, err := c.postInfo(ctx, infoRequest{Type: "historicalOrders", User: address})
	if err != nil {
		return nil, fmt.Errorf("hyperliquid: historical orders: %w", err)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("hyperliquid: decode historical orders: %w", err)
	}
	if len(coins) == 0 {
		return entries, nil
	}

	wanted := make(map[string]bool, len(coins))
	for _, coin := range coins {
		wanted[coin] = true
	}

	filtered := make([]json.RawMessage, 0, len(entries))
	for _, entry := range entries {
		var ho historicalOrder
		if err := json.Unmarshal(entry, &ho); err != nil {
			continue
		}
		if wanted[ho.Order.Coin] {
			filtered = append(filtered, entry)
		}
	}
	return filtered, nil
}
