// Package hyperliquid is the venue client for the Hyperliquid info API. Each
// configured dex on Hyperliquid is treated as an independent venue whose
// order book is polled and merged.
package hyperliquid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Hugo-SEQUIER/nbbo-backend/internal/domain"
)

// Client is the REST client for the Hyperliquid /info endpoint. All queries
// are POSTs with a typed JSON payload.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given API root, e.g.
// "https://api.hyperliquid-testnet.xyz".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// postInfo sends a typed payload to /info and returns the raw response body.
// Per-request deadlines come from ctx; the client-level timeout is only a
// backstop.
func (c *Client) postInfo(ctx context.Context, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("hyperliquid: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/info", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("hyperliquid: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hyperliquid: post /info: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("hyperliquid: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("hyperliquid: /info returned status %d: %s", resp.StatusCode, truncate(data, 200))
	}
	return data, nil
}

// L2Book fetches the current level-2 order book for a coin.
func (c *Client) L2Book(ctx context.Context, coin string) (L2BookResponse, error) {
	body, err := c.postInfo(ctx, infoRequest{Type: "l2Book", Coin: coin})
	if err != nil {
		return L2BookResponse{}, err
	}

	var book L2BookResponse
	if err := json.Unmarshal(body, &book); err != nil {
		return L2BookResponse{}, fmt.Errorf("hyperliquid: decode l2Book for %s: %w", coin, err)
	}
	return book, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// Venue adapts one Hyperliquid dex to the domain.VenueClient interface. The
// dex's builder-specific coin identifier (e.g. "merrli:BTC") maps to the
// canonical symbol served to clients.
type Venue struct {
	client *Client
	venue  domain.VenueID
	coin   string
}

// NewVenue creates the venue adapter for a single dex.
func NewVenue(client *Client, venue domain.VenueID, coin string) *Venue {
	return &Venue{client: client, venue: venue, coin: coin}
}

// Venue returns the venue identifier.
func (v *Venue) Venue() domain.VenueID { return v.venue }

// FetchOrderBook fetches and decodes the venue's raw book. Price and size
// strings that fail to parse come through as zero values and are dropped by
// normalization.
func (v *Venue) FetchOrderBook(ctx context.Context, symbol domain.Symbol) (domain.RawBook, error) {
	book, err := v.client.L2Book(ctx, v.coin)
	if err != nil {
		return domain.RawBook{}, fmt.Errorf("%w: %s: %v", domain.ErrVenueUnavailable, v.venue, err)
	}

	raw := domain.RawBook{
		Venue:     v.venue,
		Symbol:    symbol,
		FetchedAt: time.Now().UTC(),
	}
	// levels[0] holds bids, levels[1] holds asks.
	if len(book.Levels) > 0 {
		raw.Bids = toRawLevels(book.Levels[0])
	}
	if len(book.Levels) > 1 {
		raw.Asks = toRawLevels(book.Levels[1])
	}
	return raw, nil
}

func toRawLevels(levels []L2Level) []domain.RawLevel {
	out := make([]domain.RawLevel, 0, len(levels))
	for _, lv := range levels {
		price, _ := strconv.ParseFloat(lv.Px, 64)
		size, _ := strconv.ParseFloat(lv.Sz, 64)
		out = append(out, domain.RawLevel{Price: price, Size: size})
	}
	return out
}
