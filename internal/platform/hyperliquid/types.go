package hyperliquid

// infoRequest is the request body for POST /info. Fields beyond Type are only
// set for the query kinds that use them.
type infoRequest struct {
	Type string `json:"type"`
	Coin string `json:"coin,omitempty"`
	User string `json:"user,omitempty"`
	Dex  string `json:"dex,omitempty"`
}

// L2Level is one price level as returned by the l2Book query. Prices and
// sizes are decimal strings; N is the number of resting orders at the level.
type L2Level struct {
	Px string `json:"px"`
	Sz string `json:"sz"`
	N  int    `json:"n"`
}

// L2BookResponse is the l2Book payload: Levels[0] are bids sorted descending,
// Levels[1] are asks sorted ascending, Time is a Unix millisecond timestamp.
type L2BookResponse struct {
	Coin   string      `json:"coin"`
	Time   int64       `json:"time"`
	Levels [][]L2Level `json:"levels"`
}

// clearinghouseState is the slice of the balance payload we inspect; the rest
// of the object is passed through to callers untouched.
type clearinghouseState struct {
	MarginSummary struct {
		AccountValue string `json:"accountValue"`
	} `json:"marginSummary"`
}

// historicalOrder is the slice of a historicalOrders entry we filter on.
type historicalOrder struct {
	Order struct {
		Coin string `json:"coin"`
	} `json:"order"`
}

// wsSubscription is the subscribe command for the trades stream.
type wsSubscription struct {
	Method       string         `json:"method"`
	Subscription map[string]any `json:"subscription"`
}

// wsMessage is the envelope for inbound stream messages.
type wsMessage struct {
	Channel string    `json:"channel"`
	Data    []wsTrade `json:"data"`
}

// wsTrade is one execution from the trades stream.
type wsTrade struct {
	Coin string `json:"coin"`
	Side string `json:"side"`
	Px   string `json:"px"`
	Sz   string `json:"sz"`
	Time int64  `json:"time"`
	Tid  int64  `json:"tid"`
}
