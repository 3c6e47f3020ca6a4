package hyperliquid

import "encoding/json"

// subscribeRequest is sent once per symbol after the websocket handshake.
//
//	{"method": "subscribe", "subscription": {"type": "trades", "coin": "BTC"}}
type subscribeRequest struct {
	Method       string       `json:"method"`
	Subscription subscription `json:"subscription"`
}

type subscription struct {
	Type string `json:"type"`
	Coin string `json:"coin"`
}

// infoRequest is the envelope for POST /info calls. Req is only set for
// endpoints that take parameters (e.g. candleSnapshot).
type infoRequest struct {
	Type string `json:"type"`
	User string `json:"user,omitempty"`
	Req  any    `json:"req,omitempty"`
}

type candleSnapshotReq struct {
	Coin      string `json:"coin"`
	Interval  string `json:"interval"`
	StartTime int64  `json:"startTime"`
	EndTime   int64  `json:"endTime"`
}

// wireCandle is one row of a candleSnapshot response. Prices arrive as
// strings and must be parsed row by row.
type wireCandle struct {
	Time  int64  `json:"t"` // open time, epoch millis
	Open  string `json:"o"`
	High  string `json:"h"`
	Low   string `json:"l"`
	Close string `json:"c"`
}

// metaResponse carries the venue's tradable universe, ordered by the venue
// (most liquid first).
type metaResponse struct {
	Universe []struct {
		Name string `json:"name"`
	} `json:"universe"`
}

// UserState is the account snapshot from the clearinghouseState info call.
type UserState struct {
	MarginSummary struct {
		AccountValue string `json:"accountValue"`
	} `json:"marginSummary"`
	Withdrawable   string `json:"withdrawable"`
	AssetPositions []struct {
		Position Position `json:"position"`
	} `json:"assetPositions"`
}

// Position is one open position as reported by the venue. Szi is signed size
// (negative for shorts), as a string like all venue numerics.
type Position struct {
	Coin     string `json:"coin"`
	Szi      string `json:"szi"`
	EntryPx  string `json:"entryPx"`
	Leverage struct {
		Type  string `json:"type"`
		Value int    `json:"value"`
	} `json:"leverage"`
	UnrealizedPnl string `json:"unrealizedPnl"`
}

// OrderRequest describes a limit order to place.
type OrderRequest struct {
	Coin       string
	IsBuy      bool
	Size       float64
	LimitPx    float64
	TIF        string // "Ioc", "Gtc", "Alo"
	ReduceOnly bool
}

// OrderResult is the venue's response to an order placement.
type OrderResult struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}
