// Package candles maintains rolling OHLC candle histories per traded symbol,
// built in real time from the exchange trade stream.
//
// The Store is the aggregate root: it exclusively owns one History per symbol,
// serializes writers (the stream ingest path, the REST backfill path) and
// readers (the strategy loop) behind a single mutex, and supervises the
// background connection goroutine so that Stop leaves nothing running.
package candles

// Candle is a single OHLC bar. BucketStart is milliseconds since epoch,
// aligned to the store's bucket width. A candle is mutable only while it is
// the tail of its history; the moment a trade opens a later bucket it becomes
// permanently read-only.
type Candle struct {
	BucketStart int64   `json:"t"`
	Open        float64 `json:"o"`
	High        float64 `json:"h"`
	Low         float64 `json:"l"`
	Close       float64 `json:"c"`
}

// Trade is a single validated trade tick as produced by the stream decode
// boundary. Time is epoch milliseconds.
type Trade struct {
	Symbol string
	Price  float64
	Time   int64
}
