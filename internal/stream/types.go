// Package stream is the decode boundary between raw websocket frames and the
// candle store. Frames are parsed into a tagged variant {Ack, TradeBatch,
// Unknown}; trade records are validated one by one so a single malformed
// record never aborts the batch or the connection.
package stream

import (
	"math"
	"strconv"

	json "github.com/goccy/go-json"

	"neurabot/internal/candles"
)

// Kind tags a decoded stream message.
type Kind int

const (
	KindUnknown Kind = iota
	KindAck
	KindTradeBatch
)

// Message is a fully decoded stream frame.
type Message struct {
	Kind Kind

	// AckMethod is set for KindAck (e.g. "subscribe").
	AckMethod string

	// Trades holds the validated records of a KindTradeBatch frame.
	Trades []candles.Trade

	// Dropped counts records discarded during validation.
	Dropped int
}

// envelope carries the channel discriminator with the payload left raw until
// the channel is known.
type envelope struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

type ackData struct {
	Method string `json:"method"`
}

// wireTrade is one trade record as delivered on the "trades" channel. Price
// and size arrive string-encoded.
type wireTrade struct {
	Coin string `json:"coin"`
	Side string `json:"side"`
	Px   string `json:"px"`
	Sz   string `json:"sz"`
	Time int64  `json:"time"`
}

// Decode parses a raw frame. It returns an error only when the frame itself
// is not valid JSON; malformed individual trade records are counted in
// Dropped with the remainder of the batch still returned.
func Decode(raw []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Message{}, err
	}

	switch env.Channel {
	case "subscriptionResponse":
		var ack ackData
		_ = json.Unmarshal(env.Data, &ack) // method is informational
		return Message{Kind: KindAck, AckMethod: ack.Method}, nil

	case "trades":
		var records []wireTrade
		if err := json.Unmarshal(env.Data, &records); err != nil {
			// The frame was valid JSON with an unusable payload: drop it whole.
			return Message{Kind: KindTradeBatch, Dropped: 1}, nil
		}

		msg := Message{Kind: KindTradeBatch, Trades: make([]candles.Trade, 0, len(records))}
		for _, rec := range records {
			t, ok := validateTrade(rec)
			if !ok {
				msg.Dropped++
				continue
			}
			msg.Trades = append(msg.Trades, t)
		}
		return msg, nil

	default:
		return Message{Kind: KindUnknown}, nil
	}
}

func validateTrade(rec wireTrade) (candles.Trade, bool) {
	if rec.Coin == "" || rec.Time <= 0 {
		return candles.Trade{}, false
	}
	// ParseFloat accepts "NaN" and "Inf"; those must never reach a fold.
	px, err := strconv.ParseFloat(rec.Px, 64)
	if err != nil || math.IsNaN(px) || math.IsInf(px, 0) {
		return candles.Trade{}, false
	}
	return candles.Trade{Symbol: rec.Coin, Price: px, Time: rec.Time}, true
}
