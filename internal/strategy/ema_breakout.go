// Package strategy generates EMA-plus-breakout trade signals from candle
// close sequences. It is pure arithmetic: no I/O, no state between calls.
package strategy

import (
	"math"
	"strings"

	"neurabot/config"
)

// Direction is the trade side of a signal.
type Direction int

const (
	Flat Direction = iota
	Long
	Short
)

func (d Direction) String() string {
	switch d {
	case Long:
		return "long"
	case Short:
		return "short"
	}
	return "flat"
}

// Signal is a fully specified trade setup for one symbol.
type Signal struct {
	Symbol     string
	Direction  Direction
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
	Reason     string
}

// ema computes a simple exponential moving average over the full slice.
func ema(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	k := 2.0 / float64(period+1)
	val := prices[0]
	for _, px := range prices[1:] {
		val = px*k + val*(1-k)
	}
	return val
}

// ComputeEMAs returns (fast, slow) EMAs from closes ordered oldest to newest.
// Both are zero when there is not enough data for the slow period.
func ComputeEMAs(closes []float64, cfg config.StrategyConfig) (float64, float64) {
	if len(closes) < cfg.SlowPeriod {
		return 0, 0
	}
	fast := ema(closes[len(closes)-cfg.FastPeriod:], cfg.FastPeriod)
	slow := ema(closes[len(closes)-cfg.SlowPeriod:], cfg.SlowPeriod)
	return fast, slow
}

func rangeHighLow(closes []float64, lookback int) (float64, float64) {
	window := closes
	if len(closes) > lookback {
		window = closes[len(closes)-lookback:]
	}
	if len(window) == 0 {
		return 0, 0
	}
	high, low := window[0], window[0]
	for _, px := range window[1:] {
		high = math.Max(high, px)
		low = math.Min(low, px)
	}
	return high, low
}

// bufferForSymbol returns the breakout buffer in absolute price units.
// BTC/ETH use the tighter major buffers.
func bufferForSymbol(symbol string, price float64, cfg config.StrategyConfig) float64 {
	minPct, maxPct := cfg.AltBufferMin, cfg.AltBufferMax
	switch strings.ToUpper(symbol) {
	case "BTC", "ETH":
		minPct, maxPct = cfg.MajorBufferMin, cfg.MajorBufferMax
	}
	return price * (minPct + maxPct) / 2
}

// GenerateSignal produces a signal for one symbol from its closes (oldest to
// newest), or nil when no setup is present.
//
// Direction bias comes from the fast/slow EMA relation; entry requires price
// to break the lookback range by the symbol's buffer. Stops sit half an ATR
// beyond the far side of the range, take-profit at 2R.
func GenerateSignal(symbol string, closes []float64, cfg config.StrategyConfig) *Signal {
	need := cfg.SlowPeriod
	if cfg.LookbackCandles > need {
		need = cfg.LookbackCandles
	}
	if len(closes) < need {
		return nil
	}

	fast, slow := ComputeEMAs(closes, cfg)
	if fast == 0 && slow == 0 {
		return nil
	}

	var bias Direction
	switch {
	case fast > slow:
		bias = Long
	case fast < slow:
		bias = Short
	default:
		return nil // chop, skip
	}

	// The breakout range excludes the latest close, which is the candidate
	// breaking it.
	rangeHigh, rangeLow := rangeHighLow(closes[:len(closes)-1], cfg.LookbackCandles)
	lastPrice := closes[len(closes)-1]
	buf := bufferForSymbol(symbol, lastPrice, cfg)
	atr := atrProxy(closes, cfg.LookbackCandles)

	if bias == Long && lastPrice > rangeHigh+buf {
		entry := lastPrice
		stop := rangeLow - 0.5*atr
		riskPerUnit := entry - stop
		return &Signal{
			Symbol:     symbol,
			Direction:  Long,
			EntryPrice: entry,
			StopLoss:   stop,
			TakeProfit: entry + 2*riskPerUnit,
			Reason:     "ema fast>slow + breakout above range",
		}
	}
	if bias == Short && lastPrice < rangeLow-buf {
		entry := lastPrice
		stop := rangeHigh + 0.5*atr
		riskPerUnit := stop - entry
		return &Signal{
			Symbol:     symbol,
			Direction:  Short,
			EntryPrice: entry,
			StopLoss:   stop,
			TakeProfit: entry - 2*riskPerUnit,
			Reason:     "ema fast<slow + breakout below range",
		}
	}

	return nil
}

// atrProxy approximates ATR as the mean absolute close-to-close change over
// the lookback window.
func atrProxy(closes []float64, lookback int) float64 {
	if len(closes) < 2 {
		return 0
	}
	diffs := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		diffs = append(diffs, math.Abs(closes[i]-closes[i-1]))
	}
	if len(diffs) > lookback {
		diffs = diffs[len(diffs)-lookback:]
	}
	sum := 0.0
	for _, d := range diffs {
		sum += d
	}
	return sum / float64(len(diffs))
}

// GenerateSignals evaluates every symbol in closesBySymbol and returns the
// symbols with valid setups.
func GenerateSignals(closesBySymbol map[string][]float64, cfg config.StrategyConfig) map[string]*Signal {
	signals := make(map[string]*Signal)
	for symbol, closes := range closesBySymbol {
		if sig := GenerateSignal(symbol, closes, cfg); sig != nil {
			signals[symbol] = sig
		}
	}
	return signals
}
