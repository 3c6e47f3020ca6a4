// Package risk holds the position sizing and loss-limit arithmetic. Like
// strategy, it is stateless: the bot loop owns the running loss figures.
package risk

import (
	"math"

	"neurabot/config"
)

// PositionSize is a sized order proposal.
type PositionSize struct {
	Symbol    string
	Direction string  // "long" or "short"
	Size      float64 // quantity in base units
	Notional  float64 // size * entry price
}

// ComputePositionSize sizes a trade so the loss at the stop equals
// risk_per_trade_pct of equity. Returns nil when the trade cannot be taken:
// position cap reached, degenerate prices, or zero risk distance.
func ComputePositionSize(symbol string, entryPrice, stopLoss, equity float64, openPositions int, cfg config.RiskConfig) *PositionSize {
	if openPositions >= cfg.MaxPositions {
		return nil
	}
	if entryPrice <= 0 {
		return nil
	}

	riskAmount := cfg.RiskPerTradePct * equity
	if riskAmount <= 0 {
		return nil
	}

	riskPerUnit := math.Abs(entryPrice - stopLoss)
	if riskPerUnit <= 0 {
		return nil
	}

	size := riskAmount / riskPerUnit
	if size <= 0 {
		return nil
	}

	// Cap notional at the leverage limit; a wide stop shrinks size, a tight
	// one must not blow past max leverage.
	if maxNotional := equity * cfg.MaxLeverage; maxNotional > 0 && size*entryPrice > maxNotional {
		size = maxNotional / entryPrice
	}

	direction := "short"
	if entryPrice > stopLoss {
		direction = "long"
	}

	return &PositionSize{
		Symbol:    symbol,
		Direction: direction,
		Size:      size,
		Notional:  size * entryPrice,
	}
}

// CheckDailyLossLimits reports whether trading may continue today given the
// drawdown from the start-of-day equity and per-symbol loss percentages.
func CheckDailyLossLimits(equityStartOfDay, currentEquity float64, perSymbolLossPct map[string]float64, cfg config.RiskConfig) bool {
	if equityStartOfDay <= 0 {
		return true
	}

	drawdown := (equityStartOfDay - currentEquity) / equityStartOfDay
	if drawdown >= cfg.DailyMaxLossPct {
		return false
	}

	for _, lossPct := range perSymbolLossPct {
		if lossPct >= cfg.PerCoinMaxLossPct {
			return false
		}
	}

	return true
}
