package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neurabot/config"
)

func testRiskConfig() config.RiskConfig {
	return config.RiskConfig{
		MaxLeverage:       10,
		MaxPositions:      3,
		RiskPerTradePct:   0.01,
		DailyMaxLossPct:   0.05,
		PerCoinMaxLossPct: 0.02,
	}
}

func TestComputePositionSize_RiskEqualsConfiguredFraction(t *testing.T) {
	cfg := testRiskConfig()

	// Entry 100, stop 98: risk per unit 2. 1% of 10000 equity = 100 at risk.
	pos := ComputePositionSize("BTC", 100, 98, 10000, 0, cfg)
	require.NotNil(t, pos)
	assert.Equal(t, "long", pos.Direction)
	assert.InDelta(t, 50, pos.Size, 1e-9)
	assert.InDelta(t, 5000, pos.Notional, 1e-9)

	lossAtStop := pos.Size * 2
	assert.InDelta(t, cfg.RiskPerTradePct*10000, lossAtStop, 1e-9)
}

func TestComputePositionSize_ShortDirection(t *testing.T) {
	pos := ComputePositionSize("ETH", 100, 104, 10000, 0, testRiskConfig())
	require.NotNil(t, pos)
	assert.Equal(t, "short", pos.Direction)
	assert.InDelta(t, 25, pos.Size, 1e-9)
}

func TestComputePositionSize_PositionCap(t *testing.T) {
	cfg := testRiskConfig()
	assert.Nil(t, ComputePositionSize("BTC", 100, 98, 10000, cfg.MaxPositions, cfg))
	assert.NotNil(t, ComputePositionSize("BTC", 100, 98, 10000, cfg.MaxPositions-1, cfg))
}

func TestComputePositionSize_DegenerateInputs(t *testing.T) {
	cfg := testRiskConfig()
	assert.Nil(t, ComputePositionSize("BTC", 0, 98, 10000, 0, cfg), "zero entry")
	assert.Nil(t, ComputePositionSize("BTC", 100, 100, 10000, 0, cfg), "zero risk distance")
	assert.Nil(t, ComputePositionSize("BTC", 100, 98, 0, 0, cfg), "zero equity")
}

func TestComputePositionSize_LeverageCapsNotional(t *testing.T) {
	cfg := testRiskConfig()

	// A very tight stop would otherwise size far beyond 10x equity.
	pos := ComputePositionSize("BTC", 100, 99.99, 10000, 0, cfg)
	require.NotNil(t, pos)
	assert.InDelta(t, 10000*cfg.MaxLeverage, pos.Notional, 1e-6)
}

func TestCheckDailyLossLimits(t *testing.T) {
	cfg := testRiskConfig()

	assert.True(t, CheckDailyLossLimits(10000, 9900, nil, cfg), "1% drawdown ok")
	assert.False(t, CheckDailyLossLimits(10000, 9500, nil, cfg), "5% drawdown halts")
	assert.False(t, CheckDailyLossLimits(10000, 9000, nil, cfg))
	assert.True(t, CheckDailyLossLimits(0, 9000, nil, cfg), "unknown start-of-day equity never halts")
}

func TestCheckDailyLossLimits_PerSymbol(t *testing.T) {
	cfg := testRiskConfig()

	losses := map[string]float64{"BTC": 0.01, "DOGE": 0.025}
	assert.False(t, CheckDailyLossLimits(10000, 9950, losses, cfg), "per-symbol breach halts")

	losses = map[string]float64{"BTC": 0.01}
	assert.True(t, CheckDailyLossLimits(10000, 9950, losses, cfg))
}
