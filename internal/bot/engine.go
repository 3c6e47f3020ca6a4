// Package bot wires the candle store, strategy, risk, news, and order layers
// into the polling trade loop.
package bot

import (
	"context"
	"time"

	"go.uber.org/zap"

	"neurabot/config"
	"neurabot/internal/candles"
	"neurabot/internal/risk"
	"neurabot/internal/strategy"
	"neurabot/pkg/hyperliquid"
)

// CandleSource is the read side of the candle store.
type CandleSource interface {
	Query(symbol string, n int) []candles.Candle
}

// AccountClient provides account state and market metadata.
type AccountClient interface {
	EquityAndWithdrawable(ctx context.Context) (float64, float64, error)
	OpenPositions(ctx context.Context) ([]hyperliquid.Position, error)
	TopSymbols(ctx context.Context, n int) ([]string, error)
	AllMids(ctx context.Context) (map[string]float64, error)
}

// OrderPlacer submits orders to the venue.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req hyperliquid.OrderRequest) (*hyperliquid.OrderResult, error)
}

// NewsGate blocks trading after risk-off headlines.
type NewsGate interface {
	Refresh(ctx context.Context) error
	Blocked(symbol string) bool
}

// Engine runs the strategy polling loop against a live candle store.
type Engine struct {
	cfg     *config.Config
	store   CandleSource
	account AccountClient
	orders  OrderPlacer
	news    NewsGate
	logger  *zap.Logger
}

func New(cfg *config.Config, store CandleSource, account AccountClient, orders OrderPlacer, news NewsGate, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:     cfg,
		store:   store,
		account: account,
		orders:  orders,
		news:    news,
		logger:  logger,
	}
}

// Run polls until ctx is cancelled: refresh news state, enforce loss limits,
// read candles per symbol, generate signals, size and place orders. A single
// failing collaborator never kills the loop; everything is retried next pass.
func (e *Engine) Run(ctx context.Context) error {
	equityStartOfDay, _, err := e.account.EquityAndWithdrawable(ctx)
	if err != nil {
		e.logger.Warn("could not fetch starting equity, limits start from zero", zap.Error(err))
	}
	e.logger.Info("trade loop starting", zap.Float64("equity_start_of_day", equityStartOfDay))

	perSymbolLossPct := make(map[string]float64)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		loopStart := time.Now()

		if err := e.news.Refresh(ctx); err != nil {
			e.logger.Warn("news refresh failed", zap.Error(err))
		}

		equity, withdrawable, err := e.account.EquityAndWithdrawable(ctx)
		if err != nil {
			e.logger.Warn("equity fetch failed, using start-of-day value", zap.Error(err))
			equity = equityStartOfDay
			withdrawable = equityStartOfDay
		}
		e.logger.Debug("loop start",
			zap.Float64("equity", equity),
			zap.Float64("withdrawable", withdrawable))

		if !risk.CheckDailyLossLimits(equityStartOfDay, equity, perSymbolLossPct, e.cfg.Risk) {
			e.logger.Warn("daily loss limit hit, pausing")
			if !sleepCtx(ctx, time.Minute) {
				return ctx.Err()
			}
			continue
		}

		symbols, err := e.account.TopSymbols(ctx, e.cfg.Bot.TopSymbols)
		if err != nil {
			e.logger.Warn("universe fetch failed", zap.Error(err))
			if !sleepCtx(ctx, e.cfg.Bot.MinLoopPeriod) {
				return ctx.Err()
			}
			continue
		}

		mids, err := e.account.AllMids(ctx)
		if err != nil {
			e.logger.Warn("mids fetch failed", zap.Error(err))
			mids = map[string]float64{}
		}

		openPositions, err := e.account.OpenPositions(ctx)
		if err != nil {
			e.logger.Warn("open positions fetch failed, assuming none", zap.Error(err))
		}

		closesBySymbol := e.collectCloses(symbols, mids)
		if len(closesBySymbol) == 0 {
			e.logger.Info("no candle data yet, waiting")
			if !sleepCtx(ctx, e.cfg.Bot.MinLoopPeriod) {
				return ctx.Err()
			}
			continue
		}

		signals := strategy.GenerateSignals(closesBySymbol, e.cfg.Strategy)
		for symbol, sig := range signals {
			e.executeSignal(ctx, symbol, sig, equity, len(openPositions))
		}

		elapsed := time.Since(loopStart)
		if pause := e.cfg.Bot.MinLoopPeriod - elapsed; pause > 0 {
			if !sleepCtx(ctx, pause) {
				return ctx.Err()
			}
		}
	}
}

// collectCloses queries the store for every tradable symbol and keeps those
// with data. Symbols without candles are a normal warm-up condition.
func (e *Engine) collectCloses(symbols []string, mids map[string]float64) map[string][]float64 {
	closesBySymbol := make(map[string][]float64)
	for _, symbol := range symbols {
		if _, ok := mids[symbol]; !ok && len(mids) > 0 {
			continue
		}
		cdls := e.store.Query(symbol, e.cfg.Bot.CandleLimit)
		if len(cdls) == 0 {
			continue
		}
		closes := make([]float64, len(cdls))
		for i, c := range cdls {
			closes[i] = c.Close
		}
		closesBySymbol[symbol] = closes
	}
	return closesBySymbol
}

func (e *Engine) executeSignal(ctx context.Context, symbol string, sig *strategy.Signal, equity float64, openPositions int) {
	if e.news.Blocked(symbol) {
		e.logger.Info("signal blocked by news", zap.String("symbol", symbol))
		return
	}

	size := risk.ComputePositionSize(symbol, sig.EntryPrice, sig.StopLoss, equity, openPositions, e.cfg.Risk)
	if size == nil || size.Size <= 0 {
		e.logger.Debug("position size invalid", zap.String("symbol", symbol))
		return
	}

	isBuy := sig.Direction == strategy.Long
	limitPx := sig.EntryPrice * 0.999
	if isBuy {
		limitPx = sig.EntryPrice * 1.001
	}

	res, err := e.orders.PlaceOrder(ctx, hyperliquid.OrderRequest{
		Coin:    symbol,
		IsBuy:   isBuy,
		Size:    size.Size,
		LimitPx: limitPx,
		TIF:     "Ioc",
	})
	if err != nil {
		e.logger.Error("order failed", zap.String("symbol", symbol), zap.Error(err))
		return
	}

	e.logger.Info("order placed",
		zap.String("symbol", symbol),
		zap.String("direction", sig.Direction.String()),
		zap.Float64("size", size.Size),
		zap.Float64("entry", sig.EntryPrice),
		zap.Float64("stop", sig.StopLoss),
		zap.Float64("take_profit", sig.TakeProfit),
		zap.String("status", res.Status))
}

// sleepCtx pauses for d, returning false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
