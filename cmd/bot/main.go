package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"neurabot/config"
	"neurabot/internal/bot"
	"neurabot/internal/candles"
	"neurabot/internal/news"
	"neurabot/internal/stream"
	"neurabot/logger"
	"neurabot/pkg/hyperliquid"
	"neurabot/pkg/storage/postgres"

	"go.uber.org/zap"
)

func main() {
	// viper config
	cfg := config.Load()

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil && err != context.Canceled {
		log.Fatal("bot failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interval, err := hyperliquid.ParseInterval(cfg.Candles.Interval)
	if err != nil {
		return err
	}

	rest := hyperliquid.NewRESTClient(cfg.Exchange.REST.BaseURL, cfg.Exchange.WalletAddress, cfg.Exchange.REST.Timeout)
	orders := hyperliquid.NewExchangeClient(cfg.Exchange.REST.BaseURL, cfg.Exchange.WalletAddress, cfg.Exchange.PrivateKey, cfg.Exchange.REST.Timeout)

	// Optional candle archive
	var archive stream.Archiver
	if cfg.Postgres.Enabled {
		pg, err := postgres.InitializeAndMigrate(cfg.Postgres, cfg.Log.Environment, true)
		if err != nil {
			return err
		}
		defer pg.Close()
		archive = pg
	}

	ws := hyperliquid.NewWSClient(cfg.Exchange.WS.URL, cfg.Exchange.WS.BackoffBase, cfg.Exchange.WS.BackoffMax, log)
	store := candles.NewStore(candles.Config{
		BucketWidth: interval.Duration(),
		MaxCandles:  cfg.Candles.MaxCandles,
	}, ws, log)
	ws.SetMessageHandler(stream.MakeTradeHandler(log, store, archive, string(interval)))

	symbols, err := rest.TopSymbols(ctx, cfg.Bot.TopSymbols)
	if err != nil {
		return err
	}
	log.Info("selected universe", zap.Strings("symbols", symbols))

	// Backfill each symbol before the live stream can open newer buckets, so
	// the seeded candles are never rejected against a live tail.
	for _, symbol := range symbols {
		snapshot, err := rest.CandleSnapshot(ctx, symbol, interval, cfg.Bot.CandleLimit)
		if err != nil {
			log.Warn("backfill failed", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		accepted := store.Seed(symbol, snapshot)
		log.Info("backfilled candles", zap.String("symbol", symbol), zap.Int("count", accepted))
	}

	if err := store.Start(symbols); err != nil {
		return err
	}
	defer func() {
		if err := store.Stop(); err != nil {
			log.Warn("store stop", zap.Error(err))
		}
	}()

	log.Info("waiting for initial candle data", zap.Duration("warmup", cfg.Bot.Warmup))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(cfg.Bot.Warmup):
	}

	newsFilter := news.NewFilter(cfg.News, log)
	engine := bot.New(cfg, store, rest, orders, newsFilter, log)
	return engine.Run(ctx)
}
