package stream

import (
	"context"
	"time"

	"go.uber.org/zap"

	"neurabot/internal/candles"
)

// Ingester folds validated trades into candle histories. It returns the
// candle frozen by the trade, if folding it opened a later bucket.
type Ingester interface {
	Ingest(candles.Trade) *candles.Candle
}

// Archiver persists candles that have been frozen by a later bucket. Archive
// failures are operational, never fatal to the stream.
type Archiver interface {
	ArchiveCandle(ctx context.Context, symbol, interval string, c candles.Candle) error
}

// MakeTradeHandler returns the frame handler wired between the websocket
// client and the candle store. Archiver may be nil when the bot runs without
// a database.
func MakeTradeHandler(logger *zap.Logger, store Ingester, archive Archiver, interval string) func(msg []byte) {
	return func(msg []byte) {
		decoded, err := Decode(msg)
		if err != nil {
			logger.Warn("failed to decode stream frame", zap.Error(err))
			return
		}

		switch decoded.Kind {
		case KindAck:
			logger.Info("subscription confirmed", zap.String("method", decoded.AckMethod))

		case KindTradeBatch:
			if decoded.Dropped > 0 {
				logger.Warn("dropped malformed trade records", zap.Int("count", decoded.Dropped))
			}
			for _, trade := range decoded.Trades {
				frozen := store.Ingest(trade)
				if frozen == nil || archive == nil {
					continue
				}

				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				err := archive.ArchiveCandle(ctx, trade.Symbol, interval, *frozen)
				cancel()
				if err != nil {
					logger.Warn("failed to archive candle",
						zap.String("symbol", trade.Symbol),
						zap.Int64("bucket_start", frozen.BucketStart),
						zap.Error(err))
				}
			}

		default:
			// Unrelated channel; ignore.
		}
	}
}
