package postgres

import (
	"context"
	"time"

	"neurabot/internal/candles"

	"gorm.io/gorm/clause"
)

// ArchiveCandle inserts a frozen candle. Duplicate buckets are skipped
// silently: ingestion is at-least-once, so replays of the same frozen candle
// are a normal condition, not an error.
func (p *Client) ArchiveCandle(ctx context.Context, symbol, interval string, c candles.Candle) error {
	record := ToCandleRecord(symbol, interval, c)

	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "symbol"},
			{Name: "interval"},
			{Name: "bucket_start"},
		},
		DoNothing: true,
	}).Create(record)

	return tx.Error
}

func (p *Client) GetCandle(ctx context.Context, symbol, interval string, bucketStart time.Time) (*CandleRecord, error) {
	var record CandleRecord
	err := p.DB.WithContext(ctx).
		Where("symbol = ? AND interval = ? AND bucket_start = ?", symbol, interval, bucketStart).
		First(&record).Error

	if err != nil {
		return nil, err
	}
	return &record, nil
}

// DeleteOldCandles trims the archive below the given cutoff.
func (p *Client) DeleteOldCandles(ctx context.Context, before time.Time) error {
	return p.DB.WithContext(ctx).
		Where("bucket_start < ?", before).
		Delete(&CandleRecord{}).Error
}

// ToCandleRecord converts a frozen in-memory candle into its DB row.
func ToCandleRecord(symbol, interval string, c candles.Candle) *CandleRecord {
	return &CandleRecord{
		Symbol:      symbol,
		Interval:    interval,
		BucketStart: time.UnixMilli(c.BucketStart),
		Open:        c.Open,
		High:        c.High,
		Low:         c.Low,
		Close:       c.Close,
	}
}
