package postgres_test

import (
	"context"
	"testing"
	"time"

	"neurabot/config"
	"neurabot/internal/candles"
	"neurabot/pkg/storage/postgres"
)

func testClient(t *testing.T) *postgres.Client {
	t.Helper()
	cfg := config.PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "yourpw",
		DBName:   "neurabot",
		SSLMode:  "disable",
		TimeZone: "UTC",
	}

	client, err := postgres.NewClient(cfg.DSN("dev"))
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	if !client.IsHealthy(context.Background()) {
		t.Skip("postgres unavailable")
	}
	if err := client.AutoMigrateCandleRecord(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

// go test -v --run TestArchiveCandle
func TestArchiveCandle(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	bucket := time.Now().Truncate(15 * time.Minute)
	c := candles.Candle{
		BucketStart: bucket.UnixMilli(),
		Open:        64000.0,
		High:        64250.5,
		Low:         63900.0,
		Close:       64100.0,
	}

	if err := client.ArchiveCandle(ctx, "BTC", "15m", c); err != nil {
		t.Fatalf("archive failed: %v", err)
	}

	got, err := client.GetCandle(ctx, "BTC", "15m", bucket)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Symbol != "BTC" || got.Open != 64000.0 || got.Close != 64100.0 {
		t.Errorf("unexpected candle values: %+v", got)
	}

	// Replaying the same frozen candle is a no-op, not an error.
	if err := client.ArchiveCandle(ctx, "BTC", "15m", c); err != nil {
		t.Errorf("duplicate archive failed: %v", err)
	}

	if err := client.DeleteOldCandles(ctx, time.Now().Add(time.Hour)); err != nil {
		t.Errorf("delete failed: %v", err)
	}
	if _, err := client.GetCandle(ctx, "BTC", "15m", bucket); err == nil {
		t.Error("expected error after delete, got nil")
	}
}

// go test -v --run TestToCandleRecord
func TestToCandleRecord(t *testing.T) {
	c := candles.Candle{BucketStart: 1700000000000, Open: 1, High: 3, Low: 0.5, Close: 2}
	record := postgres.ToCandleRecord("ETH", "15m", c)

	if record.Symbol != "ETH" || record.Interval != "15m" {
		t.Errorf("unexpected record keys: %+v", record)
	}
	if !record.BucketStart.Equal(time.UnixMilli(1700000000000)) {
		t.Errorf("bucket start = %v", record.BucketStart)
	}
	if record.Open != 1 || record.High != 3 || record.Low != 0.5 || record.Close != 2 {
		t.Errorf("unexpected prices: %+v", record)
	}
}
