package postgres

import "time"

// CandleRecord is a frozen candle archived to the database. The archive is
// write-only from the bot's point of view: the live store never reads it
// back, it exists for offline analysis.
type CandleRecord struct {
	ID uint `gorm:"primaryKey"`

	// unique index
	Symbol      string    `gorm:"type:text;not null;index:idx_candle_symbol;index:idx_symbol_interval_start,unique"`
	Interval    string    `gorm:"type:varchar(10);not null;index:idx_symbol_interval_start,unique"`
	BucketStart time.Time `gorm:"not null;index:idx_symbol_interval_start,unique"`

	Open  float64 `gorm:"type:numeric;not null"`
	High  float64 `gorm:"type:numeric;not null"`
	Low   float64 `gorm:"type:numeric;not null"`
	Close float64 `gorm:"type:numeric;not null"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default table name for GORM.
func (CandleRecord) TableName() string {
	return "candle_record"
}
