package hyperliquid

import (
	"fmt"
	"time"
)

// Interval is the candle interval string used by the venue's API.
type Interval string

const (
	Interval1Min  Interval = "1m"
	Interval3Min  Interval = "3m"
	Interval5Min  Interval = "5m"
	Interval15Min Interval = "15m"
	Interval30Min Interval = "30m"
	Interval1Hour Interval = "1h"
	Interval4Hour Interval = "4h"
	Interval1Day  Interval = "1d"
)

var validIntervals = map[Interval]time.Duration{
	Interval1Min:  time.Minute,
	Interval3Min:  3 * time.Minute,
	Interval5Min:  5 * time.Minute,
	Interval15Min: 15 * time.Minute,
	Interval30Min: 30 * time.Minute,
	Interval1Hour: time.Hour,
	Interval4Hour: 4 * time.Hour,
	Interval1Day:  24 * time.Hour,
}

// IsValid checks if the Interval is a valid predefined interval.
func (i Interval) IsValid() bool {
	_, ok := validIntervals[i]
	return ok
}

// Duration returns the bucket width the interval denotes.
func (i Interval) Duration() time.Duration {
	return validIntervals[i]
}

// ParseInterval parses a string like "15m" into a valid Interval.
func ParseInterval(s string) (Interval, error) {
	interval := Interval(s)
	if !interval.IsValid() {
		return "", fmt.Errorf("invalid interval: %s", s)
	}
	return interval, nil
}
