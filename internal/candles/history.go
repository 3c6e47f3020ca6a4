package candles

import "math"

// History is the ordered, bounded candle sequence for one symbol. Candles are
// oldest first and strictly increasing in BucketStart. History is not safe
// for concurrent use on its own; the owning Store's mutex guards every call.
type History struct {
	bucketMs   int64
	maxCandles int
	candles    []Candle
}

func newHistory(bucketMs int64, maxCandles int) *History {
	return &History{
		bucketMs:   bucketMs,
		maxCandles: maxCandles,
		candles:    make([]Candle, 0, maxCandles),
	}
}

// Fold buckets a trade into the history. A trade in the tail's bucket mutates
// the tail (high/low/close; open is never rewritten). A trade in a later
// bucket freezes the tail and opens a new candle; the frozen candle is
// returned so callers can archive it. A trade whose bucket is already behind
// the tail belongs to a frozen candle and is dropped — O(1) append wins over
// backfilling into history.
func (h *History) Fold(tsMs int64, price float64) *Candle {
	bucket := tsMs - tsMs%h.bucketMs

	if len(h.candles) == 0 {
		h.append(Candle{BucketStart: bucket, Open: price, High: price, Low: price, Close: price})
		return nil
	}

	tail := &h.candles[len(h.candles)-1]
	switch {
	case bucket == tail.BucketStart:
		if price > tail.High {
			tail.High = price
		}
		if price < tail.Low {
			tail.Low = price
		}
		tail.Close = price
		return nil
	case bucket < tail.BucketStart:
		// Late trade for a bucket that has already been superseded.
		return nil
	default:
		frozen := *tail
		h.append(Candle{BucketStart: bucket, Open: price, High: price, Low: price, Close: price})
		return &frozen
	}
}

// Last returns a snapshot copy of the final n candles, oldest first. Callers
// never see live-mutable state, so a reader cannot observe a half-updated
// tail.
func (h *History) Last(n int) []Candle {
	if n <= 0 || len(h.candles) == 0 {
		return nil
	}
	if n > len(h.candles) {
		n = len(h.candles)
	}
	out := make([]Candle, n)
	copy(out, h.candles[len(h.candles)-n:])
	return out
}

// Len returns the number of candles currently held.
func (h *History) Len() int {
	return len(h.candles)
}

// merge folds an already-sorted (oldest first) batch of historical candles
// into the history. Candles at or after the live tail's bucket are rejected
// individually: the live tail was built from the stream and must never be
// retroactively overwritten by a snapshot. On bucket collisions with older
// live candles the live candle also wins. Returns the number of accepted
// candles.
func (h *History) merge(seed []Candle) int {
	tailBucket := int64(math.MaxInt64)
	if len(h.candles) > 0 {
		tailBucket = h.candles[len(h.candles)-1].BucketStart
	}

	merged := make([]Candle, 0, len(h.candles)+len(seed))
	accepted := 0
	i, j := 0, 0
	for i < len(h.candles) || j < len(seed) {
		switch {
		case j == len(seed):
			merged = append(merged, h.candles[i])
			i++
		case seed[j].BucketStart >= tailBucket:
			j++ // rejected: would corrupt the in-progress bucket
		case i == len(h.candles):
			merged = append(merged, seed[j])
			accepted++
			j++
		case h.candles[i].BucketStart < seed[j].BucketStart:
			merged = append(merged, h.candles[i])
			i++
		case h.candles[i].BucketStart == seed[j].BucketStart:
			merged = append(merged, h.candles[i])
			i++
			j++
		default:
			merged = append(merged, seed[j])
			accepted++
			j++
		}
	}

	h.candles = merged
	h.trim()
	return accepted
}

func (h *History) append(c Candle) {
	h.candles = append(h.candles, c)
	h.trim()
}

// trim drops the oldest candles when the bound is exceeded. Only recent data
// matters to the strategy.
func (h *History) trim() {
	if over := len(h.candles) - h.maxCandles; over > 0 {
		h.candles = append(h.candles[:0], h.candles[over:]...)
	}
}
