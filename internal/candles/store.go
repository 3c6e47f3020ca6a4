package candles

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrAlreadyRunning is returned by Start when the store is already running.
	ErrAlreadyRunning = errors.New("candle store already running")

	// ErrNotRunning is returned by Stop when there is nothing to stop. The
	// call is still harmless; the error exists so lifecycle bugs are visible.
	ErrNotRunning = errors.New("candle store not running")
)

// StreamRunner drives the persistent trade-stream connection for a symbol
// set. Run must block until ctx is cancelled, reconnecting internally on
// every transport failure, and must never outlive ctx.
type StreamRunner interface {
	Run(ctx context.Context, symbols []string)
}

// Config holds the store-level aggregation parameters.
type Config struct {
	BucketWidth time.Duration
	MaxCandles  int
}

// Store maps symbols to their candle histories and supervises the stream
// connection that feeds them. One mutex guards the map and every history's
// mutable tail; ingestion volume is tick-level, so coarse locking is fine.
type Store struct {
	bucketMs   int64
	maxCandles int
	runner     StreamRunner
	logger     *zap.Logger

	mu        sync.Mutex
	histories map[string]*History
	running   bool
	symbols   []string
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewStore(cfg Config, runner StreamRunner, logger *zap.Logger) *Store {
	return &Store{
		bucketMs:   cfg.BucketWidth.Milliseconds(),
		maxCandles: cfg.MaxCandles,
		runner:     runner,
		logger:     logger,
		histories:  make(map[string]*History),
	}
}

// Start records the subscription set and launches the stream runner as a
// supervised background goroutine. It does not block; the runner keeps the
// histories current until Stop.
func (s *Store) Start(symbols []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}

	s.running = true
	s.symbols = append([]string(nil), symbols...)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func(done chan<- struct{}, symbols []string) {
		defer close(done)
		s.runner.Run(ctx, symbols)
	}(s.done, s.symbols)

	s.logger.Info("candle store started", zap.Int("symbols", len(symbols)))
	return nil
}

// Stop cancels the stream runner and waits for it to fully unwind, so a
// subsequent Start sees a clean slate. Calling Stop on a store that is not
// running returns ErrNotRunning but changes nothing.
func (s *Store) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.running = false
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	// Join outside the lock: the runner's ingest path needs it to drain.
	cancel()
	<-done

	s.logger.Info("candle store stopped")
	return nil
}

// Ingest folds one trade into its symbol's history, creating the history on
// first contact. It returns the candle frozen by this trade (the previous
// tail, if the trade opened a later bucket) or nil. Invoked by the stream
// decode path; safe concurrently with Query and Seed.
func (s *Store) Ingest(t Trade) *Candle {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.histories[t.Symbol]
	if !ok {
		h = newHistory(s.bucketMs, s.maxCandles)
		s.histories[t.Symbol] = h
	}
	return h.Fold(t.Time, t.Price)
}

// Query returns a snapshot of the last n candles for a symbol, oldest first.
// An unknown symbol yields an empty result, never an error: "no candles yet"
// is a normal poll-again condition.
func (s *Store) Query(symbol string, n int) []Candle {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.histories[symbol]
	if !ok {
		return nil
	}
	return h.Last(n)
}

// Seed merges historical candles (sorted oldest first) into a symbol's
// history ahead of whatever the live stream has built. Candles at or after
// the live tail's bucket are rejected individually. Safe to call while
// ingestion is running for the same symbol. Returns the number of candles
// accepted.
func (s *Store) Seed(symbol string, seed []Candle) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.histories[symbol]
	if !ok {
		h = newHistory(s.bucketMs, s.maxCandles)
		s.histories[symbol] = h
	}
	accepted := h.merge(seed)
	if accepted < len(seed) {
		s.logger.Warn("seed candles rejected",
			zap.String("symbol", symbol),
			zap.Int("rejected", len(seed)-accepted))
	}
	return accepted
}

// Running reports whether the background connection activity is live.
func (s *Store) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// CandleCounts returns the number of candles held per symbol, for visibility.
func (s *Store) CandleCounts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int, len(s.histories))
	for sym, h := range s.histories {
		counts[sym] = h.Len()
	}
	return counts
}
