package hyperliquid

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ConnState is the connection state machine position. Transitions:
// Disconnected → Connecting → Subscribing → Streaming → (error) Disconnected,
// with Stopped terminal from anywhere once the run context is cancelled.
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateSubscribing
	StateStreaming
	StateStopped
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateSubscribing:
		return "subscribing"
	case StateStreaming:
		return "streaming"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// WSClient owns one persistent websocket connection to the trade stream,
// subscribes to the "trades" channel per symbol, and hands raw frames to the
// registered handler. It reconnects forever with linear-capped backoff until
// its run context is cancelled.
type WSClient struct {
	url         string
	backoffBase time.Duration
	backoffMax  time.Duration
	handler     func([]byte)
	logger      *zap.Logger

	state atomic.Int32
}

// NewWSClient creates a websocket client for the given stream URL.
func NewWSClient(url string, backoffBase, backoffMax time.Duration, logger *zap.Logger) *WSClient {
	if backoffBase <= 0 {
		backoffBase = 5 * time.Second
	}
	if backoffMax <= 0 {
		backoffMax = 60 * time.Second
	}
	return &WSClient{
		url:         url,
		backoffBase: backoffBase,
		backoffMax:  backoffMax,
		logger:      logger,
	}
}

// SetMessageHandler sets the function to handle incoming raw frames. Must be
// called before Run.
func (c *WSClient) SetMessageHandler(h func([]byte)) {
	c.handler = h
}

// State reports the current connection state.
func (c *WSClient) State() ConnState {
	return ConnState(c.state.Load())
}

// Run connects, subscribes, and streams until ctx is cancelled. Every
// transport failure is retried after a backoff of min(base*attempt, max);
// the attempt counter resets once streaming is reached. Run never returns an
// error: transport failures are an operational condition, observable only
// through logs and State.
func (c *WSClient) Run(ctx context.Context, symbols []string) {
	retries := 0
	for {
		if ctx.Err() != nil {
			c.setState(StateStopped)
			return
		}

		streamed, err := c.connectAndStream(ctx, symbols)
		if ctx.Err() != nil {
			c.setState(StateStopped)
			return
		}
		if streamed {
			retries = 0
		}
		retries++
		delay := c.backoffDelay(retries)
		c.logger.Warn("stream connection lost, reconnecting",
			zap.Int("attempt", retries),
			zap.Duration("backoff", delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			c.setState(StateStopped)
			return
		case <-time.After(delay):
		}
	}
}

// connectAndStream performs one full connection cycle: dial, subscribe, read
// until failure. Returns whether the streaming state was reached, so the
// caller can reset its backoff counter.
func (c *WSClient) connectAndStream(ctx context.Context, symbols []string) (bool, error) {
	c.setState(StateConnecting)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		c.setState(StateDisconnected)
		return false, fmt.Errorf("dial %s: %w", c.url, err)
	}
	defer conn.Close()

	// Unblock ReadMessage when the run context is cancelled.
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-connCtx.Done()
		_ = conn.Close()
	}()

	c.setState(StateSubscribing)
	for _, sym := range symbols {
		req := subscribeRequest{
			Method:       "subscribe",
			Subscription: subscription{Type: "trades", Coin: sym},
		}
		if err := conn.WriteJSON(req); err != nil {
			c.setState(StateDisconnected)
			return false, fmt.Errorf("subscribe %s: %w", sym, err)
		}
	}
	c.logger.Info("subscriptions sent", zap.Int("symbols", len(symbols)))

	// Acks are informational only; data is accepted immediately rather than
	// gating on out-of-order acknowledgements.
	c.setState(StateStreaming)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			c.setState(StateDisconnected)
			return true, fmt.Errorf("read: %w", err)
		}
		if c.handler != nil {
			c.handler(msg)
		}
	}
}

// backoffDelay computes the reconnect delay for the given attempt count.
func (c *WSClient) backoffDelay(attempt int) time.Duration {
	d := time.Duration(attempt) * c.backoffBase
	if d > c.backoffMax {
		return c.backoffMax
	}
	return d
}

func (c *WSClient) setState(s ConnState) {
	c.state.Store(int32(s))
}
