package hyperliquid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strconv"
	"time"

	"neurabot/internal/candles"
)

// RESTClient talks to the venue's /info endpoint: market metadata, historical
// candles for backfill, and account state.
type RESTClient struct {
	baseURL       string
	walletAddress string
	httpClient    *http.Client
}

func NewRESTClient(baseURL, walletAddress string, timeout time.Duration) *RESTClient {
	return &RESTClient{
		baseURL:       baseURL,
		walletAddress: walletAddress,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

// info posts a payload to /info and decodes the response into out.
func (c *RESTClient) info(ctx context.Context, payload infoRequest, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/info", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("info %s: %s", payload.Type, b)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// TopSymbols returns the first n symbols of the tradable universe, in the
// venue's liquidity order. This set drives the stream subscription.
func (c *RESTClient) TopSymbols(ctx context.Context, n int) ([]string, error) {
	var meta metaResponse
	if err := c.info(ctx, infoRequest{Type: "meta"}, &meta); err != nil {
		return nil, err
	}

	symbols := make([]string, 0, n)
	for _, asset := range meta.Universe {
		if len(symbols) == n {
			break
		}
		if asset.Name != "" {
			symbols = append(symbols, asset.Name)
		}
	}
	return symbols, nil
}

// AllMids returns the current mid price per symbol. Unparsable entries are
// skipped.
func (c *RESTClient) AllMids(ctx context.Context) (map[string]float64, error) {
	var raw map[string]string
	if err := c.info(ctx, infoRequest{Type: "allMids"}, &raw); err != nil {
		return nil, err
	}

	mids := make(map[string]float64, len(raw))
	for sym, s := range raw {
		px, err := parsePrice(s)
		if err != nil {
			continue
		}
		mids[sym] = px
	}
	return mids, nil
}

// parsePrice parses a venue price string, rejecting the non-finite values
// ParseFloat would otherwise admit.
func parsePrice(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite price: %s", s)
	}
	return v, nil
}

// CandleSnapshot fetches up to limit historical candles for a symbol, oldest
// first, for seeding the live store. Rows with unparsable fields are skipped
// rather than failing the whole snapshot.
func (c *RESTClient) CandleSnapshot(ctx context.Context, symbol string, interval Interval, limit int) ([]candles.Candle, error) {
	end := time.Now().UnixMilli()
	start := end - int64(limit)*interval.Duration().Milliseconds()

	var rows []wireCandle
	err := c.info(ctx, infoRequest{
		Type: "candleSnapshot",
		Req: candleSnapshotReq{
			Coin:      symbol,
			Interval:  string(interval),
			StartTime: start,
			EndTime:   end,
		},
	}, &rows)
	if err != nil {
		return nil, err
	}

	out := make([]candles.Candle, 0, len(rows))
	for _, row := range rows {
		cdl, err := parseWireCandle(row)
		if err != nil {
			continue
		}
		out = append(out, cdl)
	}

	// The seed path requires oldest-first order; the venue usually delivers
	// it but does not guarantee it.
	sort.Slice(out, func(i, j int) bool { return out[i].BucketStart < out[j].BucketStart })
	return out, nil
}

func parseWireCandle(row wireCandle) (candles.Candle, error) {
	if row.Time <= 0 {
		return candles.Candle{}, fmt.Errorf("bad candle time: %d", row.Time)
	}
	open, err := parsePrice(row.Open)
	if err != nil {
		return candles.Candle{}, err
	}
	high, err := parsePrice(row.High)
	if err != nil {
		return candles.Candle{}, err
	}
	low, err := parsePrice(row.Low)
	if err != nil {
		return candles.Candle{}, err
	}
	closePx, err := parsePrice(row.Close)
	if err != nil {
		return candles.Candle{}, err
	}
	return candles.Candle{
		BucketStart: row.Time,
		Open:        open,
		High:        high,
		Low:         low,
		Close:       closePx,
	}, nil
}

// UserState fetches the account snapshot for the configured wallet.
func (c *RESTClient) UserState(ctx context.Context) (*UserState, error) {
	var state UserState
	err := c.info(ctx, infoRequest{Type: "clearinghouseState", User: c.walletAddress}, &state)
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// EquityAndWithdrawable returns account equity and withdrawable balance in
// quote currency.
func (c *RESTClient) EquityAndWithdrawable(ctx context.Context) (float64, float64, error) {
	state, err := c.UserState(ctx)
	if err != nil {
		return 0, 0, err
	}

	equity, err := strconv.ParseFloat(state.MarginSummary.AccountValue, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse account value: %w", err)
	}
	withdrawable, _ := strconv.ParseFloat(state.Withdrawable, 64)
	return equity, withdrawable, nil
}

// OpenPositions returns positions with nonzero signed size.
func (c *RESTClient) OpenPositions(ctx context.Context) ([]Position, error) {
	state, err := c.UserState(ctx)
	if err != nil {
		return nil, err
	}

	var positions []Position
	for _, ap := range state.AssetPositions {
		szi, err := strconv.ParseFloat(ap.Position.Szi, 64)
		if err != nil || szi == 0 {
			continue
		}
		positions = append(positions, ap.Position)
	}
	return positions, nil
}
