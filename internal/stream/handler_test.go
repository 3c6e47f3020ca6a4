package stream

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"neurabot/internal/candles"
)

func TestDecode_SubscriptionAck(t *testing.T) {
	raw := []byte(`{"channel":"subscriptionResponse","data":{"method":"subscribe","subscription":{"type":"trades","coin":"BTC"}}}`)

	msg, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, KindAck, msg.Kind)
	assert.Equal(t, "subscribe", msg.AckMethod)
}

func TestDecode_TradeBatch(t *testing.T) {
	raw := []byte(`{"channel":"trades","data":[
		{"coin":"BTC","side":"B","px":"65000.5","sz":"0.01","time":1700000000000},
		{"coin":"ETH","side":"A","px":"3200","sz":"1.5","time":1700000000500}
	]}`)

	msg, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, KindTradeBatch, msg.Kind)
	require.Len(t, msg.Trades, 2)
	assert.Zero(t, msg.Dropped)

	assert.Equal(t, candles.Trade{Symbol: "BTC", Price: 65000.5, Time: 1700000000000}, msg.Trades[0])
	assert.Equal(t, candles.Trade{Symbol: "ETH", Price: 3200, Time: 1700000000500}, msg.Trades[1])
}

func TestDecode_MalformedRecordsDroppedIndividually(t *testing.T) {
	raw := []byte(`{"channel":"trades","data":[
		{"coin":"","side":"B","px":"100","sz":"1","time":1700000000000},
		{"coin":"BTC","side":"B","px":"not-a-price","sz":"1","time":1700000000000},
		{"coin":"BTC","side":"B","px":"100","sz":"1","time":0},
		{"coin":"BTC","side":"B","px":"101.5","sz":"1","time":1700000000000}
	]}`)

	msg, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, KindTradeBatch, msg.Kind)
	assert.Equal(t, 3, msg.Dropped)
	require.Len(t, msg.Trades, 1)
	assert.Equal(t, 101.5, msg.Trades[0].Price)
}

func TestDecode_NonFinitePricesDropped(t *testing.T) {
	raw := []byte(`{"channel":"trades","data":[
		{"coin":"BTC","side":"B","px":"NaN","sz":"1","time":1700000000000},
		{"coin":"BTC","side":"B","px":"Inf","sz":"1","time":1700000000000},
		{"coin":"BTC","side":"B","px":"+Inf","sz":"1","time":1700000000000},
		{"coin":"BTC","side":"B","px":"-Inf","sz":"1","time":1700000000000},
		{"coin":"BTC","side":"B","px":"100","sz":"1","time":1700000000000}
	]}`)

	msg, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, KindTradeBatch, msg.Kind)
	assert.Equal(t, 4, msg.Dropped)
	require.Len(t, msg.Trades, 1)
	assert.Equal(t, 100.0, msg.Trades[0].Price)
}

func TestDecode_UnusableTradePayload(t *testing.T) {
	raw := []byte(`{"channel":"trades","data":{"not":"an array"}}`)

	msg, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, KindTradeBatch, msg.Kind)
	assert.Empty(t, msg.Trades)
	assert.Equal(t, 1, msg.Dropped)
}

func TestDecode_UnknownChannel(t *testing.T) {
	raw := []byte(`{"channel":"l2Book","data":{"coin":"BTC"}}`)

	msg, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, KindUnknown, msg.Kind)
}

func TestDecode_InvalidJSON(t *testing.T) {
	_, err := Decode([]byte(`{"channel":`))
	assert.Error(t, err)
}

type fakeIngester struct {
	trades []candles.Trade
	frozen map[int64]*candles.Candle
}

func (f *fakeIngester) Ingest(t candles.Trade) *candles.Candle {
	f.trades = append(f.trades, t)
	return f.frozen[t.Time]
}

type fakeArchiver struct {
	archived []candles.Candle
	symbols  []string
	err      error
}

func (f *fakeArchiver) ArchiveCandle(_ context.Context, symbol, _ string, c candles.Candle) error {
	f.archived = append(f.archived, c)
	f.symbols = append(f.symbols, symbol)
	return f.err
}

func TestTradeHandler_IngestsAndArchivesFrozenCandles(t *testing.T) {
	frozen := candles.Candle{BucketStart: 0, Open: 100, High: 110, Low: 95, Close: 108}
	ing := &fakeIngester{frozen: map[int64]*candles.Candle{
		1700000000500: &frozen,
	}}
	arch := &fakeArchiver{}

	handler := MakeTradeHandler(zap.NewNop(), ing, arch, "15m")
	handler([]byte(`{"channel":"trades","data":[
		{"coin":"BTC","side":"B","px":"100","sz":"1","time":1700000000000},
		{"coin":"BTC","side":"B","px":"108","sz":"1","time":1700000000500}
	]}`))

	require.Len(t, ing.trades, 2)
	require.Len(t, arch.archived, 1)
	assert.Equal(t, frozen, arch.archived[0])
	assert.Equal(t, []string{"BTC"}, arch.symbols)
}

func TestTradeHandler_NilArchiver(t *testing.T) {
	frozen := candles.Candle{BucketStart: 0, Open: 100, High: 100, Low: 100, Close: 100}
	ing := &fakeIngester{frozen: map[int64]*candles.Candle{
		1700000000000: &frozen,
	}}

	handler := MakeTradeHandler(zap.NewNop(), ing, nil, "15m")
	assert.NotPanics(t, func() {
		handler([]byte(`{"channel":"trades","data":[{"coin":"BTC","side":"B","px":"100","sz":"1","time":1700000000000}]}`))
	})
	assert.Len(t, ing.trades, 1)
}

func TestTradeHandler_ArchiveFailureDoesNotStopBatch(t *testing.T) {
	frozen := candles.Candle{BucketStart: 0, Open: 1, High: 1, Low: 1, Close: 1}
	ing := &fakeIngester{frozen: map[int64]*candles.Candle{
		1700000000000: &frozen,
		1700000000500: &frozen,
	}}
	arch := &fakeArchiver{err: errors.New("db down")}

	handler := MakeTradeHandler(zap.NewNop(), ing, arch, "15m")
	handler([]byte(`{"channel":"trades","data":[
		{"coin":"BTC","side":"B","px":"1","sz":"1","time":1700000000000},
		{"coin":"ETH","side":"B","px":"1","sz":"1","time":1700000000500}
	]}`))

	assert.Len(t, ing.trades, 2)
	assert.Len(t, arch.archived, 2)
}

func TestTradeHandler_IgnoresAcksAndGarbage(t *testing.T) {
	ing := &fakeIngester{}
	handler := MakeTradeHandler(zap.NewNop(), ing, nil, "15m")

	handler([]byte(`{"channel":"subscriptionResponse","data":{"method":"subscribe"}}`))
	handler([]byte(`not json at all`))
	handler([]byte(`{"channel":"somethingElse","data":null}`))

	assert.Empty(t, ing.trades)
}
