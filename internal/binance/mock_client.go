package binance

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"sort"
	"time"
)

// MockClient provides simulated market data for development/testing.
// Output is a pure function of symbol, interval and limit so repeated
// calls return identical candles.
type MockClient struct {
	prices map[string]float64
	now    func() time.Time
}

// NewMockClient creates a new mock client
func NewMockClient() *MockClient {
	return &MockClient{
		// Realistic base prices
		prices: map[string]float64{
			"BTCUSDT":  104500.00,
			"ETHUSDT":  3900.00,
			"BNBUSDT":  710.00,
			"SOLUSDT":  220.00,
			"XRPUSDT":  2.35,
			"ADAUSDT":  1.05,
			"DOGEUSDT": 0.40,
			"AVAXUSDT": 50.00,
			"DOTUSDT":  9.50,
			"LINKUSDT": 28.00,
			"LTCUSDT":  115.00,
			"NEARUSDT": 7.00,
			"APTUSDT":  13.50,
			"ARBUSDT":  1.10,
			"OPUSDT":   2.80,
		},
		now: time.Now,
	}
}

// WithClock pins the mock's notion of now
func (mc *MockClient) WithClock(now func() time.Time) *MockClient {
	mc.now = now
	return mc
}

// GetFuturesKlines returns simulated candlestick data
func (mc *MockClient) GetFuturesKlines(ctx context.Context, symbol, interval string, limit int) ([]Kline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []Kline{}, nil
	}

	basePrice, ok := mc.prices[symbol]
	if !ok {
		basePrice = 100.0
	}

	step := intervalDuration(interval)
	end := mc.now().UTC().Truncate(step)
	start := end.Add(-time.Duration(limit-1) * step)

	rng := rand.New(rand.NewSource(seedFor(symbol, interval)))
	klines := make([]Kline, limit)
	price := basePrice
	for i := 0; i < limit; i++ {
		// Sine-driven swings with noise
		drift := math.Sin(float64(i)/6.0) * 0.004
		noise := (rng.Float64() - 0.5) * 0.004
		open := price
		close := open * (1 + drift + noise)
		high := math.Max(open, close) * (1 + rng.Float64()*0.002)
		low := math.Min(open, close) * (1 - rng.Float64()*0.002)
		volume := 1000 + rng.Float64()*9000

		openTime := start.Add(time.Duration(i) * step)
		klines[i] = Kline{
			OpenTime:         openTime.UnixMilli(),
			Open:             open,
			High:             high,
			Low:              low,
			Close:            close,
			Volume:           volume,
			CloseTime:        openTime.Add(step).UnixMilli() - 1,
			QuoteAssetVolume: volume * close,
			NumberOfTrades:   100 + rng.Intn(900),
		}
		price = close
	}
	return klines, nil
}

// GetAll24hrTickers returns one ticker per known symbol
func (mc *MockClient) GetAll24hrTickers(ctx context.Context) ([]Futures24hrTicker, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tickers := make([]Futures24hrTicker, 0, len(mc.prices))
	for _, symbol := range mc.symbols() {
		price := mc.prices[symbol]
		rng := rand.New(rand.NewSource(seedFor(symbol, "24hr")))
		volume := 1e5 + rng.Float64()*1e6
		tickers = append(tickers, Futures24hrTicker{
			Symbol:             symbol,
			PriceChangePercent: (rng.Float64() - 0.5) * 10,
			LastPrice:          price,
			Volume:             volume,
			QuoteVolume:        volume * price,
		})
	}
	return tickers, nil
}

// GetFuturesExchangeInfo returns a TRADING USDT perpetual per known symbol
func (mc *MockClient) GetFuturesExchangeInfo(ctx context.Context) (*FuturesExchangeInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info := &FuturesExchangeInfo{ServerTime: mc.now().UnixMilli(), Timezone: "UTC"}
	for _, symbol := range mc.symbols() {
		step := "1"
		switch {
		case mc.prices[symbol] > 10000:
			step = "0.001"
		case mc.prices[symbol] > 1000:
			step = "0.01"
		case mc.prices[symbol] > 10:
			step = "0.1"
		}
		info.Symbols = append(info.Symbols, FuturesSymbolInfo{
			Symbol:       symbol,
			Pair:         symbol,
			ContractType: "PERPETUAL",
			Status:       "TRADING",
			BaseAsset:    symbol[:len(symbol)-4],
			QuoteAsset:   "USDT",
			Filters: []FuturesSymbolFilter{
				{FilterType: "LOT_SIZE", StepSize: step, MinQty: step},
			},
		})
	}
	return info, nil
}

func (mc *MockClient) symbols() []string {
	out := make([]string, 0, len(mc.prices))
	for s := range mc.prices {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func seedFor(parts ...string) int64 {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return int64(h.Sum64() & math.MaxInt64)
}

func intervalDuration(interval string) time.Duration {
	switch interval {
	case "1m":
		return time.Minute
	case "3m":
		return 3 * time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "30m":
		return 30 * time.Minute
	case "1h":
		return time.Hour
	case "4h":
		return 4 * time.Hour
	case "1d":
		return 24 * time.Hour
	default:
		return time.Hour
	}
}
