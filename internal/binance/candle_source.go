package binance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"guardian-futures-engine/internal/analysis"
)

// ErrEmptyCandles is returned when the venue answers with no rows
var ErrEmptyCandles = errors.New("Empty candle data")

// CandleSource adapts MarketData klines to analysis candles
type CandleSource struct {
	md MarketData
}

// NewCandleSource wraps md
func NewCandleSource(md MarketData) *CandleSource {
	return &CandleSource{md: md}
}

// Candles returns ascending OHLC candles for symbol and interval
func (s *CandleSource) Candles(ctx context.Context, symbol, interval string, limit int) ([]analysis.Candle, error) {
	klines, err := s.md.GetFuturesKlines(ctx, strings.ToUpper(symbol), interval, limit)
	if err != nil {
		return nil, err
	}
	if len(klines) == 0 {
		return nil, ErrEmptyCandles
	}

	candles := make([]analysis.Candle, 0, len(klines))
	var last int64
	for i, k := range klines {
		if i > 0 && k.OpenTime <= last {
			return nil, fmt.Errorf("kline %d out of order: %d after %d", i, k.OpenTime, last)
		}
		last = k.OpenTime
		candles = append(candles, analysis.Candle{
			OpenTime: k.OpenTime,
			Open:     k.Open,
			High:     k.High,
			Low:      k.Low,
			Close:    k.Close,
		})
	}
	return candles, nil
}
