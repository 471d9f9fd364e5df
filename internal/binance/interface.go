package binance

import "context"

// MarketData is the public futures market data surface the engine reads
type MarketData interface {
	GetFuturesKlines(ctx context.Context, symbol, interval string, limit int) ([]Kline, error)
	GetAll24hrTickers(ctx context.Context) ([]Futures24hrTicker, error)
	GetFuturesExchangeInfo(ctx context.Context) (*FuturesExchangeInfo, error)
}

// Ensure both FuturesClient and MockClient implement MarketData
var _ MarketData = (*FuturesClient)(nil)
var _ MarketData = (*MockClient)(nil)
