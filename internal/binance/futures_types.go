package binance

import (
	"strconv"
)

// Kline represents a futures candlestick
type Kline struct {
	OpenTime                 int64   `json:"openTime"`
	Open                     float64 `json:"open,string"`
	High                     float64 `json:"high,string"`
	Low                      float64 `json:"low,string"`
	Close                    float64 `json:"close,string"`
	Volume                   float64 `json:"volume,string"`
	CloseTime                int64   `json:"closeTime"`
	QuoteAssetVolume         float64 `json:"quoteAssetVolume,string"`
	NumberOfTrades           int     `json:"numberOfTrades"`
	TakerBuyBaseAssetVolume  float64 `json:"takerBuyBaseAssetVolume,string"`
	TakerBuyQuoteAssetVolume float64 `json:"takerBuyQuoteAssetVolume,string"`
}

// Futures24hrTicker represents 24 hour price change statistics for a futures symbol
type Futures24hrTicker struct {
	Symbol             string  `json:"symbol"`
	PriceChangePercent float64 `json:"priceChangePercent,string"`
	LastPrice          float64 `json:"lastPrice,string"`
	Volume             float64 `json:"volume,string"`
	QuoteVolume        float64 `json:"quoteVolume,string"`
	OpenTime           int64   `json:"openTime"`
	CloseTime          int64   `json:"closeTime"`
	Count              int64   `json:"count"`
}

// ==================== SYMBOL INFO TYPES ====================

// FuturesSymbolFilter represents a filter from the symbol's filters array
type FuturesSymbolFilter struct {
	FilterType string `json:"filterType"`
	TickSize   string `json:"tickSize,omitempty"`
	MinQty     string `json:"minQty,omitempty"`
	MaxQty     string `json:"maxQty,omitempty"`
	StepSize   string `json:"stepSize,omitempty"`
	Notional   string `json:"notional,omitempty"`
}

// FuturesSymbolInfo represents futures symbol information
type FuturesSymbolInfo struct {
	Symbol            string                `json:"symbol"`
	Pair              string                `json:"pair"`
	ContractType      string                `json:"contractType"`
	Status            string                `json:"status"`
	BaseAsset         string                `json:"baseAsset"`
	QuoteAsset        string                `json:"quoteAsset"`
	PricePrecision    int                   `json:"pricePrecision"`
	QuantityPrecision int                   `json:"quantityPrecision"`
	Filters           []FuturesSymbolFilter `json:"filters"`
}

// IsUSDTPerpetual reports a trading USDT-margined perpetual
func (s FuturesSymbolInfo) IsUSDTPerpetual() bool {
	return s.Status == "TRADING" && s.QuoteAsset == "USDT" && s.ContractType == "PERPETUAL"
}

// filter returns the first filter of the given type
func (s FuturesSymbolInfo) filter(filterType string) (FuturesSymbolFilter, bool) {
	for _, f := range s.Filters {
		if f.FilterType == filterType {
			return f, true
		}
	}
	return FuturesSymbolFilter{}, false
}

// LotSize returns the LOT_SIZE step and minimum quantity
func (s FuturesSymbolInfo) LotSize() (step, minQty float64, ok bool) {
	f, found := s.filter("LOT_SIZE")
	if !found {
		return 0, 0, false
	}
	step, err := strconv.ParseFloat(f.StepSize, 64)
	if err != nil || step <= 0 {
		return 0, 0, false
	}
	minQty, _ = strconv.ParseFloat(f.MinQty, 64)
	return step, minQty, true
}

// TickSize returns the PRICE_FILTER tick size
func (s FuturesSymbolInfo) TickSize() float64 {
	f, found := s.filter("PRICE_FILTER")
	if !found {
		return 0
	}
	tick, _ := strconv.ParseFloat(f.TickSize, 64)
	return tick
}

// MinNotional returns the MIN_NOTIONAL filter value
func (s FuturesSymbolInfo) MinNotional() float64 {
	f, found := s.filter("MIN_NOTIONAL")
	if !found {
		return 0
	}
	n, _ := strconv.ParseFloat(f.Notional, 64)
	return n
}

// FuturesExchangeInfo represents futures exchange information
type FuturesExchangeInfo struct {
	ServerTime int64               `json:"serverTime"`
	Symbols    []FuturesSymbolInfo `json:"symbols"`
	Timezone   string              `json:"timezone"`
}
