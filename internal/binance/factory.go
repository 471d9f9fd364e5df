package binance

import (
	"net/http"
	"time"

	"guardian-futures-engine/config"
	"guardian-futures-engine/internal/logging"
)

// NewMarketData builds the real client, or the mock when MockMode is set
func NewMarketData(cfg config.BinanceConfig) MarketData {
	if cfg.MockMode {
		logging.WithComponent("binance").Info("using mock market data")
		return NewMockClient()
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	opts := []ClientOption{
		WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, WithMaxRetries(cfg.MaxRetries))
	}
	if cfg.MaxWeight > 0 {
		opts = append(opts, WithRateLimiter(NewRateLimiter(cfg.MaxWeight)))
	}
	return NewFuturesClient(cfg.FuturesBaseURL, opts...)
}
