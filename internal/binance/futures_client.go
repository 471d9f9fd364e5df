package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"guardian-futures-engine/internal/logging"
)

// Retry configuration for API calls
const (
	defaultMaxRetries = 3
	baseRetryDelay    = 500 * time.Millisecond
	maxRetryDelay     = 5 * time.Second
)

const (
	// FuturesBaseURL is the production Binance Futures API URL
	FuturesBaseURL = "https://fapi.binance.com"
)

// APIError is a non-success response from Binance
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Binance HTTP %d: %s", e.StatusCode, e.Body)
}

// FuturesClient reads public USDT-M futures market data
type FuturesClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *RateLimiter
	maxRetries int
	retryDelay func(attempt int) time.Duration
}

// ClientOption configures a FuturesClient
type ClientOption func(*FuturesClient)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *FuturesClient) { c.httpClient = hc }
}

// WithRateLimiter shares a limiter between clients
func WithRateLimiter(rl *RateLimiter) ClientOption {
	return func(c *FuturesClient) { c.limiter = rl }
}

// WithMaxRetries sets how many times a transient failure is retried
func WithMaxRetries(n int) ClientOption {
	return func(c *FuturesClient) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithRetryDelay overrides the backoff schedule
func WithRetryDelay(f func(attempt int) time.Duration) ClientOption {
	return func(c *FuturesClient) { c.retryDelay = f }
}

// NewFuturesClient creates a client for baseURL (FuturesBaseURL when empty)
func NewFuturesClient(baseURL string, opts ...ClientOption) *FuturesClient {
	if baseURL == "" {
		baseURL = FuturesBaseURL
	}
	c := &FuturesClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		maxRetries: defaultMaxRetries,
		retryDelay: calculateRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.limiter == nil {
		c.limiter = NewRateLimiter(DefaultMaxWeight)
	}
	return c
}

// RateLimiter returns the client's limiter
func (c *FuturesClient) RateLimiter() *RateLimiter {
	return c.limiter
}

// ==================== MARKET DATA ====================

// Health fails while the IP ban circuit is open
func (c *FuturesClient) Health(ctx context.Context) error {
	if !c.limiter.IsCircuitOpen() {
		return nil
	}
	status := c.limiter.GetStatus()
	return fmt.Errorf("rate limit circuit open until %v", status["ban_until"])
}

// GetFuturesKlines retrieves candlestick data for futures
func (c *FuturesClient) GetFuturesKlines(ctx context.Context, symbol, interval string, limit int) ([]Kline, error) {
	resp, err := c.publicGet(ctx, "/fapi/v1/klines", map[string]string{
		"symbol":   symbol,
		"interval": interval,
		"limit":    strconv.Itoa(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("error fetching klines: %w", err)
	}

	var rawKlines [][]interface{}
	if err := json.Unmarshal(resp, &rawKlines); err != nil {
		return nil, fmt.Errorf("error parsing klines: %w", err)
	}

	klines := make([]Kline, len(rawKlines))
	for i, raw := range rawKlines {
		k, err := parseKline(raw)
		if err != nil {
			return nil, fmt.Errorf("error parsing kline %d: %w", i, err)
		}
		klines[i] = k
	}

	return klines, nil
}

// GetAll24hrTickers retrieves 24 hour price change statistics for all symbols
func (c *FuturesClient) GetAll24hrTickers(ctx context.Context) ([]Futures24hrTicker, error) {
	resp, err := c.publicGet(ctx, "/fapi/v1/ticker/24hr", nil)
	if err != nil {
		return nil, fmt.Errorf("error fetching all 24hr tickers: %w", err)
	}

	var tickers []Futures24hrTicker
	if err := json.Unmarshal(resp, &tickers); err != nil {
		return nil, fmt.Errorf("error parsing 24hr tickers: %w", err)
	}

	return tickers, nil
}

// ==================== EXCHANGE INFO ====================

// GetFuturesExchangeInfo retrieves futures exchange information
func (c *FuturesClient) GetFuturesExchangeInfo(ctx context.Context) (*FuturesExchangeInfo, error) {
	resp, err := c.publicGet(ctx, "/fapi/v1/exchangeInfo", nil)
	if err != nil {
		return nil, fmt.Errorf("error fetching exchange info: %w", err)
	}

	var exchangeInfo FuturesExchangeInfo
	if err := json.Unmarshal(resp, &exchangeInfo); err != nil {
		return nil, fmt.Errorf("error parsing exchange info: %w", err)
	}

	return &exchangeInfo, nil
}

// TopSymbolsByQuoteVolume ranks trading USDT perpetuals by 24h quote volume
func TopSymbolsByQuoteVolume(ctx context.Context, md MarketData, n int) ([]string, error) {
	info, err := md.GetFuturesExchangeInfo(ctx)
	if err != nil {
		return nil, err
	}
	tradable := make(map[string]bool, len(info.Symbols))
	for _, s := range info.Symbols {
		if s.IsUSDTPerpetual() {
			tradable[s.Symbol] = true
		}
	}

	tickers, err := md.GetAll24hrTickers(ctx)
	if err != nil {
		return nil, err
	}
	ranked := make([]Futures24hrTicker, 0, len(tickers))
	for _, t := range tickers {
		if tradable[t.Symbol] {
			ranked = append(ranked, t)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].QuoteVolume == ranked[j].QuoteVolume {
			return ranked[i].Symbol < ranked[j].Symbol
		}
		return ranked[i].QuoteVolume > ranked[j].QuoteVolume
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}

	symbols := make([]string, len(ranked))
	for i, t := range ranked {
		symbols[i] = t.Symbol
	}
	return symbols, nil
}

// LotSizeSteps returns the LOT_SIZE step of every trading USDT perpetual
func LotSizeSteps(ctx context.Context, md MarketData) (map[string]SymbolLot, error) {
	info, err := md.GetFuturesExchangeInfo(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]SymbolLot)
	for _, s := range info.Symbols {
		if !s.IsUSDTPerpetual() {
			continue
		}
		step, minQty, ok := s.LotSize()
		if !ok {
			continue
		}
		out[s.Symbol] = SymbolLot{
			StepSize:          step,
			MinQty:            minQty,
			TickSize:          s.TickSize(),
			MinNotional:       s.MinNotional(),
			QuantityPrecision: s.QuantityPrecision,
			PricePrecision:    s.PricePrecision,
		}
	}
	return out, nil
}

// SymbolLot is the sizing-relevant part of a symbol's filters
type SymbolLot struct {
	StepSize          float64
	MinQty            float64
	TickSize          float64
	MinNotional       float64
	QuantityPrecision int
	PricePrecision    int
}

// ==================== TRANSPORT ====================

// publicGet performs an unauthenticated GET request with rate limiting and retry
func (c *FuturesClient) publicGet(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	var lastErr error

	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	reqURL := c.baseURL + endpoint
	if len(values) > 0 {
		reqURL = reqURL + "?" + values.Encode()
	}

	log := logging.BinanceAPIContext(endpoint, paramFields(params))

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		// Check rate limiter before making request
		if err := c.limiter.Wait(ctx, endpoint, params); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if attempt < c.maxRetries {
				delay := c.retryDelay(attempt)
				log.WithError(err).Warn("public GET failed, retrying",
					"attempt", attempt+1, "delay", delay.String())
				if err := sleepCtx(ctx, delay); err != nil {
					return nil, err
				}
				continue
			}
			return nil, err
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		// Update rate limiter from headers
		if usedWeight := resp.Header.Get("X-MBX-USED-WEIGHT-1M"); usedWeight != "" {
			if weight, err := strconv.Atoi(usedWeight); err == nil {
				c.limiter.UpdateFromHeaders(weight)
			}
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = &APIError{StatusCode: resp.StatusCode, Body: string(body)}

			// Check for rate limit error and trigger circuit breaker
			if resp.StatusCode == 418 || strings.Contains(string(body), "-1003") {
				c.limiter.RecordRateLimitError(ParseBanUntilFromError(string(body)))
				return nil, lastErr
			}

			if isRetryableError(resp.StatusCode, string(body)) && attempt < c.maxRetries {
				delay := c.retryDelay(attempt)
				log.Warn("public GET returned error status, retrying",
					"status", resp.StatusCode, "attempt", attempt+1, "delay", delay.String())
				if err := sleepCtx(ctx, delay); err != nil {
					return nil, err
				}
				continue
			}
			return nil, lastErr
		}

		c.limiter.RecordSuccess()
		return body, nil
	}

	return nil, lastErr
}

// isRetryableError checks if an error is transient and should be retried
func isRetryableError(statusCode int, body string) bool {
	// Retry on rate limits (429) and server errors (5xx)
	if statusCode == http.StatusTooManyRequests || statusCode >= 500 {
		return true
	}
	// Retry on specific Binance errors that are transient
	if strings.Contains(body, "-1001") || // DISCONNECTED
		strings.Contains(body, "-1016") { // SERVICE_SHUTTING_DOWN
		return true
	}
	return false
}

// calculateRetryDelay returns delay with exponential backoff and jitter
func calculateRetryDelay(attempt int) time.Duration {
	delay := baseRetryDelay * time.Duration(1<<uint(attempt)) // 2^attempt
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	// Add jitter (±25%)
	jitter := time.Duration(rand.Int63n(int64(delay) / 2))
	return delay + jitter - (delay / 4)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// parseKline reads one row of the klines array
func parseKline(raw []interface{}) (Kline, error) {
	if len(raw) < 6 {
		return Kline{}, fmt.Errorf("expected at least 6 fields, got %d", len(raw))
	}
	openTime, ok := raw[0].(float64)
	if !ok {
		return Kline{}, fmt.Errorf("open time is %T", raw[0])
	}

	k := Kline{OpenTime: int64(openTime)}
	fields := []*float64{&k.Open, &k.High, &k.Low, &k.Close, &k.Volume}
	for i, dst := range fields {
		v, err := parseFloat(raw[i+1])
		if err != nil {
			return Kline{}, err
		}
		*dst = v
	}

	if len(raw) >= 11 {
		if ct, ok := raw[6].(float64); ok {
			k.CloseTime = int64(ct)
		}
		k.QuoteAssetVolume, _ = parseFloat(raw[7])
		if n, ok := raw[8].(float64); ok {
			k.NumberOfTrades = int(n)
		}
		k.TakerBuyBaseAssetVolume, _ = parseFloat(raw[9])
		k.TakerBuyQuoteAssetVolume, _ = parseFloat(raw[10])
	}
	return k, nil
}

func parseFloat(val interface{}) (float64, error) {
	switch v := val.(type) {
	case string:
		return strconv.ParseFloat(v, 64)
	case float64:
		return v, nil
	default:
		return 0, fmt.Errorf("unexpected value type %T", val)
	}
}

func paramFields(params map[string]string) map[string]interface{} {
	fields := make(map[string]interface{}, len(params))
	for k, v := range params {
		fields[k] = v
	}
	return fields
}
