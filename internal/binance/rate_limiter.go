package binance

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"guardian-futures-engine/internal/logging"
)

// ErrBanned is returned while Binance has the client IP banned.
var ErrBanned = errors.New("rate limit: circuit breaker open, request blocked")

// DefaultMaxWeight is the futures request weight budget per minute
const DefaultMaxWeight = 2400

// endpointWeights holds request weights for the public endpoints in use
var endpointWeights = map[string]int{
	"/fapi/v1/klines":       5,
	"/fapi/v1/exchangeInfo": 1,
	"/fapi/v1/ticker/24hr":  1, // 1 with symbol, 40 without
}

// RateLimiter paces requests by Binance weight and opens a circuit on bans
type RateLimiter struct {
	limiter *rate.Limiter

	mu                sync.RWMutex
	maxWeight         int
	reportedWeight    int
	banUntil          time.Time
	consecutiveErrors int
}

// NewRateLimiter creates a limiter spreading maxWeight evenly over a minute
func NewRateLimiter(maxWeight int) *RateLimiter {
	if maxWeight <= 0 {
		maxWeight = DefaultMaxWeight
	}
	burst := maxWeight / 10
	if burst < 40 {
		burst = 40
	}
	return &RateLimiter{
		limiter:   rate.NewLimiter(rate.Limit(float64(maxWeight)/60.0), burst),
		maxWeight: maxWeight,
	}
}

// Wait blocks until weight is available or ctx is done
func (r *RateLimiter) Wait(ctx context.Context, endpoint string, params map[string]string) error {
	r.mu.RLock()
	banUntil := r.banUntil
	r.mu.RUnlock()
	if time.Now().Before(banUntil) {
		return fmt.Errorf("%w until %s", ErrBanned, banUntil.Format("15:04:05"))
	}

	return r.limiter.WaitN(ctx, endpointWeight(endpoint, params))
}

// RecordSuccess resets the consecutive error count
func (r *RateLimiter) RecordSuccess() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consecutiveErrors = 0
}

// RecordRateLimitError records a rate limit error and opens the circuit
func (r *RateLimiter) RecordRateLimitError(banUntilMs int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.consecutiveErrors++

	var banUntil time.Time
	if banUntilMs > 0 {
		banUntil = time.UnixMilli(banUntilMs)
	} else {
		// Default: exponential backoff based on consecutive errors
		backoff := time.Duration(1<<uint(r.consecutiveErrors)) * time.Minute
		if backoff > 30*time.Minute {
			backoff = 30 * time.Minute
		}
		banUntil = time.Now().Add(backoff)
	}
	r.banUntil = banUntil

	logging.WithComponent("rate-limiter").Warn("circuit breaker open",
		"ban_until", banUntil.Format(time.RFC3339), "consecutive_errors", r.consecutiveErrors)
}

// UpdateFromHeaders records the weight Binance reports as used this minute
func (r *RateLimiter) UpdateFromHeaders(usedWeight1m int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reportedWeight = usedWeight1m

	usagePct := float64(usedWeight1m) / float64(r.maxWeight) * 100
	if usagePct > 60 {
		logging.WithComponent("rate-limiter").Warn("weight usage high",
			"used", usedWeight1m, "max", r.maxWeight, "pct", usagePct)
	}
}

// IsCircuitOpen returns true while a ban is in force
func (r *RateLimiter) IsCircuitOpen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return time.Now().Before(r.banUntil)
}

// GetStatus returns limiter state for health output
func (r *RateLimiter) GetStatus() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := map[string]interface{}{
		"max_weight":         r.maxWeight,
		"reported_weight":    r.reportedWeight,
		"consecutive_errors": r.consecutiveErrors,
		"circuit_open":       time.Now().Before(r.banUntil),
	}
	if time.Now().Before(r.banUntil) {
		status["ban_until"] = r.banUntil.Format(time.RFC3339)
		status["ban_remaining_sec"] = int(time.Until(r.banUntil).Seconds())
	}
	return status
}

// endpointWeight returns the weight for an endpoint
func endpointWeight(endpoint string, params map[string]string) int {
	if endpoint == "/fapi/v1/ticker/24hr" && params["symbol"] == "" {
		return 40
	}
	if weight, ok := endpointWeights[endpoint]; ok {
		return weight
	}
	return 1 // Default weight
}

var banUntilRegex = regexp.MustCompile(`banned until (\d+)`)

// ParseBanUntilFromError extracts ban timestamp from Binance error message
func ParseBanUntilFromError(errMsg string) int64 {
	// Error format: "banned until 1766824120342"
	m := banUntilRegex.FindStringSubmatch(errMsg)
	if m == nil {
		return 0
	}
	banUntil, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0
	}

	// Sanity check - should be a millisecond timestamp in the future
	if banUntil > time.Now().UnixMilli() && banUntil < time.Now().Add(24*time.Hour).UnixMilli() {
		return banUntil
	}
	return 0
}
