package binance

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func noDelay(int) time.Duration { return 0 }

func newTestClient(t *testing.T, handler http.HandlerFunc) *FuturesClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewFuturesClient(srv.URL, WithRetryDelay(noDelay), WithMaxRetries(2))
}

func TestGetFuturesKlines(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fapi/v1/klines" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("symbol") != "BTCUSDT" || q.Get("interval") != "15m" || q.Get("limit") != "2" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		w.Header().Set("X-MBX-USED-WEIGHT-1M", "12")
		w.Write([]byte(`[
			[1700000000000,"100.0","101.5","99.5","101.0","10",1700000899999,"1000",42,"5","500","0"],
			[1700000900000,"101.0","102.0","100.5","100.8","8",1700001799999,"800",30,"4","400","0"]
		]`))
	})

	klines, err := c.GetFuturesKlines(context.Background(), "BTCUSDT", "15m", 2)
	if err != nil {
		t.Fatalf("GetFuturesKlines: %v", err)
	}
	if len(klines) != 2 {
		t.Fatalf("len = %d, want 2", len(klines))
	}
	k := klines[0]
	if k.OpenTime != 1700000000000 || k.Open != 100 || k.High != 101.5 || k.Low != 99.5 || k.Close != 101 {
		t.Errorf("unexpected kline: %+v", k)
	}
	if k.NumberOfTrades != 42 || k.CloseTime != 1700000899999 {
		t.Errorf("unexpected trailing fields: %+v", k)
	}
	if got := c.RateLimiter().GetStatus()["reported_weight"]; got != 12 {
		t.Errorf("reported_weight = %v, want 12", got)
	}
}

func TestGetFuturesKlinesMalformedRow(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[1700000000000,"100.0","x"]]`))
	})
	if _, err := c.GetFuturesKlines(context.Background(), "BTCUSDT", "5m", 1); err == nil {
		t.Fatal("expected error for short kline row")
	}
}

func TestPublicGetRetriesServerErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[]`))
	})

	klines, err := c.GetFuturesKlines(context.Background(), "ETHUSDT", "5m", 10)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if len(klines) != 0 {
		t.Errorf("len = %d, want 0", len(klines))
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestPublicGetDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	})

	_, err := c.GetFuturesKlines(context.Background(), "NOPE", "5m", 10)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d", apiErr.StatusCode)
	}
	if !strings.Contains(err.Error(), "Binance HTTP 400") {
		t.Errorf("error text = %q", err.Error())
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestPublicGetBanOpensCircuit(t *testing.T) {
	banUntil := time.Now().Add(10 * time.Minute).UnixMilli()
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte(`{"code":-1003,"msg":"Way too many requests; IP banned until ` +
			itoa(banUntil) + `."}`))
	})

	if _, err := c.GetFuturesKlines(context.Background(), "BTCUSDT", "5m", 10); err == nil {
		t.Fatal("expected error on 418")
	}
	if !c.RateLimiter().IsCircuitOpen() {
		t.Fatal("circuit should be open after a ban")
	}
	if err := c.Health(context.Background()); err == nil || !strings.Contains(err.Error(), "circuit open") {
		t.Errorf("health should report the open circuit, got %v", err)
	}

	_, err := c.GetFuturesKlines(context.Background(), "BTCUSDT", "5m", 10)
	if !errors.Is(err, ErrBanned) {
		t.Fatalf("expected ErrBanned, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, banned request should not reach the server", calls)
	}
}

func TestHealthWithClosedCircuit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	if err := c.Health(context.Background()); err != nil {
		t.Errorf("expected healthy client, got %v", err)
	}
}

func TestPublicGetHonoursContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := c.GetFuturesKlines(ctx, "BTCUSDT", "5m", 10); err == nil {
		t.Fatal("expected context error")
	}
}

func TestTopSymbolsByQuoteVolume(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/fapi/v1/exchangeInfo":
			w.Write([]byte(`{"symbols":[
				{"symbol":"BTCUSDT","contractType":"PERPETUAL","status":"TRADING","quoteAsset":"USDT"},
				{"symbol":"ETHUSDT","contractType":"PERPETUAL","status":"TRADING","quoteAsset":"USDT"},
				{"symbol":"SOLUSDT","contractType":"PERPETUAL","status":"TRADING","quoteAsset":"USDT"},
				{"symbol":"BTCUSDT_250328","contractType":"CURRENT_QUARTER","status":"TRADING","quoteAsset":"USDT"},
				{"symbol":"ETHBUSD","contractType":"PERPETUAL","status":"TRADING","quoteAsset":"BUSD"}
			]}`))
		case "/fapi/v1/ticker/24hr":
			w.Write([]byte(`[
				{"symbol":"ETHUSDT","quoteVolume":"900"},
				{"symbol":"BTCUSDT","quoteVolume":"1000"},
				{"symbol":"SOLUSDT","quoteVolume":"50"},
				{"symbol":"BTCUSDT_250328","quoteVolume":"5000"},
				{"symbol":"ETHBUSD","quoteVolume":"7000"}
			]`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	got, err := TopSymbolsByQuoteVolume(context.Background(), c, 2)
	if err != nil {
		t.Fatalf("TopSymbolsByQuoteVolume: %v", err)
	}
	if len(got) != 2 || got[0] != "BTCUSDT" || got[1] != "ETHUSDT" {
		t.Errorf("got %v, want [BTCUSDT ETHUSDT]", got)
	}
}

func TestLotSizeSteps(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbols":[
			{"symbol":"BTCUSDT","contractType":"PERPETUAL","status":"TRADING","quoteAsset":"USDT",
			 "quantityPrecision":3,"pricePrecision":1,
			 "filters":[
				{"filterType":"PRICE_FILTER","tickSize":"0.10"},
				{"filterType":"LOT_SIZE","stepSize":"0.001","minQty":"0.001"},
				{"filterType":"MIN_NOTIONAL","notional":"100"}
			 ]},
			{"symbol":"NOLOTUSDT","contractType":"PERPETUAL","status":"TRADING","quoteAsset":"USDT","filters":[]}
		]}`))
	})

	steps, err := LotSizeSteps(context.Background(), c)
	if err != nil {
		t.Fatalf("LotSizeSteps: %v", err)
	}
	if len(steps) != 1 {
		t.Fatalf("len = %d, want 1", len(steps))
	}
	btc := steps["BTCUSDT"]
	if btc.StepSize != 0.001 || btc.MinQty != 0.001 || btc.TickSize != 0.1 || btc.MinNotional != 100 {
		t.Errorf("unexpected lot: %+v", btc)
	}
	if btc.QuantityPrecision != 3 || btc.PricePrecision != 1 {
		t.Errorf("unexpected precision: %+v", btc)
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   bool
	}{
		{429, "", true},
		{500, "", true},
		{503, "", true},
		{400, `{"code":-1001}`, true},
		{400, `{"code":-1016}`, true},
		{400, `{"code":-1121}`, false},
		{404, "", false},
	}
	for _, tt := range tests {
		if got := isRetryableError(tt.status, tt.body); got != tt.want {
			t.Errorf("isRetryableError(%d, %q) = %v, want %v", tt.status, tt.body, got, tt.want)
		}
	}
}

func TestCalculateRetryDelayBounds(t *testing.T) {
	for attempt := 0; attempt < 8; attempt++ {
		d := calculateRetryDelay(attempt)
		base := baseRetryDelay * time.Duration(1<<uint(attempt))
		if base > maxRetryDelay {
			base = maxRetryDelay
		}
		if d < base*3/4 || d > base*5/4 {
			t.Errorf("attempt %d: delay %s outside ±25%% of %s", attempt, d, base)
		}
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
