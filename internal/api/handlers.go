package api

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"guardian-futures-engine/internal/logging"
	"guardian-futures-engine/internal/signal"
	"guardian-futures-engine/internal/universe"
)

const defaultSymbol = "BTCUSDT"

// UniverseResponse is the ranked allowlist payload
type UniverseResponse struct {
	TS     int64            `json:"ts"`
	Source string           `json:"source"`
	Top    []universe.Entry `json:"top"`
}

// handleAnalyze evaluates one symbol. Every outcome is HTTP 200; the state
// field carries the advice.
func (s *Server) handleAnalyze(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	if c.Query("universe") == "1" {
		s.handleUniverse(c)
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(c.Query("symbol")))
	if symbol == "" {
		symbol = defaultSymbol
	}

	req := signal.Request{
		Symbol:   symbol,
		Equity:   s.parseEquity(c.Query("equity")),
		TestMode: c.Query("test") == "1",
	}

	res := s.analyzer.Evaluate(c.Request.Context(), req)
	c.JSON(http.StatusOK, res)
}

// parseEquity returns the default when raw is empty and NaN when it does not
// parse, which the pipeline rejects as BLOCKED.
func (s *Server) parseEquity(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.defaultEquity
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// handleUniverse returns the ranked allowlist with its source label
func (s *Server) handleUniverse(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	listing, err := s.universe.Listing(c.Request.Context())
	if err != nil {
		logging.FromContext(c.Request.Context()).WithError(err).Error("Failed to load universe")
		errorResponse(c, http.StatusServiceUnavailable, "universe unavailable")
		return
	}

	c.JSON(http.StatusOK, UniverseResponse{
		TS:     s.now().UnixMilli(),
		Source: listing.Source,
		Top:    listing.Top,
	})
}

// handleHealth runs the configured dependency checks
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	code := http.StatusOK
	checks := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			checks[name] = "unhealthy: " + err.Error()
			status = "unhealthy"
			code = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "healthy"
	}

	body := gin.H{
		"status":        status,
		"engineVersion": signal.EngineVersion,
		"uptime":        s.now().Sub(s.started).Round(time.Second).String(),
		"checks":        checks,
	}
	if s.hub != nil {
		body["wsClients"] = s.hub.GetClientCount()
	}
	c.JSON(code, body)
}
