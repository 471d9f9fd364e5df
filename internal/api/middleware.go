package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"guardian-futures-engine/internal/auth"
	"guardian-futures-engine/internal/logging"
)

// HeaderRequestID carries the per-request trace id
const HeaderRequestID = "X-Request-ID"

// RateLimiter is a token bucket per client key
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	limit    rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows limit requests per window for each key
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		limit:    rate.Limit(float64(limit) / window.Seconds()),
		burst:    limit,
		idle:     10 * window,
		now:      time.Now,
	}
}

// Allow checks if a request is allowed for the given key
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cl, ok := r.limiters[key]
	if !ok {
		r.evictIdle(now)
		cl = &clientLimiter{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.limiters[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// evictIdle drops keys not seen for a while. Caller holds mu.
func (r *RateLimiter) evictIdle(now time.Time) {
	for key, cl := range r.limiters {
		if now.Sub(cl.lastSeen) > r.idle {
			delete(r.limiters, key)
		}
	}
}

// rateLimitMiddleware limits requests per authenticated client, or per IP
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := auth.GetClientID(c)
		if key == "" {
			key = c.ClientIP()
		}

		if !s.rateLimiter.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "Rate limit exceeded",
				"message": "Too many requests. Please slow down to avoid venue bans.",
			})
			return
		}
		c.Next()
	}
}

// requestIDMiddleware attaches a trace id and a logger to the request context
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, _ := logging.WithTraceContext(c.Request.Context(), c.GetHeader(HeaderRequestID))
		c.Request = c.Request.WithContext(ctx)
		c.Header(HeaderRequestID, logging.TraceIDFromContext(ctx))
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logging.APIContext(c.Request.Method, c.Request.URL.Path, c.Writer.Status()).
			WithTraceID(logging.TraceIDFromContext(c.Request.Context())).
			WithDuration(time.Since(start)).
			Debug("request served", "client_ip", c.ClientIP())
	}
}
