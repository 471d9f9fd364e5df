package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"guardian-futures-engine/config"
	"guardian-futures-engine/internal/auth"
	"guardian-futures-engine/internal/events"
	"guardian-futures-engine/internal/logging"
	"guardian-futures-engine/internal/signal"
	"guardian-futures-engine/internal/universe"
)

// Analyzer evaluates one symbol
type Analyzer interface {
	Evaluate(ctx context.Context, req signal.Request) *signal.Result
}

// UniverseLister serves the ranked allowlist
type UniverseLister interface {
	Listing(ctx context.Context) (*universe.Listing, error)
}

// HealthCheck probes one dependency
type HealthCheck = func(ctx context.Context) error

// Server represents the HTTP API server
type Server struct {
	router        *gin.Engine
	httpServer    *http.Server
	analyzer      Analyzer
	universe      UniverseLister
	eventBus      *events.EventBus
	hub           *WSHub
	config        config.ServerConfig
	defaultEquity float64
	jwtManager    *auth.JWTManager
	apiKeyHash    string
	authEnabled   bool
	rateLimiter   *RateLimiter
	checks        map[string]HealthCheck
	started       time.Time
	now           func() time.Time
	log           *logging.Logger
}

// Deps are the collaborators a Server is built from. Analyzer and Universe
// are required; the rest are optional.
type Deps struct {
	Analyzer      Analyzer
	Universe      UniverseLister
	EventBus      *events.EventBus
	DefaultEquity float64
	Auth          config.AuthConfig
	HealthChecks  map[string]HealthCheck
}

// NewServer creates a new API server
func NewServer(cfg config.ServerConfig, deps Deps) *Server {
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if origins := splitOrigins(cfg.AllowedOrigins); len(origins) > 0 {
		corsConfig.AllowOrigins = origins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", auth.HeaderAPIKey, HeaderRequestID}
	corsConfig.ExposeHeaders = []string{"Content-Length", HeaderRequestID}
	router.Use(cors.New(corsConfig))

	equity := deps.DefaultEquity
	if equity <= 0 {
		equity = 200
	}
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 120
	}

	s := &Server{
		router:        router,
		analyzer:      deps.Analyzer,
		universe:      deps.Universe,
		eventBus:      deps.EventBus,
		config:        cfg,
		defaultEquity: equity,
		rateLimiter:   NewRateLimiter(limit, time.Minute),
		checks:        deps.HealthChecks,
		started:       time.Now(),
		now:           time.Now,
		log:           logging.WithComponent("api"),
	}

	if deps.Auth.Enabled {
		s.authEnabled = true
		s.apiKeyHash = deps.Auth.APIKeyHash
		if deps.Auth.JWTSecret != "" {
			s.jwtManager = auth.NewJWTManager(deps.Auth.JWTSecret, deps.Auth.AccessTokenDuration)
		}
	}

	router.Use(requestIDMiddleware(), s.requestLogger())

	if s.eventBus != nil {
		s.hub = InitWebSocket(s.eventBus)
	}

	s.setupRoutes()
	return s
}

// splitOrigins parses a comma separated origin list. "*" or an empty list
// means any origin.
func splitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimSpace(o)
		if o == "*" {
			return nil
		}
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	protected := s.router.Group("/")
	if s.authEnabled {
		protected.Use(auth.Middleware(s.jwtManager, s.apiKeyHash))
	}

	apiGroup := protected.Group("/api")
	apiGroup.Use(s.rateLimitMiddleware())
	{
		apiGroup.GET("/analyze", s.handleAnalyze)
		apiGroup.GET("/universe", s.handleUniverse)
	}

	if s.hub != nil {
		protected.GET("/ws/signals", s.handleWebSocket)
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  seconds(s.config.ReadTimeout, 15),
		WriteTimeout: seconds(s.config.WriteTimeout, 15),
		IdleTimeout:  60 * time.Second,
	}

	s.log.Info("Starting HTTP server", "addr", addr, "tls", s.config.TLSEnabled, "auth", s.authEnabled)

	var err error
	if s.config.TLSEnabled {
		err = s.httpServer.ListenAndServeTLS(s.config.TLSCertFile, s.config.TLSKeyFile)
	} else {
		err = s.httpServer.ListenAndServe()
	}
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")

	if s.hub != nil {
		s.hub.Stop()
	}
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func seconds(v, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Second
}

// errorResponse is a helper to send error responses
func errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":   true,
		"message": message,
	})
}
