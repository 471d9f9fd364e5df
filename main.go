package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"guardian-futures-engine/config"
	"guardian-futures-engine/internal/api"
	"guardian-futures-engine/internal/app"
	"guardian-futures-engine/internal/logging"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logger := app.NewLogger(cfg.LoggingConfig, "main")
	logging.SetDefault(logger)
	logger.Info("Structured logging initialized")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	engine, err := app.Bootstrap(ctx, cfg)
	cancel()
	if err != nil {
		logger.Fatal("Failed to initialize engine", "error", err)
	}
	defer engine.Close()

	server := api.NewServer(cfg.ServerConfig, api.Deps{
		Analyzer:      engine.Pipeline,
		Universe:      engine.Allowlist,
		EventBus:      engine.EventBus,
		DefaultEquity: cfg.EngineConfig.DefaultEquity,
		Auth:          cfg.AuthConfig,
		HealthChecks:  engine.HealthChecks(),
	})

	// Start API server
	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", "signal", sig.String())
	case err := <-errChan:
		if err != nil {
			logger.Error("API server stopped", "error", err)
		}
	}

	// Graceful shutdown
	timeout := time.Duration(cfg.ServerConfig.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), timeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Shutdown complete")
}
