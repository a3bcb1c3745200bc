// Package main provides the HTTP server for Master Chat.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/raphaelgruber/masterchat/internal/chat"
	"github.com/raphaelgruber/masterchat/internal/config"
	"github.com/raphaelgruber/masterchat/internal/llm"
	"github.com/raphaelgruber/masterchat/internal/metrics"
	"github.com/raphaelgruber/masterchat/internal/server"
	"github.com/raphaelgruber/masterchat/internal/session"
)

func main() {
	// Load .env if present; real env vars win
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Initialize logging
	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer func() {
		if err := closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
		}
	}()
	slog.SetDefault(logger)

	slog.Info("starting masterchat-server", "port", cfg.Port, "provider", cfg.LLMProvider, "model", cfg.LLMModel)

	// Create the LLM backend
	model, err := llm.NewModel(cfg)
	if err != nil {
		slog.Error("failed to create model", "error", err)
		os.Exit(1)
	}

	// Wire the chat service, session manager and HTTP surface
	collector := metrics.NewCollector()
	svc := chat.NewService(model, cfg.CallTimeout, logger, collector)
	sessions := session.NewManager(svc, logger)
	srv := server.New(svc, sessions, collector, logger)

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.CallTimeout + 30*time.Second, // Long for LLM responses
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("API available", "url", fmt.Sprintf("http://localhost:%s/api", cfg.Port))
		slog.Info("Health endpoint available", "url", fmt.Sprintf("http://localhost:%s/health", cfg.Port))

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
