// Command notifier is the outage schedule notifier service: it polls the
// published schedules, notifies subscribers about changes, and serves the
// status API.
//
// Usage:
//
//	notifier
//	API_PORT=8080 CHECK_INTERVAL=5 notifier

// @title Outage Notifier API
// @version 1.0.0
// @description Live power status per outage group and subscriber settings for the outage schedule notifier.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @contact.name Outage Notifier
// @license.name MIT
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/powerwatch/outage-notifier/internal/api"
	"github.com/powerwatch/outage-notifier/internal/app"
	"github.com/powerwatch/outage-notifier/internal/config"
	"github.com/powerwatch/outage-notifier/internal/logging"
	"github.com/powerwatch/outage-notifier/internal/maintenance"

	_ "github.com/powerwatch/outage-notifier/docs" // swagger docs
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat, cfg.LogSilent)
	slog.SetDefault(logger)

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Notifier failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	a, err := app.New(ctx, cfg, logger, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	scheduler := a.Scheduler()

	router := api.NewRouter(api.Deps{
		Engine:    a.Engine,
		Users:     a.Store,
		Scheduler: scheduler,
		Cache:     a.Cache,
		Gatherer:  a.Registry,
	}, cfg)

	addr := cfg.ListenAddr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	// Polling loop
	g.Go(func() error {
		return scheduler.Run(gctx)
	})

	// Retention sweeps
	g.Go(func() error {
		return maintenance.Start(gctx, a.Store, maintenance.Config{
			CleanupInterval: cfg.CleanupInterval,
			Retention:       time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		}, logger)
	})

	// HTTP server
	g.Go(func() error {
		logger.Info("Starting outage notifier API",
			"addr", addr,
			"store", cfg.StoreBackend,
			"cache", cfg.CacheBackend,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down...")

		// Graceful shutdown with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown error", "error", err)
		}
		return nil
	})

	err = g.Wait()
	logger.Info("Notifier stopped")
	return err
}
