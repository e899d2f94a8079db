package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"quarta/internal/backend"
	"quarta/internal/config"
	applog "quarta/internal/log"
	"quarta/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logConfig := applog.DefaultConfig()
	logConfig.Component = applog.ComponentBilling
	logger := applog.New(logConfig)
	applog.SetDefault(logger)

	logger.Info("Starting billing-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	result, err := backend.Build(cfg, logger.Logger)
	if err != nil {
		logger.Error("Failed to build backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	}()

	processor := services.NewBillingProcessor(result.Store, result.Ledger, cfg.MonthlyFeeCents, cfg.BillingGraceDays)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Billing processor configured",
		"interval", cfg.BillingInterval,
		"monthly_fee_cents", cfg.MonthlyFeeCents,
		"grace_days", cfg.BillingGraceDays)

	// run once on startup, then on the interval
	runOnce(ctx, processor, logger)

	ticker := time.NewTicker(cfg.BillingInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runOnce(ctx, processor, logger)
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()
	logger.Info("Billing worker stopped")
}

func runOnce(ctx context.Context, processor *services.BillingProcessor, logger *applog.Logger) {
	created, aged, err := processor.Run(ctx, time.Now())
	if err != nil {
		logger.Error("Billing pass failed", "error", err)
		return
	}
	if created > 0 || aged > 0 {
		logger.Info("Billing pass completed", "dues_created", created, "marked_overdue", aged)
	}
}
