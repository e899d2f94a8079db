package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"quarta/internal/amqp"
	"quarta/internal/backend"
	"quarta/internal/config"
	"quarta/internal/export"
	applog "quarta/internal/log"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logConfig := applog.DefaultConfig()
	logConfig.Component = applog.ComponentExport
	logger := applog.New(logConfig)
	applog.SetDefault(logger)

	logger.Info("Starting export-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if !cfg.ExportEnabled() {
		logger.Error("Export not configured: set GOOGLE_SPREADSHEET_ID and service account credentials")
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	writer, err := export.NewSheetsClient(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)

	worker := export.NewWorker(result.Store, writer, cfg.DashboardMonths)

	// Ledger-changed messages mark the summary dirty; the worker also
	// re-exports on its interval, so a missed message only delays the
	// refresh.
	if result.Queue != nil {
		go func() {
			err := result.Queue.ConsumeLedgerChanges(ctx, func(msg *amqp.LedgerChangedMessage) error {
				return worker.HandleMessage(msg)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
			}
			cancel()
		}()
	} else {
		logger.Warn("AMQP not configured, relying on periodic export only")
	}

	go func() {
		if err := worker.Run(ctx, cfg.ExportInterval); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Export loop failed", "error", err)
			cancel()
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

	// give in-flight exports a moment to finish
	time.Sleep(2 * time.Second)
	logger.Info("Export worker stopped")
}
