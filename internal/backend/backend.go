// Package backend wires a store, the optional AMQP client, and the
// ledger service from configuration.
package backend

import (
	"fmt"
	"log/slog"

	"quarta/internal/amqp"
	"quarta/internal/config"
	"quarta/internal/services"
	"quarta/internal/store"
	"quarta/internal/store/memory"
	"quarta/internal/storage"
)

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Result bundles the wired persistence and write surfaces.
type Result struct {
	Store   store.Store
	Ledger  *services.LedgerService
	Queue   *amqp.Client // nil when AMQP is not configured
	Cleanup CleanupFunc
}

// Build creates the backend selected by cfg.DataBackend.
func Build(cfg *config.Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.DataBackend {
	case "sqlite":
		return buildSQLite(cfg, logger)
	case "memory":
		return buildMemory(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported data backend: %s", cfg.DataBackend)
	}
}

func buildSQLite(cfg *config.Config, logger *slog.Logger) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite repository: %w", err)
	}

	queue := connectQueue(cfg, logger)
	ledger := services.NewLedgerService(repo, publisherOrNil(queue))

	logger.Info("Initialized sqlite backend",
		"db_path", cfg.SQLiteDBPath,
		"amqp_enabled", queue != nil)

	return &Result{
		Store:  repo,
		Ledger: ledger,
		Queue:  queue,
		Cleanup: func() error {
			if queue != nil {
				queue.Close()
			}
			return repo.Close()
		},
	}, nil
}

func buildMemory(cfg *config.Config, logger *slog.Logger) (*Result, error) {
	st := memory.New()
	queue := connectQueue(cfg, logger)
	ledger := services.NewLedgerService(st, publisherOrNil(queue))

	logger.Info("Initialized memory backend", "amqp_enabled", queue != nil)

	return &Result{
		Store:  st,
		Ledger: ledger,
		Queue:  queue,
		Cleanup: func() error {
			if queue != nil {
				return queue.Close()
			}
			return nil
		},
	}, nil
}

// connectQueue dials AMQP when configured. A broker outage only disables
// the export events, the app still serves.
func connectQueue(cfg *config.Config, logger *slog.Logger) *amqp.Client {
	if cfg.AMQPURL == "" {
		return nil
	}
	queue, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		return nil
	}
	logger.Info("Initialized AMQP client",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return queue
}

// publisherOrNil avoids handing the ledger a typed nil interface.
func publisherOrNil(queue *amqp.Client) services.Publisher {
	if queue == nil {
		return nil
	}
	return queue
}
