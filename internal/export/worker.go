package export

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"quarta/internal/amqp"
	"quarta/internal/core"
	"quarta/internal/report"
	"quarta/internal/store"
)

// Worker recomputes the trailing summary and pushes it to the sheet.
// Ledger-changed messages only mark the summary dirty; the periodic tick
// performs the actual export, so a burst of writes costs one rebuild.
type Worker struct {
	store  store.Store
	writer SummaryWriter
	months int
	now    func() time.Time

	mu    sync.Mutex
	dirty bool
}

func NewWorker(st store.Store, writer SummaryWriter, months int) *Worker {
	return &Worker{
		store:  st,
		writer: writer,
		months: months,
		now:    time.Now,
	}
}

// HandleMessage is the AMQP consumer callback.
func (w *Worker) HandleMessage(msg *amqp.LedgerChangedMessage) error {
	w.mu.Lock()
	w.dirty = true
	w.mu.Unlock()

	slog.Info("Summary marked dirty",
		"entity", msg.Entity,
		"id", msg.ID,
		"month", msg.Month)
	return nil
}

// Run exports once unconditionally, then on every tick where the summary
// is dirty, until ctx is done.
func (w *Worker) Run(ctx context.Context, interval time.Duration) error {
	if err := w.Export(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup export failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !w.consumeDirty() {
				continue
			}
			if err := w.Export(ctx); err != nil {
				slog.ErrorContext(ctx, "Export failed, will retry on next change", "error", err)
				w.mu.Lock()
				w.dirty = true
				w.mu.Unlock()
			}
		}
	}
}

func (w *Worker) consumeDirty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	wasDirty := w.dirty
	w.dirty = false
	return wasDirty
}

// Export rebuilds the trailing window from the store and writes it out.
func (w *Worker) Export(ctx context.Context) error {
	now := w.now()
	months := core.TrailingMonths(now, w.months)
	from := months[0].First()
	to := core.DateOf(months[len(months)-1].First().AddDate(0, 1, -1))

	payments, err := w.store.ListPayments(ctx, from, to)
	if err != nil {
		return fmt.Errorf("list payments: %w", err)
	}
	court, err := w.store.ListCourtExpenses(ctx, from, to)
	if err != nil {
		return fmt.Errorf("list court expenses: %w", err)
	}
	extra, err := w.store.ListExtraExpenses(ctx, from, to)
	if err != nil {
		return fmt.Errorf("list extra expenses: %w", err)
	}
	income, err := w.store.ListAdditionalIncome(ctx, from, to)
	if err != nil {
		return fmt.Errorf("list additional income: %w", err)
	}

	buckets := report.Summarize(months, payments, court, extra, income)
	if err := w.writer.WriteSummary(ctx, buckets); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	slog.InfoContext(ctx, "Summary exported",
		"window_start", months[0].String(),
		"window_end", months[len(months)-1].String())
	return nil
}
