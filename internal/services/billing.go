package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"quarta/internal/core"
	"quarta/internal/store"
)

// BillingProcessor generates monthly dues and ages pending payments into
// overdue. It runs from cmd/billing-worker on an interval and is
// idempotent within a month.
type BillingProcessor struct {
	store     store.Store
	ledger    *LedgerService
	feeCents  int64
	graceDays int
}

func NewBillingProcessor(st store.Store, ledger *LedgerService, feeCents int64, graceDays int) *BillingProcessor {
	return &BillingProcessor{
		store:     st,
		ledger:    ledger,
		feeCents:  feeCents,
		graceDays: graceDays,
	}
}

// Run executes one billing pass: ensure every active student has a due
// for now's month, then mark stale pending payments overdue.
func (p *BillingProcessor) Run(ctx context.Context, now time.Time) (created, aged int, err error) {
	created, err = p.ensureMonthlyDues(ctx, now)
	if err != nil {
		return created, 0, err
	}
	aged, err = p.markOverdue(ctx, now)
	return created, aged, err
}

// ensureMonthlyDues creates one pending payment per active student for
// the current month, skipping students already billed.
func (p *BillingProcessor) ensureMonthlyDues(ctx context.Context, now time.Time) (int, error) {
	active := true
	students, err := p.store.ListStudents(ctx, &active)
	if err != nil {
		return 0, fmt.Errorf("list active students: %w", err)
	}

	month := core.MonthOf(now)
	first := month.First()
	last := core.DateOf(first.AddDate(0, 1, -1))

	slog.InfoContext(ctx, "Generating monthly dues",
		"month", month.String(),
		"students", len(students))

	created := 0
	for _, st := range students {
		existing, err := p.store.ListStudentPayments(ctx, st.ID, first, last)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to check existing dues",
				"student_id", st.ID, "error", err)
			continue
		}
		if len(existing) > 0 {
			continue
		}

		payment := core.Payment{
			StudentID: st.ID,
			Amount:    core.Money{Cents: p.feeCents},
			DueDate:   first,
			Status:    core.PaymentPending,
		}
		if err := p.ledger.CreatePayment(ctx, &payment); err != nil {
			slog.ErrorContext(ctx, "Failed to create monthly due",
				"student_id", st.ID, "error", err)
			continue
		}
		created++
	}

	if created > 0 {
		slog.InfoContext(ctx, "Monthly dues created", "count", created, "month", month.String())
	}
	return created, nil
}

// markOverdue flips pending payments to overdue once the grace period
// past their due date has elapsed. It looks back one year; anything older
// was aged by earlier runs.
func (p *BillingProcessor) markOverdue(ctx context.Context, now time.Time) (int, error) {
	from := core.DateOf(now.AddDate(-1, 0, 0))
	to := core.DateOf(now)
	payments, err := p.store.ListPayments(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("list payments: %w", err)
	}

	aged := 0
	for _, rec := range payments {
		if rec.Status != core.PaymentPending {
			continue
		}
		deadline := rec.DueDate.AddDate(0, 0, p.graceDays)
		if !now.After(deadline) {
			continue
		}

		payment := rec.Payment
		payment.Status = core.PaymentOverdue
		if err := p.ledger.UpdatePayment(ctx, payment); err != nil {
			slog.ErrorContext(ctx, "Failed to mark payment overdue",
				"payment_id", payment.ID, "error", err)
			continue
		}
		aged++
	}

	if aged > 0 {
		slog.InfoContext(ctx, "Payments marked overdue", "count", aged)
	}
	return aged, nil
}
