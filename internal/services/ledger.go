// Package services holds the write orchestration between the store, the
// caches, and the event queue.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"quarta/internal/amqp"
	"quarta/internal/core"
	"quarta/internal/store"
)

// Publisher is the slice of the AMQP client the ledger needs.
type Publisher interface {
	PublishLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error
}

// LedgerService performs every mutating operation: it normalizes
// invariants, validates, writes one row, then notifies listeners. The
// AMQP publish is best effort; a queue failure never fails the write.
type LedgerService struct {
	store     store.Store
	publisher Publisher

	// OnChange is called with the affected month after each successful
	// write. The HTTP server uses it to invalidate dashboard caches.
	OnChange func(core.MonthKey)

	now func() time.Time
}

func NewLedgerService(st store.Store, publisher Publisher) *LedgerService {
	return &LedgerService{
		store:     st,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *LedgerService) CreateStudent(ctx context.Context, st *core.Student) error {
	s.normalizeStudent(st)
	if err := s.store.CreateStudent(ctx, st); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

func (s *LedgerService) UpdateStudent(ctx context.Context, st core.Student) error {
	s.normalizeStudent(&st)
	if err := s.store.UpdateStudent(ctx, st); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// normalizeStudent keeps the inactive fields coupled to the active flag:
// reactivation clears them, deactivation defaults the date to today.
func (s *LedgerService) normalizeStudent(st *core.Student) {
	if st.Active {
		st.InactiveReason = ""
		st.InactiveDate = core.Date{}
		return
	}
	if st.InactiveDate.IsEmpty() {
		st.InactiveDate = core.DateOf(s.now())
	}
}

func (s *LedgerService) CreatePayment(ctx context.Context, p *core.Payment) error {
	s.normalizePayment(p)
	if err := s.store.CreatePayment(ctx, p); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	s.notify(ctx, amqp.EntityPayment, p.ID, p.Month())
	return nil
}

func (s *LedgerService) UpdatePayment(ctx context.Context, p core.Payment) error {
	s.normalizePayment(&p)
	if err := s.store.UpdatePayment(ctx, p); err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	s.notify(ctx, amqp.EntityPayment, p.ID, p.Month())
	return nil
}

// normalizePayment enforces the paid/payment-date coupling instead of
// trusting the form: a payment marked paid without a date gets today, any
// other status loses its date. The due date snaps to the first of its
// month, the row convention the aggregator relies on.
func (s *LedgerService) normalizePayment(p *core.Payment) {
	if p.Status == "" {
		p.Status = core.PaymentPending
	}
	if !p.DueDate.IsEmpty() {
		p.DueDate = p.Month().First()
	}
	switch p.Status {
	case core.PaymentPaid:
		if p.PaymentDate.IsEmpty() {
			p.PaymentDate = core.DateOf(s.now())
		}
	default:
		p.PaymentDate = core.Date{}
	}
}

func (s *LedgerService) CreateCourtExpense(ctx context.Context, e *core.CourtExpense) error {
	if err := s.store.CreateCourtExpense(ctx, e); err != nil {
		return fmt.Errorf("create court expense: %w", err)
	}
	s.notify(ctx, amqp.EntityCourtExpense, e.ID, core.MonthOf(e.DueDate.Time))
	return nil
}

func (s *LedgerService) CreateExtraExpense(ctx context.Context, e *core.ExtraExpense) error {
	if err := s.store.CreateExtraExpense(ctx, e); err != nil {
		return fmt.Errorf("create extra expense: %w", err)
	}
	s.notify(ctx, amqp.EntityExtraExpense, e.ID, core.MonthOf(e.Date.Time))
	return nil
}

func (s *LedgerService) CreateAdditionalIncome(ctx context.Context, i *core.AdditionalIncome) error {
	if err := s.store.CreateAdditionalIncome(ctx, i); err != nil {
		return fmt.Errorf("create additional income: %w", err)
	}
	s.notify(ctx, amqp.EntityIncome, i.ID, core.MonthOf(i.Date.Time))
	return nil
}

func (s *LedgerService) RecordAttendance(ctx context.Context, a *core.Attendance) error {
	if err := s.store.UpsertAttendance(ctx, a); err != nil {
		return fmt.Errorf("record attendance: %w", err)
	}
	s.notify(ctx, amqp.EntityAttendance, a.ID, core.MonthOf(a.ClassDate.Time))
	return nil
}

func (s *LedgerService) notify(ctx context.Context, entity string, id int64, month core.MonthKey) {
	if s.OnChange != nil {
		s.OnChange(month)
	}
	if s.publisher == nil {
		return
	}
	msg := amqp.NewLedgerChangedMessage(entity, id, month)
	if err := s.publisher.PublishLedgerChanged(ctx, msg); err != nil {
		// row is already committed, the export worker catches up on its
		// next periodic run
		slog.ErrorContext(ctx, "Failed to publish ledger change",
			"entity", entity, "id", id, "error", err)
	}
}
