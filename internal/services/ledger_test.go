package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"quarta/internal/amqp"
	"quarta/internal/core"
	"quarta/internal/store/memory"
)

type capturingPublisher struct {
	messages []*amqp.LedgerChangedMessage
	fail     bool
}

func (p *capturingPublisher) PublishLedgerChanged(_ context.Context, msg *amqp.LedgerChangedMessage) error {
	if p.fail {
		return errors.New("broker down")
	}
	p.messages = append(p.messages, msg)
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newLedger(t *testing.T) (*LedgerService, *memory.Store, *capturingPublisher) {
	t.Helper()
	st := memory.New()
	pub := &capturingPublisher{}
	svc := NewLedgerService(st, pub)
	svc.now = fixedClock(time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC))
	return svc, st, pub
}

func addStudent(t *testing.T, svc *LedgerService, name string) core.Student {
	t.Helper()
	st := core.Student{Name: name, Active: true}
	if err := svc.CreateStudent(context.Background(), &st); err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}
	return st
}

func TestCreatePaymentNormalizesPaidDate(t *testing.T) {
	svc, _, pub := newLedger(t)
	ana := addStudent(t, svc, "Ana")

	p := core.Payment{
		StudentID: ana.ID,
		Amount:    core.Money{Cents: 10000},
		DueDate:   core.NewDate(2024, time.March, 1),
		Status:    core.PaymentPaid,
		// no payment date given by the form
	}
	if err := svc.CreatePayment(context.Background(), &p); err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	if p.PaymentDate.String() != "2024-03-15" {
		t.Errorf("payment date = %q, want today", p.PaymentDate)
	}
	if len(pub.messages) != 1 || pub.messages[0].Entity != amqp.EntityPayment || pub.messages[0].Month != "2024-03" {
		t.Errorf("published = %+v", pub.messages)
	}
}

func TestUpdatePaymentClearsDateOnUnpaid(t *testing.T) {
	svc, _, _ := newLedger(t)
	ana := addStudent(t, svc, "Ana")

	p := core.Payment{
		StudentID: ana.ID,
		Amount:    core.Money{Cents: 10000},
		DueDate:   core.NewDate(2024, time.March, 1),
		Status:    core.PaymentPaid,
	}
	if err := svc.CreatePayment(context.Background(), &p); err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}

	p.Status = core.PaymentPending
	if err := svc.UpdatePayment(context.Background(), p); err != nil {
		t.Fatalf("UpdatePayment: %v", err)
	}
	got, err := svc.store.GetPayment(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GetPayment: %v", err)
	}
	if !got.PaymentDate.IsEmpty() {
		t.Errorf("payment date should be cleared, got %q", got.PaymentDate)
	}
}

func TestCreatePaymentSnapsDueDateToFirstOfMonth(t *testing.T) {
	svc, _, _ := newLedger(t)
	ana := addStudent(t, svc, "Ana")

	p := core.Payment{
		StudentID: ana.ID,
		Amount:    core.Money{Cents: 10000},
		DueDate:   core.NewDate(2024, time.March, 17),
	}
	if err := svc.CreatePayment(context.Background(), &p); err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	if p.DueDate.String() != "2024-03-01" {
		t.Errorf("due date = %q", p.DueDate)
	}
	if p.Status != core.PaymentPending {
		t.Errorf("status = %q, want defaulted pending", p.Status)
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	svc, st, pub := newLedger(t)
	pub.fail = true
	ana := addStudent(t, svc, "Ana")

	p := core.Payment{
		StudentID: ana.ID,
		Amount:    core.Money{Cents: 10000},
		DueDate:   core.NewDate(2024, time.March, 1),
		Status:    core.PaymentPending,
	}
	if err := svc.CreatePayment(context.Background(), &p); err != nil {
		t.Fatalf("CreatePayment should not fail on publish error: %v", err)
	}
	if _, err := st.GetPayment(context.Background(), p.ID); err != nil {
		t.Errorf("row was not committed: %v", err)
	}
}

func TestOnChangeFiresWithAffectedMonth(t *testing.T) {
	svc, _, _ := newLedger(t)
	var months []core.MonthKey
	svc.OnChange = func(k core.MonthKey) { months = append(months, k) }

	e := core.CourtExpense{Amount: core.Money{Cents: 4000}, DueDate: core.NewDate(2024, time.April, 1)}
	if err := svc.CreateCourtExpense(context.Background(), &e); err != nil {
		t.Fatalf("CreateCourtExpense: %v", err)
	}
	if len(months) != 1 || months[0] != (core.MonthKey{Year: 2024, Month: time.April}) {
		t.Errorf("OnChange months = %v", months)
	}
}

func TestStudentDeactivationNormalization(t *testing.T) {
	svc, st, _ := newLedger(t)
	ana := addStudent(t, svc, "Ana")

	ana.Active = false
	ana.InactiveReason = "injury"
	// no date from the form, service fills today
	if err := svc.UpdateStudent(context.Background(), ana); err != nil {
		t.Fatalf("UpdateStudent: %v", err)
	}
	got, err := st.GetStudent(context.Background(), ana.ID)
	if err != nil {
		t.Fatalf("GetStudent: %v", err)
	}
	if got.InactiveDate.String() != "2024-03-15" {
		t.Errorf("inactive date = %q", got.InactiveDate)
	}

	got.Active = true
	if err := svc.UpdateStudent(context.Background(), got); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	got, _ = st.GetStudent(context.Background(), ana.ID)
	if got.InactiveReason != "" || !got.InactiveDate.IsEmpty() {
		t.Errorf("reactivation did not clear inactive fields: %+v", got)
	}
}

func TestRecordAttendancePublishes(t *testing.T) {
	svc, _, pub := newLedger(t)
	ana := addStudent(t, svc, "Ana")

	a := core.Attendance{StudentID: ana.ID, ClassDate: core.NewDate(2024, time.March, 6), Present: true}
	if err := svc.RecordAttendance(context.Background(), &a); err != nil {
		t.Fatalf("RecordAttendance: %v", err)
	}
	if len(pub.messages) != 1 || pub.messages[0].Entity != amqp.EntityAttendance {
		t.Errorf("published = %+v", pub.messages)
	}
}
