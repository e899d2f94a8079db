package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quarta/internal/core"
	"quarta/internal/store"
)

func newStudent(t *testing.T, s *Store, name string) core.Student {
	t.Helper()
	st := core.Student{Name: name, Active: true}
	if err := s.CreateStudent(context.Background(), &st); err != nil {
		t.Fatalf("CreateStudent(%s): %v", name, err)
	}
	return st
}

func TestStudentsOrderedByName(t *testing.T) {
	s := New()
	newStudent(t, s, "Carla")
	newStudent(t, s, "Ana")
	bruno := newStudent(t, s, "Bruno")
	bruno.Deactivate("moved", core.NewDate(2024, time.May, 1))
	if err := s.UpdateStudent(context.Background(), bruno); err != nil {
		t.Fatalf("UpdateStudent: %v", err)
	}

	all, err := s.ListStudents(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListStudents: %v", err)
	}
	if len(all) != 3 || all[0].Name != "Ana" || all[1].Name != "Bruno" || all[2].Name != "Carla" {
		t.Errorf("order = %v", names(all))
	}

	active := true
	got, err := s.ListStudents(context.Background(), &active)
	if err != nil {
		t.Fatalf("ListStudents(active): %v", err)
	}
	if len(got) != 2 || got[0].Name != "Ana" || got[1].Name != "Carla" {
		t.Errorf("active filter = %v", names(got))
	}
}

func names(students []core.Student) []string {
	out := make([]string, len(students))
	for i, s := range students {
		out[i] = s.Name
	}
	return out
}

func TestPaymentsRangeAndJoin(t *testing.T) {
	s := New()
	ana := newStudent(t, s, "Ana")
	ctx := context.Background()

	for _, month := range []time.Month{time.January, time.February, time.March} {
		p := core.Payment{
			StudentID: ana.ID,
			Amount:    core.Money{Cents: 10000},
			DueDate:   core.NewDate(2024, month, 1),
			Status:    core.PaymentPending,
		}
		if err := s.CreatePayment(ctx, &p); err != nil {
			t.Fatalf("CreatePayment: %v", err)
		}
	}

	got, err := s.ListPayments(ctx, core.NewDate(2024, time.February, 1), core.NewDate(2024, time.March, 31))
	if err != nil {
		t.Fatalf("ListPayments: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].DueDate.Month() != time.February || got[1].DueDate.Month() != time.March {
		t.Errorf("not ordered by due date: %v, %v", got[0].DueDate, got[1].DueDate)
	}
	if got[0].StudentName != "Ana" {
		t.Errorf("join missing: %q", got[0].StudentName)
	}
}

func TestPaymentRequiresExistingStudent(t *testing.T) {
	s := New()
	p := core.Payment{StudentID: 99, Amount: core.Money{Cents: 100}, DueDate: core.NewDate(2024, time.March, 1), Status: core.PaymentPending}
	if err := s.CreatePayment(context.Background(), &p); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAttendanceUpsert(t *testing.T) {
	s := New()
	ana := newStudent(t, s, "Ana")
	ctx := context.Background()
	day := core.NewDate(2024, time.March, 6)

	a := core.Attendance{StudentID: ana.ID, ClassDate: day, Present: true}
	if err := s.UpsertAttendance(ctx, &a); err != nil {
		t.Fatalf("UpsertAttendance: %v", err)
	}
	flip := core.Attendance{StudentID: ana.ID, ClassDate: day, Present: false}
	if err := s.UpsertAttendance(ctx, &flip); err != nil {
		t.Fatalf("UpsertAttendance flip: %v", err)
	}
	if flip.ID != a.ID {
		t.Errorf("upsert created a new row: %d vs %d", flip.ID, a.ID)
	}

	rows, err := s.ListAttendance(ctx, day, day)
	if err != nil {
		t.Fatalf("ListAttendance: %v", err)
	}
	if len(rows) != 1 || rows[0].Present {
		t.Errorf("rows = %+v", rows)
	}
}

func TestLedgerRowsFilteredByDate(t *testing.T) {
	s := New()
	ctx := context.Background()
	march := core.NewDate(2024, time.March, 10)
	april := core.NewDate(2024, time.April, 10)

	for _, d := range []core.Date{march, april} {
		e := core.ExtraExpense{Amount: core.Money{Cents: 500}, Date: d, Description: "balls"}
		if err := s.CreateExtraExpense(ctx, &e); err != nil {
			t.Fatalf("CreateExtraExpense: %v", err)
		}
		i := core.AdditionalIncome{Amount: core.Money{Cents: 700}, Date: d, Description: "raffle"}
		if err := s.CreateAdditionalIncome(ctx, &i); err != nil {
			t.Fatalf("CreateAdditionalIncome: %v", err)
		}
	}
	c := core.CourtExpense{Amount: core.Money{Cents: 4000}, DueDate: core.NewDate(2024, time.March, 1)}
	if err := s.CreateCourtExpense(ctx, &c); err != nil {
		t.Fatalf("CreateCourtExpense: %v", err)
	}

	from, to := core.NewDate(2024, time.March, 1), core.NewDate(2024, time.March, 31)
	extra, err := s.ListExtraExpenses(ctx, from, to)
	if err != nil || len(extra) != 1 {
		t.Errorf("extra = %v, %v", extra, err)
	}
	income, err := s.ListAdditionalIncome(ctx, from, to)
	if err != nil || len(income) != 1 {
		t.Errorf("income = %v, %v", income, err)
	}
	court, err := s.ListCourtExpenses(ctx, from, to)
	if err != nil || len(court) != 1 {
		t.Errorf("court = %v, %v", court, err)
	}
}

func TestUpdateMissingRows(t *testing.T) {
	s := New()
	err := s.UpdateStudent(context.Background(), core.Student{ID: 7, Name: "Ghost", Active: true})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("UpdateStudent: %v", err)
	}
	p := core.Payment{ID: 7, StudentID: 1, Amount: core.Money{Cents: 100}, DueDate: core.NewDate(2024, time.March, 1), Status: core.PaymentPending}
	if err := s.UpdatePayment(context.Background(), p); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("UpdatePayment: %v", err)
	}
}
