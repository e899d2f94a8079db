// Package store defines the persistence ports the application consumes.
// Adapters live in internal/storage (sqlite) and internal/store/memory.
package store

import (
	"context"
	"errors"

	"quarta/internal/core"
)

var ErrNotFound = errors.New("record not found")

// PaymentRecord is a payment row joined with its student's name, as the
// list views render it.
type PaymentRecord struct {
	core.Payment
	StudentName string
}

// AttendanceRecord is an attendance row joined with its student's name.
type AttendanceRecord struct {
	core.Attendance
	StudentName string
}

type StudentStore interface {
	CreateStudent(ctx context.Context, s *core.Student) error
	UpdateStudent(ctx context.Context, s core.Student) error
	GetStudent(ctx context.Context, id int64) (core.Student, error)
	// ListStudents returns students ordered by name. active filters by the
	// flag when non-nil.
	ListStudents(ctx context.Context, active *bool) ([]core.Student, error)
}

type PaymentStore interface {
	CreatePayment(ctx context.Context, p *core.Payment) error
	UpdatePayment(ctx context.Context, p core.Payment) error
	GetPayment(ctx context.Context, id int64) (core.Payment, error)
	// ListPayments returns payments with due_date in [from, to], joined to
	// the student name, ordered by due_date then id.
	ListPayments(ctx context.Context, from, to core.Date) ([]PaymentRecord, error)
	// ListStudentPayments returns one student's payments with due_date in
	// [from, to], ordered by due_date then id.
	ListStudentPayments(ctx context.Context, studentID int64, from, to core.Date) ([]core.Payment, error)
}

type LedgerStore interface {
	CreateCourtExpense(ctx context.Context, e *core.CourtExpense) error
	CreateExtraExpense(ctx context.Context, e *core.ExtraExpense) error
	CreateAdditionalIncome(ctx context.Context, i *core.AdditionalIncome) error
	ListCourtExpenses(ctx context.Context, from, to core.Date) ([]core.CourtExpense, error)
	ListExtraExpenses(ctx context.Context, from, to core.Date) ([]core.ExtraExpense, error)
	ListAdditionalIncome(ctx context.Context, from, to core.Date) ([]core.AdditionalIncome, error)
}

type AttendanceStore interface {
	// UpsertAttendance inserts the mark or, when a row for the same
	// (student, class date) exists, overwrites its present flag.
	UpsertAttendance(ctx context.Context, a *core.Attendance) error
	// ListAttendance returns marks with class_date in [from, to], joined to
	// the student name, ordered by class_date then student name.
	ListAttendance(ctx context.Context, from, to core.Date) ([]AttendanceRecord, error)
}

// Store is the full persistence surface the application wires once at
// startup.
type Store interface {
	StudentStore
	PaymentStore
	LedgerStore
	AttendanceStore
}
