package core

import (
	"errors"
	"testing"
	"time"
)

func TestStudentValidate(t *testing.T) {
	tests := []struct {
		name    string
		student Student
		wantErr error
	}{
		{
			name:    "active student ok",
			student: Student{Name: "João Silva", Active: true},
			wantErr: nil,
		},
		{
			name:    "empty name",
			student: Student{Name: "   ", Active: true},
			wantErr: ErrEmptyName,
		},
		{
			name:    "active with inactive reason",
			student: Student{Name: "Maria", Active: true, InactiveReason: "moved away"},
			wantErr: ErrInactiveFields,
		},
		{
			name:    "active with inactive date",
			student: Student{Name: "Maria", Active: true, InactiveDate: NewDate(2024, time.March, 1)},
			wantErr: ErrInactiveFields,
		},
		{
			name: "inactive with reason and date ok",
			student: Student{
				Name:           "Pedro",
				Active:         false,
				InactiveReason: "injury",
				InactiveDate:   NewDate(2024, time.March, 1),
			},
			wantErr: nil,
		},
		{
			name:    "inactive missing reason",
			student: Student{Name: "Pedro", Active: false, InactiveDate: NewDate(2024, time.March, 1)},
			wantErr: ErrMissingInactiveInfo,
		},
		{
			name:    "inactive missing date",
			student: Student{Name: "Pedro", Active: false, InactiveReason: "injury"},
			wantErr: ErrMissingInactiveInfo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.student.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestStudentReactivateClearsInactiveFields(t *testing.T) {
	s := Student{Name: "Ana", Active: true}
	s.Deactivate("travel", NewDate(2024, time.May, 10))
	if s.Active || s.InactiveReason == "" || s.InactiveDate.IsEmpty() {
		t.Fatalf("Deactivate did not populate inactive fields: %+v", s)
	}
	s.Reactivate()
	if !s.Active || s.InactiveReason != "" || !s.InactiveDate.IsEmpty() {
		t.Fatalf("Reactivate did not clear inactive fields: %+v", s)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("reactivated student should validate: %v", err)
	}
}

func TestPaymentValidate(t *testing.T) {
	due := NewDate(2024, time.March, 1)
	paidOn := NewDate(2024, time.March, 5)

	tests := []struct {
		name    string
		payment Payment
		wantErr error
	}{
		{
			name:    "paid with payment date ok",
			payment: Payment{StudentID: 1, Amount: Money{Cents: 10000}, DueDate: due, PaymentDate: paidOn, Status: PaymentPaid},
			wantErr: nil,
		},
		{
			name:    "pending without payment date ok",
			payment: Payment{StudentID: 1, Amount: Money{Cents: 10000}, DueDate: due, Status: PaymentPending},
			wantErr: nil,
		},
		{
			name:    "paid without payment date",
			payment: Payment{StudentID: 1, Amount: Money{Cents: 10000}, DueDate: due, Status: PaymentPaid},
			wantErr: ErrPaymentDateMismatch,
		},
		{
			name:    "pending with payment date",
			payment: Payment{StudentID: 1, Amount: Money{Cents: 10000}, DueDate: due, PaymentDate: paidOn, Status: PaymentPending},
			wantErr: ErrPaymentDateMismatch,
		},
		{
			name:    "overdue with payment date",
			payment: Payment{StudentID: 1, Amount: Money{Cents: 10000}, DueDate: due, PaymentDate: paidOn, Status: PaymentOverdue},
			wantErr: ErrPaymentDateMismatch,
		},
		{
			name:    "missing student",
			payment: Payment{Amount: Money{Cents: 10000}, DueDate: due, Status: PaymentPending},
			wantErr: ErrMissingStudent,
		},
		{
			name:    "zero amount",
			payment: Payment{StudentID: 1, DueDate: due, Status: PaymentPending},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "unknown status",
			payment: Payment{StudentID: 1, Amount: Money{Cents: 100}, DueDate: due, Status: PaymentStatus("cancelled")},
			wantErr: ErrInvalidStatus,
		},
		{
			name:    "zero due date",
			payment: Payment{StudentID: 1, Amount: Money{Cents: 100}, Status: PaymentPending},
			wantErr: ErrInvalidDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payment.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLedgerEntryValidate(t *testing.T) {
	day := NewDate(2024, time.March, 10)

	if err := (CourtExpense{Amount: Money{Cents: 4000}, DueDate: NewDate(2024, time.March, 1)}).Validate(); err != nil {
		t.Errorf("court expense: %v", err)
	}
	if err := (CourtExpense{DueDate: day}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("court expense zero amount: got %v", err)
	}
	if err := (ExtraExpense{Amount: Money{Cents: 500}, Date: day, Description: "balls"}).Validate(); err != nil {
		t.Errorf("extra expense: %v", err)
	}
	if err := (ExtraExpense{Amount: Money{Cents: 500}, Date: day}).Validate(); !errors.Is(err, ErrEmptyDescription) {
		t.Errorf("extra expense empty description: got %v", err)
	}
	if err := (AdditionalIncome{Amount: Money{Cents: 500}, Date: day, Description: "raffle"}).Validate(); err != nil {
		t.Errorf("income: %v", err)
	}
	if err := (AdditionalIncome{Amount: Money{Cents: 500}, Description: "raffle"}).Validate(); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("income zero date: got %v", err)
	}
	if err := (Attendance{StudentID: 3, ClassDate: day, Present: true}).Validate(); err != nil {
		t.Errorf("attendance: %v", err)
	}
	if err := (Attendance{ClassDate: day}).Validate(); !errors.Is(err, ErrMissingStudent) {
		t.Errorf("attendance missing student: got %v", err)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-01")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Year() != 2024 || d.Month() != time.March || d.Day() != 1 {
		t.Errorf("ParseDate = %v", d)
	}
	if _, err := ParseDate("01/03/2024"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
}
