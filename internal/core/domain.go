package core

import (
	"errors"
	"strings"
	"time"
)

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentOverdue PaymentStatus = "overdue"
)

type (
	// PaymentStatus is the closed set of states a payment row can be in.
	PaymentStatus string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Student is a club member. InactiveReason and InactiveDate are only
	// populated while Active is false; reactivation clears them.
	Student struct {
		ID             int64
		Name           string
		Email          string
		Phone          string
		BirthDate      Date // optional
		Active         bool
		InactiveReason string
		InactiveDate   Date
	}

	// Payment is one month's due owed by a student. DueDate is the first
	// calendar day of the billed month by convention.
	Payment struct {
		ID          int64
		StudentID   int64
		Amount      Money
		DueDate     Date
		PaymentDate Date // set iff Status == PaymentPaid
		Status      PaymentStatus
	}

	// CourtExpense is the recurring facility cost for one month.
	CourtExpense struct {
		ID          int64
		Amount      Money
		DueDate     Date
		PaymentDate Date // optional
		Description string
	}

	// ExtraExpense is an ad hoc cost not tied to the court.
	ExtraExpense struct {
		ID          int64
		Amount      Money
		Date        Date
		PaymentDate Date // optional
		Description string
	}

	// AdditionalIncome is non-membership revenue.
	AdditionalIncome struct {
		ID          int64
		Amount      Money
		Date        Date
		Description string
	}

	// Attendance marks one student present or absent on one class date.
	// (StudentID, ClassDate) is unique.
	Attendance struct {
		ID        int64
		StudentID int64
		ClassDate Date
		Present   bool
	}
)

var (
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyName           = errors.New("empty name")
	ErrEmptyDescription    = errors.New("empty description")
	ErrInvalidStatus       = errors.New("invalid payment status")
	ErrMissingStudent      = errors.New("missing student reference")
	ErrInactiveFields      = errors.New("inactive reason/date only allowed on inactive students")
	ErrMissingInactiveInfo = errors.New("inactive students require reason and date")
	ErrPaymentDateMismatch = errors.New("payment date must be set exactly when status is paid")
)

// NewDate creates a Date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// IsEmpty reports whether the date is unset (optional dates use the zero value).
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentOverdue:
		return true
	default:
		return false
	}
}

func (s Student) Validate() error {
	if len(strings.TrimSpace(s.Name)) == 0 {
		return ErrEmptyName
	}
	if len(s.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if s.Active {
		if s.InactiveReason != "" || !s.InactiveDate.IsEmpty() {
			return ErrInactiveFields
		}
		return nil
	}
	if strings.TrimSpace(s.InactiveReason) == "" || s.InactiveDate.IsEmpty() {
		return ErrMissingInactiveInfo
	}
	return nil
}

// Deactivate transitions the student to inactive with the mandatory
// reason and date.
func (s *Student) Deactivate(reason string, when Date) {
	s.Active = false
	s.InactiveReason = reason
	s.InactiveDate = when
}

// Reactivate restores the student and clears the inactive fields.
func (s *Student) Reactivate() {
	s.Active = true
	s.InactiveReason = ""
	s.InactiveDate = Date{}
}

func (p Payment) Validate() error {
	if p.StudentID == 0 {
		return ErrMissingStudent
	}
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if err := p.DueDate.Validate(); err != nil {
		return err
	}
	if !p.Status.Valid() {
		return ErrInvalidStatus
	}
	// paid <=> payment date present; read paths rely on this.
	if (p.Status == PaymentPaid) != !p.PaymentDate.IsEmpty() {
		return ErrPaymentDateMismatch
	}
	return nil
}

// Month returns the calendar month this payment bills.
func (p Payment) Month() MonthKey {
	return MonthOf(p.DueDate.Time)
}

func (e CourtExpense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	return e.DueDate.Validate()
}

func (e ExtraExpense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (i AdditionalIncome) Validate() error {
	if err := i.Amount.Validate(); err != nil {
		return err
	}
	if err := i.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(i.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(i.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (a Attendance) Validate() error {
	if a.StudentID == 0 {
		return ErrMissingStudent
	}
	return a.ClassDate.Validate()
}
