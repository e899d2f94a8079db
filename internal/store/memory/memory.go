// Package memory is the in-memory store adapter used by tests and the
// dev backend.
package memory

import (
	"context"
	"sort"
	"sync"

	"quarta/internal/core"
	"quarta/internal/store"
)

type Store struct {
	mu         sync.Mutex
	nextID     int64
	students   map[int64]core.Student
	payments   map[int64]core.Payment
	court      map[int64]core.CourtExpense
	extra      map[int64]core.ExtraExpense
	income     map[int64]core.AdditionalIncome
	attendance map[int64]core.Attendance
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		students:   make(map[int64]core.Student),
		payments:   make(map[int64]core.Payment),
		court:      make(map[int64]core.CourtExpense),
		extra:      make(map[int64]core.ExtraExpense),
		income:     make(map[int64]core.AdditionalIncome),
		attendance: make(map[int64]core.Attendance),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) CreateStudent(_ context.Context, st *core.Student) error {
	if err := st.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st.ID = s.id()
	s.students[st.ID] = *st
	return nil
}

func (s *Store) UpdateStudent(_ context.Context, st core.Student) error {
	if err := st.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[st.ID]; !ok {
		return store.ErrNotFound
	}
	s.students[st.ID] = st
	return nil
}

func (s *Store) GetStudent(_ context.Context, id int64) (core.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.students[id]
	if !ok {
		return core.Student{}, store.ErrNotFound
	}
	return st, nil
}

func (s *Store) ListStudents(_ context.Context, active *bool) ([]core.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Student, 0, len(s.students))
	for _, st := range s.students {
		if active != nil && st.Active != *active {
			continue
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreatePayment(_ context.Context, p *core.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[p.StudentID]; !ok {
		return store.ErrNotFound
	}
	p.ID = s.id()
	s.payments[p.ID] = *p
	return nil
}

func (s *Store) UpdatePayment(_ context.Context, p core.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[p.ID]; !ok {
		return store.ErrNotFound
	}
	s.payments[p.ID] = p
	return nil
}

func (s *Store) GetPayment(_ context.Context, id int64) (core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return core.Payment{}, store.ErrNotFound
	}
	return p, nil
}

func (s *Store) ListPayments(_ context.Context, from, to core.Date) ([]store.PaymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.PaymentRecord, 0)
	for _, p := range s.payments {
		if !inRange(p.DueDate, from, to) {
			continue
		}
		out = append(out, store.PaymentRecord{Payment: p, StudentName: s.students[p.StudentID].Name})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate.Time) {
			return out[i].DueDate.Before(out[j].DueDate.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) ListStudentPayments(_ context.Context, studentID int64, from, to core.Date) ([]core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Payment, 0)
	for _, p := range s.payments {
		if p.StudentID != studentID || !inRange(p.DueDate, from, to) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate.Time) {
			return out[i].DueDate.Before(out[j].DueDate.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) CreateCourtExpense(_ context.Context, e *core.CourtExpense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.id()
	s.court[e.ID] = *e
	return nil
}

func (s *Store) CreateExtraExpense(_ context.Context, e *core.ExtraExpense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.id()
	s.extra[e.ID] = *e
	return nil
}

func (s *Store) CreateAdditionalIncome(_ context.Context, i *core.AdditionalIncome) error {
	if err := i.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i.ID = s.id()
	s.income[i.ID] = *i
	return nil
}

func (s *Store) ListCourtExpenses(_ context.Context, from, to core.Date) ([]core.CourtExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.CourtExpense, 0)
	for _, e := range s.court {
		if inRange(e.DueDate, from, to) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListExtraExpenses(_ context.Context, from, to core.Date) ([]core.ExtraExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.ExtraExpense, 0)
	for _, e := range s.extra {
		if inRange(e.Date, from, to) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListAdditionalIncome(_ context.Context, from, to core.Date) ([]core.AdditionalIncome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.AdditionalIncome, 0)
	for _, i := range s.income {
		if inRange(i.Date, from, to) {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpsertAttendance(_ context.Context, a *core.Attendance) error {
	if err := a.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[a.StudentID]; !ok {
		return store.ErrNotFound
	}
	for id, existing := range s.attendance {
		if existing.StudentID == a.StudentID && existing.ClassDate.Equal(a.ClassDate.Time) {
			existing.Present = a.Present
			s.attendance[id] = existing
			a.ID = id
			return nil
		}
	}
	a.ID = s.id()
	s.attendance[a.ID] = *a
	return nil
}

func (s *Store) ListAttendance(_ context.Context, from, to core.Date) ([]store.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.AttendanceRecord, 0)
	for _, a := range s.attendance {
		if !inRange(a.ClassDate, from, to) {
			continue
		}
		out = append(out, store.AttendanceRecord{Attendance: a, StudentName: s.students[a.StudentID].Name})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ClassDate.Equal(out[j].ClassDate.Time) {
			return out[i].ClassDate.Before(out[j].ClassDate.Time)
		}
		return out[i].StudentName < out[j].StudentName
	})
	return out, nil
}

func inRange(d, from, to core.Date) bool {
	if d.Before(from.Time) {
		return false
	}
	return !d.After(to.Time)
}
