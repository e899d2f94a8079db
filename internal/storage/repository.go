// Package storage is the sqlite adapter behind the store ports.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"quarta/internal/core"
	"quarta/internal/store"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ store.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) CreateStudent(ctx context.Context, s *core.Student) error {
	if err := s.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO students (name, email, phone, birth_date, active, inactive_reason, inactive_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.Name, s.Email, s.Phone, s.BirthDate.String(), boolInt(s.Active), s.InactiveReason, s.InactiveDate.String())
	if err != nil {
		return fmt.Errorf("insert student: %w", err)
	}
	s.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("student insert id: %w", err)
	}

	slog.InfoContext(ctx, "Student created", "id", s.ID, "name", s.Name)
	return nil
}

func (r *SQLiteRepository) UpdateStudent(ctx context.Context, s core.Student) error {
	if err := s.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE students SET name = ?, email = ?, phone = ?, birth_date = ?, active = ?, inactive_reason = ?, inactive_date = ?
		 WHERE id = ?`,
		s.Name, s.Email, s.Phone, s.BirthDate.String(), boolInt(s.Active), s.InactiveReason, s.InactiveDate.String(), s.ID)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) GetStudent(ctx context.Context, id int64) (core.Student, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, phone, birth_date, active, inactive_reason, inactive_date
		 FROM students WHERE id = ?`, id)
	return scanStudent(row)
}

func (r *SQLiteRepository) ListStudents(ctx context.Context, active *bool) ([]core.Student, error) {
	query := `SELECT id, name, email, phone, birth_date, active, inactive_reason, inactive_date
		 FROM students`
	args := []any{}
	if active != nil {
		query += ` WHERE active = ?`
		args = append(args, boolInt(*active))
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var out []core.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreatePayment(ctx context.Context, p *core.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (student_id, amount_cents, due_date, payment_date, status)
		 VALUES (?, ?, ?, ?, ?)`,
		p.StudentID, p.Amount.Cents, p.DueDate.String(), p.PaymentDate.String(), string(p.Status))
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("payment insert id: %w", err)
	}

	slog.InfoContext(ctx, "Payment created",
		"id", p.ID,
		"student_id", p.StudentID,
		"due_date", p.DueDate.String(),
		"status", string(p.Status))
	return nil
}

func (r *SQLiteRepository) UpdatePayment(ctx context.Context, p core.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE payments SET student_id = ?, amount_cents = ?, due_date = ?, payment_date = ?, status = ?
		 WHERE id = ?`,
		p.StudentID, p.Amount.Cents, p.DueDate.String(), p.PaymentDate.String(), string(p.Status), p.ID)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) GetPayment(ctx context.Context, id int64) (core.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, student_id, amount_cents, due_date, payment_date, status
		 FROM payments WHERE id = ?`, id)
	return scanPayment(row)
}

func (r *SQLiteRepository) ListPayments(ctx context.Context, from, to core.Date) ([]store.PaymentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.student_id, p.amount_cents, p.due_date, p.payment_date, p.status, s.name
		 FROM payments p JOIN students s ON s.id = p.student_id
		 WHERE p.due_date >= ? AND p.due_date <= ?
		 ORDER BY p.due_date, p.id`,
		from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []store.PaymentRecord
	for rows.Next() {
		var rec store.PaymentRecord
		var due, paid, status string
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.Amount.Cents, &due, &paid, &status, &rec.StudentName); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		if rec.DueDate, rec.PaymentDate, rec.Status, err = paymentFields(due, paid, status); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListStudentPayments(ctx context.Context, studentID int64, from, to core.Date) ([]core.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, student_id, amount_cents, due_date, payment_date, status
		 FROM payments
		 WHERE student_id = ? AND due_date >= ? AND due_date <= ?
		 ORDER BY due_date, id`,
		studentID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list student payments: %w", err)
	}
	defer rows.Close()

	var out []core.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateCourtExpense(ctx context.Context, e *core.CourtExpense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO court_expenses (amount_cents, due_date, payment_date, description)
		 VALUES (?, ?, ?, ?)`,
		e.Amount.Cents, e.DueDate.String(), e.PaymentDate.String(), e.Description)
	if err != nil {
		return fmt.Errorf("insert court expense: %w", err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("court expense insert id: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CreateExtraExpense(ctx context.Context, e *core.ExtraExpense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO extra_expenses (amount_cents, date, payment_date, description)
		 VALUES (?, ?, ?, ?)`,
		e.Amount.Cents, e.Date.String(), e.PaymentDate.String(), e.Description)
	if err != nil {
		return fmt.Errorf("insert extra expense: %w", err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("extra expense insert id: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CreateAdditionalIncome(ctx context.Context, i *core.AdditionalIncome) error {
	if err := i.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO additional_income (amount_cents, date, description)
		 VALUES (?, ?, ?)`,
		i.Amount.Cents, i.Date.String(), i.Description)
	if err != nil {
		return fmt.Errorf("insert additional income: %w", err)
	}
	i.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("additional income insert id: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListCourtExpenses(ctx context.Context, from, to core.Date) ([]core.CourtExpense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount_cents, due_date, payment_date, description
		 FROM court_expenses
		 WHERE due_date >= ? AND due_date <= ?
		 ORDER BY due_date, id`,
		from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list court expenses: %w", err)
	}
	defer rows.Close()

	var out []core.CourtExpense
	for rows.Next() {
		var e core.CourtExpense
		var due, paid string
		if err := rows.Scan(&e.ID, &e.Amount.Cents, &due, &paid, &e.Description); err != nil {
			return nil, fmt.Errorf("scan court expense: %w", err)
		}
		if e.DueDate, err = core.ParseDate(due); err != nil {
			return nil, fmt.Errorf("court expense due date %q: %w", due, err)
		}
		if e.PaymentDate, err = optionalDate(paid); err != nil {
			return nil, fmt.Errorf("court expense payment date %q: %w", paid, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListExtraExpenses(ctx context.Context, from, to core.Date) ([]core.ExtraExpense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount_cents, date, payment_date, description
		 FROM extra_expenses
		 WHERE date >= ? AND date <= ?
		 ORDER BY date, id`,
		from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list extra expenses: %w", err)
	}
	defer rows.Close()

	var out []core.ExtraExpense
	for rows.Next() {
		var e core.ExtraExpense
		var date, paid string
		if err := rows.Scan(&e.ID, &e.Amount.Cents, &date, &paid, &e.Description); err != nil {
			return nil, fmt.Errorf("scan extra expense: %w", err)
		}
		if e.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("extra expense date %q: %w", date, err)
		}
		if e.PaymentDate, err = optionalDate(paid); err != nil {
			return nil, fmt.Errorf("extra expense payment date %q: %w", paid, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListAdditionalIncome(ctx context.Context, from, to core.Date) ([]core.AdditionalIncome, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount_cents, date, description
		 FROM additional_income
		 WHERE date >= ? AND date <= ?
		 ORDER BY date, id`,
		from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list additional income: %w", err)
	}
	defer rows.Close()

	var out []core.AdditionalIncome
	for rows.Next() {
		var i core.AdditionalIncome
		var date string
		if err := rows.Scan(&i.ID, &i.Amount.Cents, &date, &i.Description); err != nil {
			return nil, fmt.Errorf("scan additional income: %w", err)
		}
		if i.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("additional income date %q: %w", date, err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpsertAttendance(ctx context.Context, a *core.Attendance) error {
	if err := a.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO attendance (student_id, class_date, present)
		 VALUES (?, ?, ?)
		 ON CONFLICT (student_id, class_date) DO UPDATE SET present = excluded.present`,
		a.StudentID, a.ClassDate.String(), boolInt(a.Present))
	if err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT id FROM attendance WHERE student_id = ? AND class_date = ?`,
		a.StudentID, a.ClassDate.String())
	if err := row.Scan(&a.ID); err != nil {
		return fmt.Errorf("attendance row id: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListAttendance(ctx context.Context, from, to core.Date) ([]store.AttendanceRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.student_id, a.class_date, a.present, s.name
		 FROM attendance a JOIN students s ON s.id = a.student_id
		 WHERE a.class_date >= ? AND a.class_date <= ?
		 ORDER BY a.class_date, s.name`,
		from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()

	var out []store.AttendanceRecord
	for rows.Next() {
		var rec store.AttendanceRecord
		var date string
		var present int64
		if err := rows.Scan(&rec.ID, &rec.StudentID, &date, &present, &rec.StudentName); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		if rec.ClassDate, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("attendance class date %q: %w", date, err)
		}
		rec.Present = present != 0
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (core.Student, error) {
	var s core.Student
	var birth, inactive string
	var active int64
	err := row.Scan(&s.ID, &s.Name, &s.Email, &s.Phone, &birth, &active, &s.InactiveReason, &inactive)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Student{}, store.ErrNotFound
	}
	if err != nil {
		return core.Student{}, fmt.Errorf("scan student: %w", err)
	}
	s.Active = active != 0
	if s.BirthDate, err = optionalDate(birth); err != nil {
		return core.Student{}, fmt.Errorf("student birth date %q: %w", birth, err)
	}
	if s.InactiveDate, err = optionalDate(inactive); err != nil {
		return core.Student{}, fmt.Errorf("student inactive date %q: %w", inactive, err)
	}
	return s, nil
}

func scanPayment(row rowScanner) (core.Payment, error) {
	var p core.Payment
	var due, paid, status string
	err := row.Scan(&p.ID, &p.StudentID, &p.Amount.Cents, &due, &paid, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Payment{}, store.ErrNotFound
	}
	if err != nil {
		return core.Payment{}, fmt.Errorf("scan payment: %w", err)
	}
	if p.DueDate, p.PaymentDate, p.Status, err = paymentFields(due, paid, status); err != nil {
		return core.Payment{}, err
	}
	return p, nil
}

func paymentFields(due, paid, status string) (core.Date, core.Date, core.PaymentStatus, error) {
	dueDate, err := core.ParseDate(due)
	if err != nil {
		return core.Date{}, core.Date{}, "", fmt.Errorf("payment due date %q: %w", due, err)
	}
	paidDate, err := optionalDate(paid)
	if err != nil {
		return core.Date{}, core.Date{}, "", fmt.Errorf("payment date %q: %w", paid, err)
	}
	st := core.PaymentStatus(status)
	if !st.Valid() {
		return core.Date{}, core.Date{}, "", fmt.Errorf("payment status %q: %w", status, core.ErrInvalidStatus)
	}
	return dueDate, paidDate, st, nil
}

func optionalDate(s string) (core.Date, error) {
	if s == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
