package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"quarta/internal/core"
	"quarta/internal/report"
	"quarta/internal/store"

	"golang.org/x/sync/errgroup"
)

// standings look back this far for each student's latest due
const standingWindowDays = 30

// how many recently deactivated students the dashboard card lists
const inactiveListLimit = 5

// monthParam reads ?year and ?month, defaulting to the current month.
// Out-of-range months fall back to the current one.
func monthParam(r *http.Request) core.MonthKey {
	now := time.Now()
	year := now.Year()
	month := int(now.Month())
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			month = m
		}
	}
	if month < 1 || month > 12 {
		slog.WarnContext(r.Context(), "Invalid month parameter", "year", year, "month", month, "corrected_to", int(now.Month()))
		month = int(now.Month())
	}
	return core.MonthKey{Year: year, Month: time.Month(month)}
}

func (s *Server) monthsParam(r *http.Request) int {
	months := s.dashboardMonths
	if v := strings.TrimSpace(r.URL.Query().Get("months")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 36 {
			months = n
		}
	}
	return months
}

// fetchBuckets loads the four row collections for the window ending at
// end concurrently and aggregates them.
func (s *Server) fetchBuckets(ctx context.Context, end core.MonthKey, n int) ([]report.MonthBucket, error) {
	months := core.TrailingMonths(end.First().Time, n)
	from := months[0].First()
	to := core.DateOf(months[len(months)-1].First().AddDate(0, 1, -1))

	// small timeout to avoid hanging partials
	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()

	var (
		payments []store.PaymentRecord
		court    []core.CourtExpense
		extra    []core.ExtraExpense
		income   []core.AdditionalIncome
	)
	g, gctx := errgroup.WithContext(cctx)
	g.Go(func() (err error) {
		payments, err = s.store.ListPayments(gctx, from, to)
		return err
	})
	g.Go(func() (err error) {
		court, err = s.store.ListCourtExpenses(gctx, from, to)
		return err
	})
	g.Go(func() (err error) {
		extra, err = s.store.ListExtraExpenses(gctx, from, to)
		return err
	})
	g.Go(func() (err error) {
		income, err = s.store.ListAdditionalIncome(gctx, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch ledger window (end=%s, months=%d): %w", end, n, err)
	}

	return report.Summarize(months, payments, court, extra, income), nil
}

func (s *Server) getBuckets(ctx context.Context, end core.MonthKey, n int) ([]report.MonthBucket, error) {
	key := "buckets:" + end.String() + ":" + strconv.Itoa(n)

	if data, found := s.bucketsCache.Get(key); found {
		slog.DebugContext(ctx, "Buckets cache hit", "end", end.String(), "months", n)
		return data, nil
	}

	buckets, err := s.fetchBuckets(ctx, end, n)
	if err != nil {
		return nil, err
	}

	s.bucketsCache.Set(key, buckets)
	slog.DebugContext(ctx, "Buckets cached", "end", end.String(), "months", n)
	return buckets, nil
}

// handleFinancialOverview renders the month-by-month table partial.
func (s *Server) handleFinancialOverview(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	end := monthParam(r)
	months := s.monthsParam(r)

	buckets, err := s.getBuckets(r.Context(), end, months)
	if err != nil {
		slog.ErrorContext(r.Context(), "Financial overview error", "error", err, "end", end.String(), "months", months)
		_, _ = w.Write([]byte(`<section id="financial-overview"><div class="placeholder">Erro carregando resumo financeiro</div></section>`))
		return
	}

	// scale the revenue bars to the window maximum
	var maxCents int64
	for _, b := range buckets {
		if b.Revenue.Cents > maxCents {
			maxCents = b.Revenue.Cents
		}
	}

	type row struct {
		Month    string
		Revenue  string
		Expenses string
		Balance  string
		Paid     string
		Pending  string
		Overdue  string
		Students int
		Negative bool
		Width    int
	}
	data := struct {
		Rows []row
	}{}
	for _, b := range buckets {
		width := 0
		if maxCents > 0 && b.Revenue.Cents > 0 {
			width = int((b.Revenue.Cents*100 + maxCents/2) / maxCents) // rounded percent
			if width > 0 && width < 2 {                                // ensure visibility for very small values
				width = 2
			}
			if width > 100 {
				width = 100
			}
		}
		data.Rows = append(data.Rows, row{
			Month:    b.Key.String(),
			Revenue:  formatReais(b.Revenue.Cents),
			Expenses: formatReais(b.Expenses.Cents),
			Balance:  formatReais(b.Balance.Cents),
			Paid:     formatReais(b.Paid.Cents),
			Pending:  formatReais(b.Pending.Cents),
			Overdue:  formatReais(b.Overdue.Cents),
			Students: b.StudentsPaid,
			Negative: b.Balance.Cents < 0,
			Width:    width,
		})
	}

	if err := s.templates.ExecuteTemplate(w, "financial_overview.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "financial_overview.html")
		_, _ = w.Write([]byte(`<section id="financial-overview"><div class="placeholder">Erro renderizando resumo</div></section>`))
	}
}

// handleTotals renders the headline cards for the trailing window.
func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	end := monthParam(r)
	months := s.monthsParam(r)

	// buckets and the member count are independent reads
	var (
		buckets []report.MonthBucket
		members []core.Student
	)
	g, gctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		buckets, err = s.getBuckets(gctx, end, months)
		return err
	})
	g.Go(func() (err error) {
		active := true
		members, err = s.store.ListStudents(gctx, &active)
		return err
	})
	if err := g.Wait(); err != nil {
		slog.ErrorContext(r.Context(), "Totals error", "error", err, "end", end.String(), "months", months)
		_, _ = w.Write([]byte(`<section id="totals"><div class="placeholder">Erro carregando totais</div></section>`))
		return
	}
	totals := report.SumBuckets(buckets)

	data := struct {
		Months   int
		Members  int
		Revenue  string
		Expenses string
		Balance  string
		Negative bool
	}{
		Months:   months,
		Members:  len(members),
		Revenue:  formatReais(totals.Revenue.Cents),
		Expenses: formatReais(totals.Expenses.Cents),
		Balance:  formatReais(totals.Balance.Cents),
		Negative: totals.Balance.Cents < 0,
	}

	if err := s.templates.ExecuteTemplate(w, "totals.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "totals.html")
		_, _ = w.Write([]byte(`<section id="totals"><div class="placeholder">Erro renderizando totais</div></section>`))
	}
}

// handlePaymentStatus renders the per-month dues breakdown partial:
// paid/pending/overdue subtotals and distinct student counts.
func (s *Server) handlePaymentStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	end := monthParam(r)
	months := s.monthsParam(r)

	buckets, err := s.getBuckets(r.Context(), end, months)
	if err != nil {
		slog.ErrorContext(r.Context(), "Payment status error", "error", err, "end", end.String(), "months", months)
		_, _ = w.Write([]byte(`<section id="payment-status"><div class="placeholder">Erro carregando pagamentos</div></section>`))
		return
	}

	type row struct {
		Month          string
		Paid           string
		Pending        string
		Overdue        string
		StudentsPaid   int
		StudentsUnpaid int
	}
	data := struct {
		Rows []row
	}{}
	for _, b := range buckets {
		data.Rows = append(data.Rows, row{
			Month:          b.Key.String(),
			Paid:           formatReais(b.Paid.Cents),
			Pending:        formatReais(b.Pending.Cents),
			Overdue:        formatReais(b.Overdue.Cents),
			StudentsPaid:   b.StudentsPaid,
			StudentsUnpaid: b.StudentsUnpaid,
		})
	}

	if err := s.templates.ExecuteTemplate(w, "payment_status.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "payment_status.html")
		_, _ = w.Write([]byte(`<section id="payment-status"><div class="placeholder">Erro renderizando pagamentos</div></section>`))
	}
}

// handleStudentStatus renders the per-student standing list. The
// standing comes from each active student's latest due inside the
// trailing year.
func (s *Server) handleStudentStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	end := monthParam(r)
	key := "standings:" + end.String()

	standings, found := s.standingsCache.Get(key)
	if !found {
		var err error
		standings, err = s.fetchStandings(r.Context(), end)
		if err != nil {
			slog.ErrorContext(r.Context(), "Student status error", "error", err, "end", end.String())
			_, _ = w.Write([]byte(`<section id="student-status"><div class="placeholder">Erro carregando situação dos alunos</div></section>`))
			return
		}
		s.standingsCache.Set(key, standings)
	}

	type row struct {
		Name      string
		Label     string
		Badge     string
		Attention bool
	}
	data := struct {
		Rows      []row
		Attention int
	}{}
	for _, st := range standings {
		data.Rows = append(data.Rows, row{
			Name:      st.Student.Name,
			Label:     st.Standing.Label(),
			Badge:     st.Standing.BadgeClass(),
			Attention: st.NeedsAttention,
		})
		if st.NeedsAttention {
			data.Attention++
		}
	}

	if err := s.templates.ExecuteTemplate(w, "student_status.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "student_status.html")
		_, _ = w.Write([]byte(`<section id="student-status"><div class="placeholder">Erro renderizando situação</div></section>`))
	}
}

func (s *Server) fetchStandings(ctx context.Context, end core.MonthKey) ([]report.StudentStanding, error) {
	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()

	active := true
	students, err := s.store.ListStudents(cctx, &active)
	if err != nil {
		return nil, fmt.Errorf("list active students: %w", err)
	}

	// window ends today inside the current month, at month end otherwise
	to := core.DateOf(end.First().AddDate(0, 1, -1))
	if today := core.DateOf(time.Now()); today.Before(to.Time) && !today.Before(end.First().Time) {
		to = today
	}
	from := core.DateOf(to.AddDate(0, 0, -standingWindowDays))
	payments, err := s.store.ListPayments(cctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list payments for standings: %w", err)
	}

	return report.StudentStandings(students, payments), nil
}

// handleAttendanceStats renders one month's attendance summary partial.
func (s *Server) handleAttendanceStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	month := monthParam(r)
	key := "attendance:" + month.String()

	stats, found := s.attendanceCache.Get(key)
	if !found {
		cctx, cancel := context.WithTimeout(r.Context(), 7*time.Second)
		from := month.First()
		to := core.DateOf(from.AddDate(0, 1, -1))
		rows, err := s.store.ListAttendance(cctx, from, to)
		cancel()
		if err != nil {
			slog.ErrorContext(r.Context(), "Attendance stats error", "error", err, "month", month.String())
			_, _ = w.Write([]byte(`<section id="attendance-stats"><div class="placeholder">Erro carregando presenças</div></section>`))
			return
		}
		stats = report.AttendanceStats(rows)
		s.attendanceCache.Set(key, stats)
	}

	type row struct {
		Name    string
		Present int
		Total   int
		Rate    string
		Streak  int
		Alert   bool
	}
	data := struct {
		Month string
		Rows  []row
	}{Month: month.String()}
	for _, st := range stats {
		data.Rows = append(data.Rows, row{
			Name:    st.StudentName,
			Present: st.Present,
			Total:   st.Total,
			Rate:    strconv.FormatFloat(st.Rate, 'f', 0, 64) + "%",
			Streak:  st.ConsecutiveAbsences,
			Alert:   st.Alert,
		})
	}

	if err := s.templates.ExecuteTemplate(w, "attendance_stats.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "attendance_stats.html")
		_, _ = w.Write([]byte(`<section id="attendance-stats"><div class="placeholder">Erro renderizando presenças</div></section>`))
	}
}

// handleInactiveSummary renders the retention card partial.
func (s *Server) handleInactiveSummary(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	key := "members:summary"

	summary, found := s.membersCache.Get(key)
	if !found {
		cctx, cancel := context.WithTimeout(r.Context(), 7*time.Second)
		students, err := s.store.ListStudents(cctx, nil)
		cancel()
		if err != nil {
			slog.ErrorContext(r.Context(), "Inactive summary error", "error", err)
			_, _ = w.Write([]byte(`<section id="inactive-summary"><div class="placeholder">Erro carregando retenção</div></section>`))
			return
		}
		summary = report.SummarizeMembers(students, inactiveListLimit)
		s.membersCache.Set(key, summary)
	}

	type row struct {
		Name   string
		Reason string
		Since  string
	}
	data := struct {
		Active    int
		Inactive  int
		Retention string
		Rows      []row
	}{
		Active:    summary.Active,
		Inactive:  summary.Inactive,
		Retention: strconv.FormatFloat(summary.RetentionRate, 'f', 0, 64) + "%",
	}
	for _, st := range summary.RecentlyInactive {
		data.Rows = append(data.Rows, row{Name: st.Name, Reason: st.InactiveReason, Since: st.InactiveDate.String()})
	}

	if err := s.templates.ExecuteTemplate(w, "inactive_summary.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "inactive_summary.html")
		_, _ = w.Write([]byte(`<section id="inactive-summary"><div class="placeholder">Erro renderizando retenção</div></section>`))
	}
}
