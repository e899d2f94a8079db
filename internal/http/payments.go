package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"quarta/internal/core"
)

func (s *Server) handlePayments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderPaymentsPage(w, r)
	case http.MethodPost:
		s.handleCreatePayment(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) renderPaymentsPage(w http.ResponseWriter, r *http.Request) {
	month := monthParam(r)
	from := month.First()
	to := core.DateOf(from.AddDate(0, 1, -1))

	payments, err := s.store.ListPayments(r.Context(), from, to)
	if err != nil {
		slog.ErrorContext(r.Context(), "List payments error", "error", err, "month", month.String())
		http.Error(w, "erro ao listar mensalidades", http.StatusInternalServerError)
		return
	}
	active := true
	students, err := s.store.ListStudents(r.Context(), &active)
	if err != nil {
		slog.ErrorContext(r.Context(), "List students error", "error", err)
		http.Error(w, "erro ao listar alunos", http.StatusInternalServerError)
		return
	}

	type option struct {
		ID   int64
		Name string
	}
	type row struct {
		ID          int64
		StudentID   int64
		Student     string
		Amount      string
		AmountValue string
		DueDate     string
		PaymentDate string
		Status      string
		StatusLabel string
	}
	data := struct {
		Month    string
		Year     int
		MonthNum int
		Students []option
		Rows     []row
	}{Month: month.String(), Year: month.Year, MonthNum: int(month.Month)}
	for _, st := range students {
		data.Students = append(data.Students, option{ID: st.ID, Name: st.Name})
	}
	for _, p := range payments {
		data.Rows = append(data.Rows, row{
			ID:          p.ID,
			StudentID:   p.StudentID,
			Student:     p.StudentName,
			Amount:      formatReais(p.Amount.Cents),
			AmountValue: amountValue(p.Amount.Cents),
			DueDate:     p.DueDate.String(),
			PaymentDate: p.PaymentDate.String(),
			Status:      string(p.Status),
			StatusLabel: statusLabel(p.Status),
		})
	}

	if err := s.templates.ExecuteTemplate(w, "payments.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Payments template execution failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// amountValue renders cents the way the amount form field expects them.
func amountValue(cents int64) string {
	return fmt.Sprintf("%d,%02d", cents/100, cents%100)
}

func statusLabel(status core.PaymentStatus) string {
	switch status {
	case core.PaymentPaid:
		return "Pago"
	case core.PaymentOverdue:
		return "Atrasado"
	default:
		return "Pendente"
	}
}

// paymentFromForm builds the payment a create or update form describes.
// The payment date is optional; the ledger derives it when the status
// says paid and none was given.
func paymentFromForm(r *http.Request) (core.Payment, error) {
	studentID, err := formID(r, "student_id")
	if err != nil {
		return core.Payment{}, core.ErrMissingStudent
	}
	amount, err := formAmount(r, "amount")
	if err != nil {
		return core.Payment{}, err
	}
	due, err := formDate(r, "due_date")
	if err != nil {
		return core.Payment{}, err
	}
	paymentDate, err := formOptionalDate(r, "payment_date")
	if err != nil {
		return core.Payment{}, err
	}
	return core.Payment{
		StudentID:   studentID,
		Amount:      amount,
		DueDate:     due,
		PaymentDate: paymentDate,
		Status:      core.PaymentStatus(sanitizeInput(r.Form.Get("status"))),
	}, nil
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "url", r.URL.Path)
		writeErrorFragment(w, http.StatusBadRequest, "Formato de requisição inválido")
		return
	}

	payment, err := paymentFromForm(r)
	if err != nil {
		writeErrorFragment(w, http.StatusUnprocessableEntity, "Dados inválidos: "+err.Error())
		return
	}

	if err := s.ledger.CreatePayment(r.Context(), &payment); err != nil {
		if isUserError(err) {
			writeErrorFragment(w, http.StatusUnprocessableEntity, "Dados inválidos: "+err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Create payment error", "error", err, "student_id", payment.StudentID)
		writeErrorFragment(w, http.StatusInternalServerError, "Erro ao salvar mensalidade")
		return
	}

	ledgerChangedTrigger(w, payment.Month())
	writeSuccessFragment(w, "Mensalidade registrada: "+formatReais(payment.Amount.Cents))
}

func (s *Server) handleUpdatePayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "url", r.URL.Path)
		writeErrorFragment(w, http.StatusBadRequest, "Formato de requisição inválido")
		return
	}

	id, err := formID(r, "id")
	if err != nil {
		writeErrorFragment(w, http.StatusUnprocessableEntity, "Identificador inválido")
		return
	}
	payment, err := paymentFromForm(r)
	if err != nil {
		writeErrorFragment(w, http.StatusUnprocessableEntity, "Dados inválidos: "+err.Error())
		return
	}
	payment.ID = id

	if err := s.ledger.UpdatePayment(r.Context(), payment); err != nil {
		if isUserError(err) {
			writeErrorFragment(w, http.StatusUnprocessableEntity, "Dados inválidos: "+err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Update payment error", "error", err, "payment_id", id)
		writeErrorFragment(w, http.StatusInternalServerError, "Erro ao atualizar mensalidade")
		return
	}

	ledgerChangedTrigger(w, payment.Month())
	writeSuccessFragment(w, "Mensalidade atualizada")
}
