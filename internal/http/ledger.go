package http

import (
	"log/slog"
	"net/http"

	"quarta/internal/core"
)

// handleLedger renders one month's expense and income entries.
func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	month := monthParam(r)
	from := month.First()
	to := core.DateOf(from.AddDate(0, 1, -1))

	court, err := s.store.ListCourtExpenses(r.Context(), from, to)
	if err != nil {
		slog.ErrorContext(r.Context(), "List court expenses error", "error", err, "month", month.String())
		http.Error(w, "erro ao listar despesas", http.StatusInternalServerError)
		return
	}
	extra, err := s.store.ListExtraExpenses(r.Context(), from, to)
	if err != nil {
		slog.ErrorContext(r.Context(), "List extra expenses error", "error", err, "month", month.String())
		http.Error(w, "erro ao listar despesas", http.StatusInternalServerError)
		return
	}
	income, err := s.store.ListAdditionalIncome(r.Context(), from, to)
	if err != nil {
		slog.ErrorContext(r.Context(), "List additional income error", "error", err, "month", month.String())
		http.Error(w, "erro ao listar receitas", http.StatusInternalServerError)
		return
	}

	type row struct {
		Date        string
		Description string
		Amount      string
	}
	data := struct {
		Month    string
		Year     int
		MonthNum int
		Court    []row
		Extra    []row
		Income   []row
	}{Month: month.String(), Year: month.Year, MonthNum: int(month.Month)}
	for _, e := range court {
		data.Court = append(data.Court, row{Date: e.DueDate.String(), Description: e.Description, Amount: formatReais(e.Amount.Cents)})
	}
	for _, e := range extra {
		data.Extra = append(data.Extra, row{Date: e.Date.String(), Description: e.Description, Amount: formatReais(e.Amount.Cents)})
	}
	for _, i := range income {
		data.Income = append(data.Income, row{Date: i.Date.String(), Description: i.Description, Amount: formatReais(i.Amount.Cents)})
	}

	if err := s.templates.ExecuteTemplate(w, "ledger.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Ledger template execution failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleCreateCourtExpense(w http.ResponseWriter, r *http.Request) {
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

	amount, err := formAmount(r, "amount")
	if err != nil {
		writeErrorFragment(w, http.StatusUnprocessableEntity, "Valor inválido")
		return
	}
	due, err := formDate(r, "due_date")
	if err != nil {
		writeErrorFragment(w, http.StatusUnprocessableEntity, "Data inválida")
		return
	}
	paymentDate, err := formOptionalDate(r, "payment_date")
	if err != nil {
		writeErrorFragment(w, http.StatusUnprocessableEntity, "Data de pagamento inválida")
		return
	}

	expense := core.CourtExpense{
		Amount:      amount,
		DueDate:     due,
		PaymentDate: paymentDate,
		Description: sanitizeInput(r.Form.Get("description")),
	}
	if err := s.ledger.CreateCourtExpense(r.Context(), &expense); err != nil {
		if isUserError(err) {
			writeErrorFragment(w, http.StatusUnprocessableEntity, "Dados inválidos: "+err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Create court expense error", "error", err)
		writeErrorFragment(w, http.StatusInternalServerError, "Erro ao salvar despesa")
		return
	}

	ledgerChangedTrigger(w, core.MonthOf(expense.DueDate.Time))
	writeSuccessFragment(w, "Despesa de quadra registrada: "+formatReais(expense.Amount.Cents))
}

func (s *Server) handleCreateExtraExpense(w http.ResponseWriter, r *http.Request) {
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

	amount, err := formAmount(r, "amount")
	if err != nil {
		writeErrorFragment(w, http.StatusUnprocessableEntity, "Valor inválido")
		return
	}
	date, err := formDate(r, "date")
	if err != nil {
		writeErrorFragment(w, http.StatusUnprocessableEntity, "Data inválida")
		return
	}
	paymentDate, err := formOptionalDate(r, "payment_date")
	if err != nil {
		writeErrorFragment(w, http.StatusUnprocessableEntity, "Data de pagamento inválida")
		return
	}

	expense := core.ExtraExpense{
		Amount:      amount,
		Date:        date,
		PaymentDate: paymentDate,
		Description: sanitizeInput(r.Form.Get("description")),
	}
	if err := s.ledger.CreateExtraExpense(r.Context(), &expense); err != nil {
		if isUserError(err) {
			writeErrorFragment(w, http.StatusUnprocessableEntity, "Dados inválidos: "+err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Create extra expense error", "error", err)
		writeErrorFragment(w, http.StatusInternalServerError, "Erro ao salvar despesa")
		return
	}

	ledgerChangedTrigger(w, core.MonthOf(expense.Date.Time))
	writeSuccessFragment(w, "Despesa extra registrada: "+expense.Description)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
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

	amount, err := formAmount(r, "amount")
	if err != nil {
		writeErrorFragment(w, http.StatusUnprocessableEntity, "Valor inválido")
		return
	}
	date, err := formDate(r, "date")
	if err != nil {
		writeErrorFragment(w, http.StatusUnprocessableEntity, "Data inválida")
		return
	}

	income := core.AdditionalIncome{
		Amount:      amount,
		Date:        date,
		Description: sanitizeInput(r.Form.Get("description")),
	}
	if err := s.ledger.CreateAdditionalIncome(r.Context(), &income); err != nil {
		if isUserError(err) {
			writeErrorFragment(w, http.StatusUnprocessableEntity, "Dados inválidos: "+err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Create additional income error", "error", err)
		writeErrorFragment(w, http.StatusInternalServerError, "Erro ao salvar receita")
		return
	}

	ledgerChangedTrigger(w, core.MonthOf(income.Date.Time))
	writeSuccessFragment(w, "Receita registrada: "+income.Description)
}
