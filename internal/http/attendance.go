package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"quarta/internal/core"
)

func (s *Server) handleAttendance(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderAttendancePage(w, r)
	case http.MethodPost:
		s.handleRecordAttendance(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// renderAttendancePage shows one class date's call sheet, defaulting to
// today.
func (s *Server) renderAttendancePage(w http.ResponseWriter, r *http.Request) {
	classDate := core.DateOf(time.Now())
	if v := strings.TrimSpace(r.URL.Query().Get("date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			http.Error(w, "data inválida", http.StatusBadRequest)
			return
		}
		classDate = d
	}

	active := true
	students, err := s.store.ListStudents(r.Context(), &active)
	if err != nil {
		slog.ErrorContext(r.Context(), "List students error", "error", err)
		http.Error(w, "erro ao listar alunos", http.StatusInternalServerError)
		return
	}
	marks, err := s.store.ListAttendance(r.Context(), classDate, classDate)
	if err != nil {
		slog.ErrorContext(r.Context(), "List attendance error", "error", err, "date", classDate.String())
		http.Error(w, "erro ao listar presenças", http.StatusInternalServerError)
		return
	}

	marked := make(map[int64]bool, len(marks))
	for _, m := range marks {
		marked[m.StudentID] = m.Present
	}

	type row struct {
		StudentID int64
		Name      string
		Marked    bool
		Present   bool
	}
	data := struct {
		Date string
		Rows []row
	}{Date: classDate.String()}
	for _, st := range students {
		present, ok := marked[st.ID]
		data.Rows = append(data.Rows, row{StudentID: st.ID, Name: st.Name, Marked: ok, Present: present})
	}

	if err := s.templates.ExecuteTemplate(w, "attendance.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Attendance template execution failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleRecordAttendance(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "url", r.URL.Path)
		writeErrorFragment(w, http.StatusBadRequest, "Formato de requisição inválido")
		return
	}

	studentID, err := formID(r, "student_id")
	if err != nil {
		writeErrorFragment(w, http.StatusUnprocessableEntity, "Aluno inválido")
		return
	}
	classDate, err := formDate(r, "class_date")
	if err != nil {
		writeErrorFragment(w, http.StatusUnprocessableEntity, "Data inválida")
		return
	}

	mark := core.Attendance{
		StudentID: studentID,
		ClassDate: classDate,
		Present:   r.Form.Get("present") == "true",
	}
	if err := s.ledger.RecordAttendance(r.Context(), &mark); err != nil {
		if isUserError(err) {
			writeErrorFragment(w, http.StatusUnprocessableEntity, "Dados inválidos: "+err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Record attendance error", "error", err, "student_id", studentID)
		writeErrorFragment(w, http.StatusInternalServerError, "Erro ao registrar presença")
		return
	}

	ledgerChangedTrigger(w, core.MonthOf(mark.ClassDate.Time))
	if mark.Present {
		writeSuccessFragment(w, "Presença registrada")
		return
	}
	writeSuccessFragment(w, "Falta registrada")
}
