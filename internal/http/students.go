package http

import (
	"log/slog"
	"net/http"
	"strings"

	"quarta/internal/core"
)

func (s *Server) handleStudents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderStudentsPage(w, r)
	case http.MethodPost:
		s.handleCreateStudent(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) renderStudentsPage(w http.ResponseWriter, r *http.Request) {
	var active *bool
	switch r.URL.Query().Get("filter") {
	case "active":
		v := true
		active = &v
	case "inactive":
		v := false
		active = &v
	}

	students, err := s.store.ListStudents(r.Context(), active)
	if err != nil {
		slog.ErrorContext(r.Context(), "List students error", "error", err)
		http.Error(w, "erro ao listar alunos", http.StatusInternalServerError)
		return
	}

	type row struct {
		ID             int64
		Name           string
		Email          string
		Phone          string
		BirthDate      string
		Active         bool
		InactiveReason string
		InactiveDate   string
	}
	data := struct {
		Filter string
		Rows   []row
	}{Filter: r.URL.Query().Get("filter")}
	for _, st := range students {
		data.Rows = append(data.Rows, row{
			ID:             st.ID,
			Name:           st.Name,
			Email:          st.Email,
			Phone:          st.Phone,
			BirthDate:      st.BirthDate.String(),
			Active:         st.Active,
			InactiveReason: st.InactiveReason,
			InactiveDate:   st.InactiveDate.String(),
		})
	}

	if err := s.templates.ExecuteTemplate(w, "students.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Students template execution failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// studentFromForm builds the student a create or update form describes.
func studentFromForm(r *http.Request) (core.Student, error) {
	birth, err := formOptionalDate(r, "birth_date")
	if err != nil {
		return core.Student{}, err
	}
	inactiveDate, err := formOptionalDate(r, "inactive_date")
	if err != nil {
		return core.Student{}, err
	}
	return core.Student{
		Name:           sanitizeInput(r.Form.Get("name")),
		Email:          sanitizeInput(r.Form.Get("email")),
		Phone:          sanitizeInput(r.Form.Get("phone")),
		BirthDate:      birth,
		Active:         r.Form.Get("active") != "false",
		InactiveReason: sanitizeInput(r.Form.Get("inactive_reason")),
		InactiveDate:   inactiveDate,
	}, nil
}

func (s *Server) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "url", r.URL.Path)
		writeErrorFragment(w, http.StatusBadRequest, "Formato de requisição inválido")
		return
	}

	student, err := studentFromForm(r)
	if err != nil {
		writeErrorFragment(w, http.StatusUnprocessableEntity, "Data inválida")
		return
	}

	if err := s.ledger.CreateStudent(r.Context(), &student); err != nil {
		if isUserError(err) {
			writeErrorFragment(w, http.StatusUnprocessableEntity, "Dados inválidos: "+err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Create student error", "error", err, "name", student.Name)
		writeErrorFragment(w, http.StatusInternalServerError, "Erro ao salvar aluno")
		return
	}

	s.invalidateStudents()
	w.Header().Set("HX-Trigger", "students:changed")
	writeSuccessFragment(w, "Aluno cadastrado: "+student.Name)
}

func (s *Server) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
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
	student, err := studentFromForm(r)
	if err != nil {
		writeErrorFragment(w, http.StatusUnprocessableEntity, "Data inválida")
		return
	}
	student.ID = id

	// deactivation without an explicit reason keeps the previous one
	if !student.Active && strings.TrimSpace(student.InactiveReason) == "" {
		if prev, err := s.store.GetStudent(r.Context(), id); err == nil {
			student.InactiveReason = prev.InactiveReason
		}
	}

	if err := s.ledger.UpdateStudent(r.Context(), student); err != nil {
		if isUserError(err) {
			writeErrorFragment(w, http.StatusUnprocessableEntity, "Dados inválidos: "+err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Update student error", "error", err, "student_id", id)
		writeErrorFragment(w, http.StatusInternalServerError, "Erro ao atualizar aluno")
		return
	}

	s.invalidateStudents()
	w.Header().Set("HX-Trigger", "students:changed")
	writeSuccessFragment(w, "Aluno atualizado: "+student.Name)
}
