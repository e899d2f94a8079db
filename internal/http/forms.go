package http

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"quarta/internal/core"
	"quarta/internal/store"
)

// sanitizeInput removes control characters and trims whitespace
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func formDate(r *http.Request, field string) (core.Date, error) {
	return core.ParseDate(r.Form.Get(field))
}

// formOptionalDate returns the zero Date when the field is blank.
func formOptionalDate(r *http.Request, field string) (core.Date, error) {
	v := strings.TrimSpace(r.Form.Get(field))
	if v == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(v)
}

func formID(r *http.Request, field string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.Form.Get(field)), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func formAmount(r *http.Request, field string) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(r.Form.Get(field))
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

// isUserError separates bad input from backend failures so write
// handlers can answer 422 instead of 500.
func isUserError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidDate,
		core.ErrInvalidAmount,
		core.ErrEmptyName,
		core.ErrEmptyDescription,
		core.ErrInvalidStatus,
		core.ErrMissingStudent,
		core.ErrInactiveFields,
		core.ErrMissingInactiveInfo,
		core.ErrPaymentDateMismatch,
		store.ErrNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func writeErrorFragment(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`<div class="error">` + template.HTMLEscapeString(msg) + `</div>`))
}

func writeSuccessFragment(w http.ResponseWriter, msg string) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">` + template.HTMLEscapeString(msg) + `</div>`))
}

// ledgerChangedTrigger tells the HTMX client which month's partials to
// reload after a write.
func ledgerChangedTrigger(w http.ResponseWriter, month core.MonthKey) {
	w.Header().Set("HX-Trigger", `{"ledger:changed": {"month": "`+month.String()+`"}}`)
}
