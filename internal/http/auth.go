package http

import (
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const sessionName = "quarta-session"

// paths served without a session
var publicPaths = []string{
	"/login",
	"/healthz",
	"/readyz",
	"/static/",
}

// requireAuth gates every page and partial behind the operator session.
// Unauthenticated HTMX partial requests get a 401 so the client does not
// swap a login page into a dashboard card.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, p := range publicPaths {
			if r.URL.Path == p || (strings.HasSuffix(p, "/") && strings.HasPrefix(r.URL.Path, p)) {
				next(w, r)
				return
			}
		}

		if s.isAuthenticated(r) {
			next(w, r)
			return
		}

		if r.Header.Get("HX-Request") == "true" {
			w.Header().Set("HX-Redirect", "/login")
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

func (s *Server) isAuthenticated(r *http.Request) bool {
	session, err := s.sessions.Get(r, sessionName)
	if err != nil {
		return false
	}
	authed, ok := session.Values["authenticated"].(bool)
	return ok && authed
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderLoginPage(w, r, "")
	case http.MethodPost:
		s.handleLoginSubmit(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse login form error", "error", err)
		s.renderLoginPage(w, r, "Formato de requisição inválido")
		return
	}

	user := strings.TrimSpace(r.Form.Get("username"))
	password := r.Form.Get("password")

	if user != s.adminUser ||
		bcrypt.CompareHashAndPassword([]byte(s.adminHash), []byte(password)) != nil {
		slog.WarnContext(r.Context(), "Login rejected", "user", user)
		w.WriteHeader(http.StatusUnauthorized)
		s.renderLoginPage(w, r, "Usuário ou senha incorretos")
		return
	}

	session, _ := s.sessions.Get(r, sessionName)
	session.Values["authenticated"] = true
	session.Values["user"] = user
	if err := session.Save(r, w); err != nil {
		slog.ErrorContext(r.Context(), "Session save error", "error", err)
		http.Error(w, "erro ao criar sessão", http.StatusInternalServerError)
		return
	}

	slog.InfoContext(r.Context(), "Login accepted", "user", user)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	session, _ := s.sessions.Get(r, sessionName)
	session.Options.MaxAge = -1
	_ = session.Save(r, w)

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) renderLoginPage(w http.ResponseWriter, r *http.Request, errMsg string) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	data := struct{ Error string }{Error: errMsg}
	if err := s.templates.ExecuteTemplate(w, "login.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Login template execution failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
