// Package http serves the club dashboard and the write forms. Partials
// are rendered server side and swapped in with HTMX; dashboard reads go
// through LRU caches that writes invalidate explicitly.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"quarta/internal/cache"
	"quarta/internal/config"
	"quarta/internal/core"
	applog "quarta/internal/log"
	"quarta/internal/report"
	"quarta/internal/services"
	"quarta/internal/store"
	appweb "quarta/web"

	"github.com/gorilla/sessions"
)

type Server struct {
	http.Server
	templates *template.Template
	store     store.Store
	ledger    *services.LedgerService

	sessions  *sessions.CookieStore
	adminUser string
	adminHash string

	dashboardMonths int
	rateLimiter     *rateLimiter

	// dashboard partial caches, one per rendered shape
	bucketsCache    *cache.LRUCache[[]report.MonthBucket]
	standingsCache  *cache.LRUCache[[]report.StudentStanding]
	attendanceCache *cache.LRUCache[[]report.AttendanceStat]
	membersCache    *cache.LRUCache[report.MemberSummary]
	cacheManager    *cache.Manager

	shutdownOnce sync.Once
}

// simple in-memory rate limiter for POSTs
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// up to 60 requests per minute per client
	client.requests++
	client.lastRequest = now

	return client.requests <= 60
}

// NewServer configures routes, templates, caches, and session auth,
// returning a ready-to-run http.Server. It also hooks the ledger's
// OnChange so every successful write drops the affected cached partials.
func NewServer(addr string, st store.Store, ledger *services.LedgerService, cfg *config.Config) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:           st,
		ledger:          ledger,
		sessions:        sessions.NewCookieStore([]byte(cfg.SessionSecret)),
		adminUser:       cfg.AdminUser,
		adminHash:       cfg.AdminPasswordHash,
		dashboardMonths: cfg.DashboardMonths,
		rateLimiter:     newRateLimiter(),
		bucketsCache:    cache.NewLRUCache[[]report.MonthBucket](100, 5*time.Minute),
		standingsCache:  cache.NewLRUCache[[]report.StudentStanding](50, 5*time.Minute),
		attendanceCache: cache.NewLRUCache[[]report.AttendanceStat](100, 5*time.Minute),
		membersCache:    cache.NewLRUCache[report.MemberSummary](10, 5*time.Minute),
		cacheManager:    cache.NewManager(),
	}
	s.sessions.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	s.cacheManager.Register(s.bucketsCache)
	s.cacheManager.Register(s.standingsCache)
	s.cacheManager.Register(s.attendanceCache)
	s.cacheManager.Register(s.membersCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	if ledger != nil {
		ledger.OnChange = s.invalidateMonth
	}

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(template.FuncMap{
		"reais": formatReais,
	}).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("/login", s.withSecurityHeaders(s.handleLogin))
	mux.HandleFunc("/logout", s.withSecurityHeaders(s.requireAuth(s.handleLogout)))

	mux.HandleFunc("/", s.withSecurityHeaders(s.requireAuth(s.handleIndex)))
	mux.HandleFunc("/students", s.withSecurityHeaders(s.requireAuth(s.handleStudents)))
	mux.HandleFunc("/students/update", s.withSecurityHeaders(s.requireAuth(s.handleUpdateStudent)))
	mux.HandleFunc("/payments", s.withSecurityHeaders(s.requireAuth(s.handlePayments)))
	mux.HandleFunc("/payments/update", s.withSecurityHeaders(s.requireAuth(s.handleUpdatePayment)))
	mux.HandleFunc("/court-expenses", s.withSecurityHeaders(s.requireAuth(s.handleCreateCourtExpense)))
	mux.HandleFunc("/extra-expenses", s.withSecurityHeaders(s.requireAuth(s.handleCreateExtraExpense)))
	mux.HandleFunc("/income", s.withSecurityHeaders(s.requireAuth(s.handleCreateIncome)))
	mux.HandleFunc("/ledger", s.withSecurityHeaders(s.requireAuth(s.handleLedger)))
	mux.HandleFunc("/attendance", s.withSecurityHeaders(s.requireAuth(s.handleAttendance)))

	// UI partials
	mux.HandleFunc("/ui/financial-overview", s.withSecurityHeaders(s.requireAuth(s.handleFinancialOverview)))
	mux.HandleFunc("/ui/payment-status", s.withSecurityHeaders(s.requireAuth(s.handlePaymentStatus)))
	mux.HandleFunc("/ui/totals", s.withSecurityHeaders(s.requireAuth(s.handleTotals)))
	mux.HandleFunc("/ui/student-status", s.withSecurityHeaders(s.requireAuth(s.handleStudentStatus)))
	mux.HandleFunc("/ui/attendance-stats", s.withSecurityHeaders(s.requireAuth(s.handleAttendanceStats)))
	mux.HandleFunc("/ui/inactive-summary", s.withSecurityHeaders(s.requireAuth(s.handleInactiveSummary)))

	return s
}

// Shutdown stops the cleanup goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// invalidateMonth drops the cached partials a ledger write can stale.
// Buckets and standings windows span months, so any change clears them;
// attendance is keyed per month and cleared selectively.
func (s *Server) invalidateMonth(month core.MonthKey) {
	s.bucketsCache.DeletePrefix("buckets:")
	s.standingsCache.DeletePrefix("standings:")
	s.attendanceCache.DeletePrefix("attendance:" + month.String())
}

// invalidateStudents drops the partials derived from the student roster.
// Student writes carry no month, so they bypass the ledger OnChange hook.
func (s *Server) invalidateStudents() {
	s.standingsCache.DeletePrefix("standings:")
	s.membersCache.DeletePrefix("members:")
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := applog.WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)
		logger := applog.FromContext(ctx)

		logger.InfoContext(ctx, "Request started",
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			logger.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com 'unsafe-eval'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		logger.InfoContext(ctx, "Request completed",
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	data := struct {
		Year   int
		Month  int
		Months int
		Today  string
	}{
		Year:   now.Year(),
		Month:  int(now.Month()),
		Months: s.dashboardMonths,
		Today:  core.DateOf(now).String(),
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func formatReais(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	reais := cents / 100
	rem := cents % 100
	out := strconv.FormatInt(reais, 10) + "," + fmt.Sprintf("%02d", rem)
	if neg {
		return "-R$ " + out
	}
	return "R$ " + out
}
