// Package http serves the JSON API: the four ledgers, the budget plan,
// the financial profile and the two derived reports.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/services"
)

// LedgerStore is the CRUD surface the ledger handlers need; the SQLite
// repository implements it.
type LedgerStore interface {
	services.LedgerReader

	CreateInvoice(ctx context.Context, inv core.Invoice) (core.Invoice, error)
	UpdateInvoice(ctx context.Context, inv core.Invoice) (core.Invoice, error)
	DeleteInvoice(ctx context.Context, id string) error

	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error

	CreatePayroll(ctx context.Context, p core.Payroll) (core.Payroll, error)
	DeletePayroll(ctx context.Context, id string) error

	CreateBudgetLine(ctx context.Context, b core.BudgetLine) (core.BudgetLine, error)
	DeleteBudgetLine(ctx context.Context, id string) error

	UpdateProfile(ctx context.Context, p core.FinancialProfile) error
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	http.Server

	statements *services.StatementService
	reports    *services.ReportService
	ledgers    LedgerStore
	db         Pinger

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, statements *services.StatementService, reports *services.ReportService, ledgers LedgerStore, db Pinger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		statements:  statements,
		reports:     reports,
		ledgers:     ledgers,
		db:          db,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/statements", s.wrap(s.handleCreateStatement))
	mux.HandleFunc("GET /api/statements", s.wrap(s.handleListStatements))
	mux.HandleFunc("GET /api/statements/{id}", s.wrap(s.handleGetStatement))
	mux.HandleFunc("DELETE /api/statements/{id}", s.wrap(s.handleDeleteStatement))
	mux.HandleFunc("POST /api/statements/{id}/entries", s.wrap(s.handleAddEntry))
	mux.HandleFunc("PUT /api/statements/{id}/entries/{entryID}", s.wrap(s.handleUpdateEntry))
	mux.HandleFunc("DELETE /api/statements/{id}/entries/{entryID}", s.wrap(s.handleDeleteEntry))

	mux.HandleFunc("POST /api/invoices", s.wrap(s.handleCreateInvoice))
	mux.HandleFunc("GET /api/invoices", s.wrap(s.handleListInvoices))
	mux.HandleFunc("PUT /api/invoices/{id}", s.wrap(s.handleUpdateInvoice))
	mux.HandleFunc("DELETE /api/invoices/{id}", s.wrap(s.handleDeleteInvoice))

	mux.HandleFunc("POST /api/transactions", s.wrap(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions", s.wrap(s.handleListTransactions))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.wrap(s.handleDeleteTransaction))

	mux.HandleFunc("POST /api/payrolls", s.wrap(s.handleCreatePayroll))
	mux.HandleFunc("GET /api/payrolls", s.wrap(s.handleListPayrolls))
	mux.HandleFunc("DELETE /api/payrolls/{id}", s.wrap(s.handleDeletePayroll))

	mux.HandleFunc("POST /api/budgets", s.wrap(s.handleCreateBudgetLine))
	mux.HandleFunc("GET /api/budgets", s.wrap(s.handleListBudgetLines))
	mux.HandleFunc("DELETE /api/budgets/{id}", s.wrap(s.handleDeleteBudgetLine))

	mux.HandleFunc("GET /api/profile", s.wrap(s.handleGetProfile))
	mux.HandleFunc("PUT /api/profile", s.wrap(s.handleUpdateProfile))

	mux.HandleFunc("GET /api/reports/balance-sheet", s.wrap(s.handleBalanceSheet))
	mux.HandleFunc("GET /api/reports/profit-loss", s.wrap(s.handleProfitLoss))

	return s
}

// wrap adds security headers, rate limiting on mutating methods, a
// request id and request logging around a handler.
func (s *Server) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

// handleReady reports ready only when the database answers a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			slog.ErrorContext(ctx, "Readiness check failed", "error", err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ready")
}

// Shutdown stops the rate limiter's cleanup goroutine along with the
// listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
