// Package http exposes categories, expenses and budget status as a JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"budgetwatch/internal/log"
	"budgetwatch/internal/monitor"
	"budgetwatch/internal/scheduler"
	"budgetwatch/internal/services"
)

// BudgetMonitor is the part of *monitor.Monitor served over HTTP.
type BudgetMonitor interface {
	Evaluate(ctx context.Context) (monitor.Report, error)
	CheckNow() (*scheduler.Handle, error)
	IsMonitoring() bool
}

// StateReporter reports the scheduler lifecycle for readiness checks.
type StateReporter interface {
	State() scheduler.State
}

// Pinger checks that storage is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the handlers call into.
type Deps struct {
	Categories *services.CategoryService
	Expenses   *services.ExpenseService
	Monitor    BudgetMonitor
	Scheduler  StateReporter
	Store      Pinger
}

type Server struct {
	http.Server
	deps    Deps
	limiter *rateLimiter
	logger  *log.Logger
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default(log.ComponentHTTP)
	}
	s := &Server{
		deps:    deps,
		limiter: newRateLimiter(),
		logger:  logger.WithComponent(log.ComponentHTTP),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/budget/status", s.handleBudgetStatus)
	mux.HandleFunc("POST /api/budget/check", s.handleBudgetCheck)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("PUT /api/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("PUT /api/categories/{id}/limit", s.handleSetLimit)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /api/expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	var h http.Handler = mux
	h = s.withSecurity(h)
	h = log.AccessLogMiddleware(h)
	h = log.RequestIDMiddleware(h)
	h = log.Middleware(s.logger)(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops background cleanup and gracefully shuts the listener down.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.stop()
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready while the scheduler accepts work and storage
// answers a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Scheduler != nil {
		if st := s.deps.Scheduler.State(); st != scheduler.StateRunning {
			http.Error(w, "scheduler "+st.String(), http.StatusServiceUnavailable)
			return
		}
	}
	if s.deps.Store != nil {
		if err := s.deps.Store.Ping(r.Context()); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness ping failed", log.FieldError, err)
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
