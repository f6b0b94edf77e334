package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/middleware/ratelimit"
	"ledger/internal/middleware/security"
	"ledger/internal/middleware/trace"
	"ledger/internal/services"
)

// SessionCookie carries the session token for browser clients.
const SessionCookie = "session"

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services groups what the handlers call.
type Services struct {
	Registration *services.RegistrationService
	Ledger       *services.LedgerService
	Aggregator   *services.Aggregator
	Accounts     *services.AccountService
	Categories   *services.CategoryService
	Budgets      *services.BudgetService
	Settings     *services.SettingsService
	Store        Pinger
}

type Server struct {
	http.Server
	svc          Services
	logger       *applog.Logger
	tracer       *trace.Middleware
	authLimiter  *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc Services, logger *applog.Logger) *Server {
	logger = logger.WithComponent(applog.ComponentHTTP)
	mux := http.NewServeMux()

	s := &Server{
		svc:         svc,
		logger:      logger,
		tracer:      trace.NewMiddleware(security.ClientIP),
		authLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}

	limited := s.authLimiter.Middleware(security.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, security.ClientIP(r), applog.FieldPath, r.URL.Path)
		TooManyRequestsError().Write(w)
	})

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.Handle("POST /api/register", limited(s.public(s.handleRegister)))
	mux.Handle("POST /api/login", limited(s.public(s.handleLogin)))
	mux.Handle("POST /api/logout", s.authed(s.handleLogout))

	mux.Handle("GET /api/accounts", s.authed(s.handleListAccounts))
	mux.Handle("POST /api/accounts", s.authed(s.handleCreateAccount))
	mux.Handle("PUT /api/accounts/{id}", s.authed(s.handleRenameAccount))
	mux.Handle("DELETE /api/accounts/{id}", s.authed(s.handleDeleteAccount))
	mux.Handle("POST /api/accounts/{id}/adjust", s.authed(s.handleAdjustBalance))
	mux.Handle("GET /api/accounts/{id}/reconcile", s.authed(s.handleReconcile))

	mux.Handle("GET /api/categories", s.authed(s.handleListCategories))
	mux.Handle("POST /api/categories", s.authed(s.handleCreateCategory))
	mux.Handle("PUT /api/categories/{id}", s.authed(s.handleRenameCategory))
	mux.Handle("DELETE /api/categories/{id}", s.authed(s.handleDeleteCategory))

	mux.Handle("GET /api/records", s.authed(s.handleListRecords))
	mux.Handle("POST /api/records", s.authed(s.handleCreateRecord))
	mux.Handle("GET /api/records/{id}", s.authed(s.handleGetRecord))
	mux.Handle("PUT /api/records/{id}", s.authed(s.handleUpdateRecord))
	mux.Handle("DELETE /api/records/{id}", s.authed(s.handleDeleteRecord))
	mux.Handle("POST /api/records/{id}/income", s.authed(s.handleAmount(s.svc.Ledger.AddIncome)))
	mux.Handle("POST /api/records/{id}/expense", s.authed(s.handleAmount(s.svc.Ledger.AddExpense)))
	mux.Handle("PUT /api/records/{id}/income", s.authed(s.handleAmount(s.svc.Ledger.UpdateIncome)))
	mux.Handle("PUT /api/records/{id}/expense", s.authed(s.handleAmount(s.svc.Ledger.UpdateExpense)))
	mux.Handle("GET /api/summary", s.authed(s.handleSummary))

	mux.Handle("GET /api/budgets", s.authed(s.handleListBudgets))
	mux.Handle("POST /api/budgets", s.authed(s.handleCreateBudget))
	mux.Handle("PUT /api/budgets/{id}", s.authed(s.handleUpdateBudget))
	mux.Handle("DELETE /api/budgets/{id}", s.authed(s.handleDeleteBudget))

	mux.Handle("GET /api/settings", s.authed(s.handleGetSettings))
	mux.Handle("PUT /api/settings", s.authed(s.handleUpdateSettings))

	mux.Handle("GET /api/analyses", s.authed(s.handleListAnalyses))
	mux.Handle("POST /api/analyses", s.authed(s.handleCreateAnalysis))
	mux.Handle("GET /api/analyses/{id}", s.authed(s.handleGetAnalysis))

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusNotFound, "not_found", "no such endpoint").Write(w)
	})

	// outermost first: headers, logger, trace, request-scoped logger
	var handler http.Handler = mux
	handler = applog.RequestIDMiddleware(trace.RequestID)(handler)
	handler = s.tracer.Middleware(handler)
	handler = applog.Middleware(logger)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops background work and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.authLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

type (
	publicHandler func(w http.ResponseWriter, r *http.Request) *ResponseBuilder
	authedHandler func(r *http.Request, user core.User) *ResponseBuilder
)

func (s *Server) public(h publicHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h(w, r).Write(w)
	})
}

// authed resolves the session token to a user before calling h.
func (s *Server) authed(h authedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			UnauthorizedError("authentication required").Write(w)
			return
		}
		user, err := s.svc.Registration.Authenticate(r.Context(), token)
		if errors.Is(err, core.ErrNotFound) {
			UnauthorizedError("session expired or invalid").Write(w)
			return
		}
		if err != nil {
			s.fail(r, err).Write(w)
			return
		}

		logger := applog.FromContext(r.Context()).With(applog.FieldUserID, user.ID)
		ctx := context.WithValue(r.Context(), applog.LoggerContextKey, logger)
		h(r.WithContext(ctx), user).Write(w)
	})
}

// fail logs err at a level matching its kind and builds the error result.
func (s *Server) fail(r *http.Request, err error) *ResponseBuilder {
	ctx := r.Context()
	logger := applog.FromContext(ctx)
	fields := applog.NewFields().WithError(err).ToSlice()
	if errors.Is(err, core.ErrValidation) || errors.Is(err, core.ErrNotFound) {
		logger.InfoContext(ctx, "Request rejected", fields...)
	} else {
		logger.ErrorContext(ctx, "Request failed", fields...)
	}
	return FromError(err)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	OK(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.svc.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.svc.Store.Ping(ctx); err != nil {
			s.logger.ErrorContext(ctx, "Readiness check failed", applog.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "store", "store unavailable").Write(w)
			return
		}
	}
	m := s.tracer.GetMetrics()
	OK(map[string]any{
		"status":          "ready",
		"requests":        m.TotalRequests,
		"failed_requests": m.FailedRequests,
		"auth_throttled":  s.authLimiter.Rejected(),
	}).Write(w)
}
