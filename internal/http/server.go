package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"asesor/internal/budget"
	"asesor/internal/core"
	applog "asesor/internal/log"
	"asesor/internal/middleware/ratelimit"
	"asesor/internal/middleware/security"
	"asesor/internal/middleware/trace"
	"asesor/internal/services"
)

// Ports the handlers depend on.
type (
	Advisor interface {
		Dashboard(ctx context.Context, owner string, asOf core.Date) (services.Dashboard, error)
		Summary(ctx context.Context, owner string, asOf core.Date) (budget.FinancialSummary, error)
		Recommendations(ctx context.Context, owner string, asOf core.Date) ([]budget.Signal, error)
		RecentTransactions(ctx context.Context, owner string, limit int) ([]core.Transaction, error)
	}

	Recorder interface {
		Record(ctx context.Context, t core.Transaction) (core.Transaction, error)
	}

	Budgets interface {
		Get(ctx context.Context, owner string) (services.BudgetView, error)
		Save(ctx context.Context, cfg core.BudgetConfig) (services.BudgetView, error)
	}

	Accounts interface {
		Register(ctx context.Context, username, password, confirm string) error
		Login(ctx context.Context, username, password string) (services.Token, error)
	}

	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// Deps groups the collaborators of the server.
type Deps struct {
	Advisor  Advisor
	Recorder Recorder
	Budgets  Budgets
	Accounts Accounts
	Tokens   TokenValidator
	// Ready is checked by /readyz; nil means always ready.
	Ready Pinger
	// Now is the server clock used for default dates; nil means time.Now.
	Now func() time.Time
}

type Server struct {
	http.Server
	deps        Deps
	logger      *applog.Logger
	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware

	shutdownOnce sync.Once
}

// Options tunes the middleware stack.
type Options struct {
	RequestsPerMinute int
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps, logger *applog.Logger, opts Options) *Server {
	if logger == nil {
		logger = applog.Wrap(nil, applog.ComponentHTTP)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	ips := security.NewClientIPResolver()
	s := &Server{
		deps:        deps,
		logger:      logger,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute}),
		tracer:      trace.NewMiddleware(logger, ips.ClientIP),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("GET /api/categories", s.handleCategories)

	protected := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, requireOwner(deps.Tokens, h))
	}
	protected("GET /api/dashboard", s.handleDashboard)
	protected("GET /api/summary", s.handleSummary)
	protected("GET /api/recommendations", s.handleRecommendations)
	protected("GET /api/transactions", s.handleListTransactions)
	protected("POST /api/transactions", s.handleCreateTransaction)
	protected("GET /api/budget", s.handleGetBudget)
	protected("PUT /api/budget", s.handleSaveBudget)

	onLimit := func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, ips.ClientIP(r),
			applog.FieldPath, r.URL.Path)
		TooManyRequestsError().Write(w, r)
	}

	s.Server = http.Server{
		Addr: addr,
		Handler: chain(mux,
			s.tracer.Middleware,
			security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware,
			s.rateLimiter.Middleware(ips.ClientIP, onLimit, http.MethodGet, http.MethodHead, http.MethodOptions),
		),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and the rate limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// today is the default as-of day.
func (s *Server) today() core.Date {
	return core.DateOf(s.deps.Now())
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w, r)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Ready.Ping(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			ServiceUnavailableError("storage unavailable").Write(w, r)
			return
		}
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w, r)
}
