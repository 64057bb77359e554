package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"nexu/internal/insights"
	"nexu/internal/log"
	"nexu/internal/metrics"
	"nexu/internal/middleware/ratelimit"
	"nexu/internal/middleware/security"
	"nexu/internal/middleware/trace"
	"nexu/internal/services"
)

const defaultMaxBodyBytes = 1 << 20

// Deps are the collaborators the API serves. Advisor and Metrics may be nil.
type Deps struct {
	Ledger    *services.LedgerService
	Summaries *services.SummaryService
	Recurring *services.RecurringProcessor
	Advisor   insights.Advisor
	Metrics   *metrics.Metrics
	Logger    *log.Logger
}

type Options struct {
	RateLimitPerMinute int
	MaxBodyBytes       int64
}

type Server struct {
	http.Server

	ledger    *services.LedgerService
	summaries *services.SummaryService
	recurring *services.RecurringProcessor
	advisor   insights.Advisor
	metrics   *metrics.Metrics
	logger    *log.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	validate *validator.Validate

	maxBodyBytes int64
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps, opts Options) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}
	advisor := deps.Advisor
	if advisor == nil {
		advisor = insights.StaticAdvisor{}
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}

	s := &Server{
		ledger:       deps.Ledger,
		summaries:    deps.Summaries,
		recurring:    deps.Recurring,
		advisor:      advisor,
		metrics:      deps.Metrics,
		logger:       logger.WithComponent(log.ComponentHTTP),
		detector:     security.NewDetector(logger),
		validate:     newValidator(),
		maxBodyBytes: opts.MaxBodyBytes,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
		}),
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(logger *log.Logger) http.Handler {
	tracer := trace.NewMiddleware(logger, s.detector.ClientIP, s.metrics)

	r := chi.NewRouter()
	r.Use(tracer.Middleware)
	r.Use(chimw.Recoverer)
	r.Use(log.Middleware(logger))
	r.Use(log.RequestIDMiddleware(trace.RequestID))
	r.Use(s.detector.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware(true, s.detector.ClientIP, s.handleRateLimited))
		r.Use(chimw.RequestSize(s.maxBodyBytes))
		r.Use(chimw.AllowContentType("application/json"))

		r.Route("/income", func(r chi.Router) {
			r.Get("/", s.handleListIncome)
			r.Post("/", s.handleCreateIncome)
			r.Put("/{id}", s.handleUpdateIncome)
			r.Patch("/{id}", s.handleUpdateIncome)
			r.Delete("/{id}", s.handleDeleteIncome)
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", s.handleListExpenses)
			r.Post("/", s.handleCreateExpense)
			r.Patch("/{id}", s.handleUpdateExpense)
			r.Post("/{id}/toggle", s.handleToggleExpense)
			r.Delete("/{id}", s.handleDeleteExpense)
		})

		r.Route("/cards", func(r chi.Router) {
			r.Get("/", s.handleListCards)
			r.Post("/", s.handleCreateCard)
			r.Get("/{id}", s.handleGetCard)
			r.Put("/{id}", s.handleUpdateCard)
			r.Delete("/{id}", s.handleDeleteCard)
			r.Get("/{id}/transactions", s.handleListCardTransactions)
			r.Post("/{id}/transactions", s.handleCreateCardTransaction)
		})

		r.Route("/card_transactions", func(r chi.Router) {
			r.Get("/", s.handleListAllCardTransactions)
			r.Put("/{id}", s.handleUpdateCardTransaction)
			r.Delete("/{id}", s.handleDeleteCardTransaction)
		})

		r.Route("/debts", func(r chi.Router) {
			r.Get("/", s.handleListDebts)
			r.Post("/", s.handleCreateDebt)
			r.Patch("/{id}", s.handleUpdateDebt)
			r.Delete("/{id}", s.handleDeleteDebt)
		})

		r.Get("/summary", s.handleSummary)
		r.Get("/insights", s.handleInsights)
		r.Post("/recurring/rollover", s.handleRollover)
	})

	return r
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded, please try again later"})
}

// Shutdown stops background routines and then the HTTP server. Safe to call
// more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
