package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/singleflight"

	"finanzas/internal/backend"
	"finanzas/internal/cache"
	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/services"
)

const (
	summaryCacheSize = 128
	summaryCacheTTL  = 5 * time.Minute

	requestsPerMinute = 300
)

// Server is the HTTP surface over the record store.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	store      backend.Store
	creditSvc  *services.CreditService
	alertSvc   *services.AlertService
	logger     *log.Logger

	summaryCache *cache.LRUCache[core.Summary]
	creditCache  *cache.LRUCache[core.CreditMonthlySummary]
	limiter      *rateLimiter
	flight       singleflight.Group
}

func NewServer(port string, store backend.Store, creditSvc *services.CreditService, alertSvc *services.AlertService, logger *log.Logger) *Server {
	s := &Server{
		store:        store,
		creditSvc:    creditSvc,
		alertSvc:     alertSvc,
		logger:       logger.WithComponent(log.ComponentHTTP),
		summaryCache: cache.NewLRUCache[core.Summary](summaryCacheSize, summaryCacheTTL),
		creditCache:  cache.NewLRUCache[core.CreditMonthlySummary](summaryCacheSize, summaryCacheTTL),
		limiter:      newRateLimiter(requestsPerMinute),
	}
	s.router = s.routes(logger)
	s.httpServer = &http.Server{
		Addr:         ":" + port,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Caches registers the server's caches with a cleanup manager
func (s *Server) Caches(m *cache.Manager) {
	m.Register(s.summaryCache)
	m.Register(s.creditCache)
}

func (s *Server) routes(logger *log.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(log.Middleware(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)
	r.Use(metricsMiddleware)
	r.Use(s.limiter.middleware)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Method(http.MethodGet, "/metrics", metricsHandler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", s.handleListExpenses)
			r.Post("/", s.handleCreateExpense)
			r.Put("/{id}", s.handleUpdateExpense)
			r.Delete("/{id}", s.handleDeleteExpense)
		})

		r.Route("/incomes", func(r chi.Router) {
			r.Get("/", s.handleListIncomes)
			r.Post("/", s.handleCreateIncome)
			r.Put("/{id}", s.handleUpdateIncome)
			r.Delete("/{id}", s.handleDeleteIncome)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleListCategories)
			r.Post("/", s.handleCreateCategory)
		})

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", s.handleListAlerts)
			r.Post("/", s.handleCreateAlert)
			r.Get("/check", s.handleCheckAlerts)
			r.Put("/{id}", s.handleUpdateAlert)
			r.Delete("/{id}", s.handleDeleteAlert)
		})

		r.Route("/credit-card", func(r chi.Router) {
			r.Get("/", s.handleListCreditEntries)
			r.Post("/", s.handleCreateCreditEntry)
			r.Get("/summary", s.handleCreditSummary)
			r.Put("/{id}", s.handleUpdateCreditEntry)
			r.Delete("/{id}", s.handleDeleteCreditEntry)
		})

		r.Get("/summary", s.handleSummary)
	})

	return r
}

// invalidateSummaries drops cached aggregates after any write. Summaries
// span every record, so per-key invalidation buys nothing here.
func (s *Server) invalidateSummaries() {
	s.summaryCache.Purge()
	s.creditCache.Purge()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	// Ready when the store answers; a cheap list proves the backend is up.
	if _, err := s.store.ListCategories(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "store unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server until it is shut down
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	s.limiter.stop()
	return s.httpServer.Shutdown(ctx)
}
