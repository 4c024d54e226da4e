// Package httpapi exposes the engine over a small JSON API. It is the
// caller surface: input validation (positive amounts, required fields)
// happens here, before anything reaches the engine.
package httpapi

import (
	"net/http"
	"time"

	"kumbara/internal/cache"
	"kumbara/internal/catalog"
	"kumbara/internal/core"
	"kumbara/internal/engine"
	applog "kumbara/internal/log"
)

// Server routes JSON requests to the engine.
type Server struct {
	engine  *engine.Service
	catalog *catalog.Catalog
	log     *applog.Logger
	mux     *http.ServeMux

	// summaries caches GET /summary responses per month key. Mutations
	// drop the months they touch.
	summaries *cache.LRUCache[core.MonthlySummary]
}

// Options configures the server.
type Options struct {
	Engine   *engine.Service
	Catalog  *catalog.Catalog
	Logger   *applog.Logger
	CacheLen int
	CacheTTL time.Duration
}

// New builds the API server and its routes.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	cacheLen := opts.CacheLen
	if cacheLen <= 0 {
		cacheLen = 24
	}
	cacheTTL := opts.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}

	s := &Server{
		engine:    opts.Engine,
		catalog:   opts.Catalog,
		log:       logger.WithComponent(applog.ComponentHTTP),
		summaries: cache.NewLRUCache[core.MonthlySummary](cacheLen, cacheTTL),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /categories", s.handleListCategories)

	mux.HandleFunc("POST /transactions", s.handleAddTransaction)
	mux.HandleFunc("GET /transactions", s.handleListTransactions)
	mux.HandleFunc("GET /transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /transactions/{id}", s.handleRemoveTransaction)
	mux.HandleFunc("GET /totals", s.handleTotals)

	mux.HandleFunc("POST /budgets", s.handleAddBudget)
	mux.HandleFunc("GET /budgets", s.handleListBudgets)
	mux.HandleFunc("PUT /budgets/{id}", s.handleUpdateBudget)
	mux.HandleFunc("DELETE /budgets/{id}", s.handleDeleteBudget)
	mux.HandleFunc("GET /summary", s.handleSummary)

	s.mux = mux
	return s
}

// Handler returns the routed handler with request logging attached.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// HTTPServer wraps the handler in an http.Server with the usual timeouts.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:           addr,
		Handler:        s.Handler(),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}
}

// SummaryCache exposes the cache for periodic cleanup of expired entries.
func (s *Server) SummaryCache() cache.Cleaner {
	return s.summaries
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.InfoContext(r.Context(), "request",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rec.status,
			applog.FieldDuration, time.Since(start).Milliseconds())
	})
}
