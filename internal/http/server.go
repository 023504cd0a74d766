// Package http serves the revtrack JSON API and the public form endpoints.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"revtrack/internal/cache"
	"revtrack/internal/core"
	"revtrack/internal/log"
	"revtrack/internal/middleware/ratelimit"
	"revtrack/internal/middleware/security"
	"revtrack/internal/middleware/trace"
	"revtrack/internal/services"
)

// Options tunes the server. Zero values pick the defaults.
type Options struct {
	Logger *log.Logger
	// PublicFormRateLimit caps requests per client per minute on /f/{slug}.
	PublicFormRateLimit int
	TrustedProxies      []string
	// ViewCacheSize bounds the number of cached summary and analytics views.
	ViewCacheSize int
	ViewCacheTTL  time.Duration
}

// Server is the HTTP front of a DataService.
type Server struct {
	http.Server

	data     *services.DataService
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	views  *cache.LRUCache[any]
	caches *cache.Manager
}

func NewServer(addr string, svc *services.DataService, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.PublicFormRateLimit <= 0 {
		opts.PublicFormRateLimit = 10
	}
	if opts.ViewCacheSize <= 0 {
		opts.ViewCacheSize = 100
	}
	if opts.ViewCacheTTL <= 0 {
		opts.ViewCacheTTL = time.Minute
	}
	logger := opts.Logger.WithComponent(log.ComponentHTTP)

	detector := security.NewDetector(logger)
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", cidr, err)
		}
	}

	s := &Server{
		data:     svc,
		logger:   logger,
		detector: detector,
		tracer:   trace.NewMiddleware(logger, detector.ExtractClientIP),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.PublicFormRateLimit,
		}),
		views:  cache.NewLRUCache[any](opts.ViewCacheSize, opts.ViewCacheTTL),
		caches: cache.NewManager(logger),
	}
	s.caches.Register(s.views)
	s.caches.StartCleanup(5 * time.Minute)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/revenue", s.handleListRevenue)
	api.HandleFunc("POST /api/revenue", s.handleCreateRevenue)
	api.HandleFunc("GET /api/revenue/{id}", s.handleGetRevenue)
	api.HandleFunc("PUT /api/revenue/{id}", s.handleUpdateRevenue)
	api.HandleFunc("DELETE /api/revenue/{id}", s.handleDeleteRevenue)

	api.HandleFunc("GET /api/goals", s.handleListGoals)
	api.HandleFunc("POST /api/goals", s.handleCreateGoal)
	api.HandleFunc("GET /api/goals/progress", s.handleGoalProgress)
	api.HandleFunc("DELETE /api/goals/{id}", s.handleDeleteGoal)

	api.HandleFunc("GET /api/calls", s.handleListCalls)
	api.HandleFunc("POST /api/calls", s.handleCreateCall)
	api.HandleFunc("GET /api/calls/stats", s.handleCallStats)
	api.HandleFunc("GET /api/calls/{id}", s.handleGetCall)
	api.HandleFunc("PUT /api/calls/{id}", s.handleUpdateCall)
	api.HandleFunc("DELETE /api/calls/{id}", s.handleDeleteCall)
	api.HandleFunc("POST /api/calls/{id}/convert", s.handleConvertCall)
	api.HandleFunc("POST /api/calls/{id}/revert", s.handleRevertCall)

	api.HandleFunc("GET /api/summary", s.cachedView(s.handleSummary))
	api.HandleFunc("GET /api/analytics", s.cachedView(s.handleAnalytics))
	api.HandleFunc("GET /api/buckets", s.handleBuckets)
	api.HandleFunc("GET /api/consistency", s.handleConsistency)
	api.HandleFunc("POST /api/consistency/repair", s.handleRepairConsistency)

	api.HandleFunc("GET /api/catalog", s.handleCatalog)
	api.HandleFunc("GET /api/catalog/categories", s.handleCatalogCategories)
	api.HandleFunc("GET /api/catalog/templates", s.handleCatalogTemplates)

	api.HandleFunc("GET /api/forms", s.handleListForms)
	api.HandleFunc("POST /api/forms", s.handleCreateForm)
	api.HandleFunc("GET /api/forms/{id}", s.handleGetForm)
	api.HandleFunc("PUT /api/forms/{id}", s.handleUpdateForm)
	api.HandleFunc("DELETE /api/forms/{id}", s.handleDeleteForm)
	api.HandleFunc("GET /api/forms/{id}/submissions", s.handleListSubmissions)
	api.HandleFunc("GET /api/forms/{id}/stats", s.handleFormStats)
	api.HandleFunc("PATCH /api/submissions/{id}", s.handleUpdateSubmission)

	mux.Handle("/api/", security.Headers(security.DefaultHeadersConfig())(api))

	public := http.NewServeMux()
	public.HandleFunc("GET /f/{slug}", s.handlePublicForm)
	public.HandleFunc("POST /f/{slug}", s.handleSubmitForm)
	mux.Handle("/f/", chain(public,
		log.ComponentMiddleware(log.ComponentForms),
		security.Headers(security.PublicFormHeadersConfig()),
		s.limiter.Middleware(s.detector.ExtractClientIP, s.rateLimited),
	))

	return chain(mux,
		s.detector.Middleware,
		s.tracer.Middleware,
		log.Middleware(s.logger),
		log.RequestIDMiddleware(trace.RequestID),
	)
}

// chain wraps h so that the first middleware runs first.
func chain(h http.Handler, mw ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(r, http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
}

// cachedView serves a GET view from the view cache while the data version
// and the calendar day are unchanged.
func (s *Server) cachedView(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := fmt.Sprintf("%d|%s|%s?%s", s.data.Version(), core.DateOf(s.data.Now()).String(), r.URL.Path, r.URL.RawQuery)
		if v, ok := s.views.Get(key); ok {
			w.Header().Set("X-Cache", "HIT")
			writeJSON(w, http.StatusOK, v)
			return
		}

		rec := &viewRecorder{ResponseWriter: w}
		next(rec, r)
		if rec.status == http.StatusOK && rec.value != nil {
			s.views.Set(key, rec.value)
		}
	}
}

// viewRecorder captures what the wrapped handler passes to writeJSON.
type viewRecorder struct {
	http.ResponseWriter
	status int
	value  any
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	s.caches.Stop()
	err := s.Server.Shutdown(ctx)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stats reports request counters for the shutdown log.
func (s *Server) Stats() (requests, suspicious, rateLimited int64) {
	return s.tracer.TotalRequests(), s.detector.SuspiciousRequests(), s.limiter.Hits()
}
