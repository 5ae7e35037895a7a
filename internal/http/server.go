package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// Options carries the server's collaborators. Summaries and Ledger are required.
type Options struct {
	Summaries *services.SummaryService
	Ledger    *services.LedgerService

	// Ready reports backend readiness for /readyz; nil means always ready.
	Ready func(ctx context.Context) error

	Logger *log.Logger

	// Registry backs /metrics. A fresh registry is created when nil.
	Registry *prometheus.Registry

	DisplayLocale      string
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	summaries *services.SummaryService
	ledger    *services.LedgerService
	ready     func(ctx context.Context) error
	logger    *log.Logger
	locale    string

	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.FromDefault(log.ComponentHTTP)
	}
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	locale := opts.DisplayLocale
	if locale == "" {
		locale = "en-US"
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		summaries: opts.Summaries,
		ledger:    opts.Ledger,
		ready:     opts.Ready,
		logger:    logger.WithComponent(log.ComponentHTTP),
		locale:    locale,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
			Methods:           []string{http.MethodPost, http.MethodPut, http.MethodDelete},
			Registerer:        registry,
		}),
	}
	s.limiter.Start()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/breakdown", s.handleBreakdown)
	mux.HandleFunc("GET /api/weekly", s.handleWeekly)
	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handlePutSettings)

	s.categories().mount(mux, "/api/categories")
	s.income().mount(mux, "/api/income")
	s.expenses().mount(mux, "/api/expenses")

	detector := security.NewDetector()
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(logger, detector.ExtractClientIP, trace.NewMetrics(registry))
	limit := s.limiter.Middleware(rateLimitKey(detector), s.onRateLimit)

	// trace -> security headers -> scanner filter -> rate limit -> routes
	s.Handler = tracer.Middleware(headers.Middleware(detector.Middleware(limit(mux))))
	return s
}

// rateLimitKey limits per owner when the header is present, per client IP otherwise.
func rateLimitKey(d *security.Detector) func(*http.Request) string {
	return func(r *http.Request) string {
		if owner, err := ownerFromRequest(r); err == nil {
			return "owner:" + owner
		}
		return "ip:" + d.ExtractClientIP(r)
	}
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
	TooManyRequestsError("rate limit exceeded, please try again later").Write(w)
}

// Shutdown gracefully shuts down the server and the limiter cleanup loop.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
