// Package http exposes the distribution engine over a JSON API.
package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tippool/internal/cache"
	"tippool/internal/log"
	"tippool/internal/metrics"
	"tippool/internal/middleware/ratelimit"
	"tippool/internal/middleware/security"
	"tippool/internal/middleware/trace"
	"tippool/internal/profiles"
	"tippool/internal/services"
	"tippool/internal/storage"
)

// JobQueue publishes extraction job IDs for the worker to pick up. A nil
// queue is allowed; the worker's poll loop will find pending jobs anyway.
type JobQueue interface {
	PublishExtractionJob(ctx context.Context, id uuid.UUID) error
}

// Config carries the server knobs that come from the environment.
type Config struct {
	Addr               string
	RateLimitPerMinute int
	CacheTTL           time.Duration
	CacheMaxEntries    int
	MaxUploadBytes     int64
}

type Server struct {
	http.Server

	logger        *log.Logger
	distributions *services.DistributionService
	extractions   *services.ExtractionService
	store         storage.Store
	registry      *profiles.Registry
	queue         JobQueue
	metrics       *metrics.Metrics
	gatherer      prometheus.Gatherer

	maxUploadBytes int64

	distCache    *cache.LRUCache[*storage.Distribution]
	cacheManager *cache.Manager
	rateLimiter  *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
// The registry passed as reg must be the same one metrics were registered
// with; it backs the /metrics endpoint.
func NewServer(
	cfg Config,
	logger *log.Logger,
	distributions *services.DistributionService,
	extractions *services.ExtractionService,
	store storage.Store,
	registry *profiles.Registry,
	queue JobQueue,
	m *metrics.Metrics,
	reg *prometheus.Registry,
) *Server {
	s := &Server{
		logger:         logger.WithComponent(log.ComponentHTTP),
		distributions:  distributions,
		extractions:    extractions,
		store:          store,
		registry:       registry,
		queue:          queue,
		metrics:        m,
		gatherer:       reg,
		maxUploadBytes: cfg.MaxUploadBytes,
		distCache:      cache.NewLRUCache[*storage.Distribution](cfg.CacheMaxEntries, cfg.CacheTTL),
		cacheManager:   cache.NewManager(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMinute,
			CleanupInterval:   5 * time.Minute,
		}),
	}

	s.cacheManager.Register(s.distCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(trace.NewMiddleware(trace.ExtractClientIP).Middleware)
	r.Use(log.Middleware(s.logger))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.rateLimiter.Middleware(trace.ExtractClientIP, func(w http.ResponseWriter, req *http.Request) {
		s.metrics.RateLimitedTotal.Inc()
	}))
	r.Use(s.instrument)

	r.Route("/api", func(r chi.Router) {
		r.Post("/distributions", s.handleCreateDistribution)
		r.Post("/distributions/preview", s.handlePreviewDistribution)
		r.Get("/distributions", s.handleListDistributions)
		r.Get("/distributions/{id}", s.handleGetDistribution)
		r.Get("/distributions/{id}/summary", s.handleDistributionSummary)

		r.Post("/extractions", s.handleCreateExtraction)
		r.Get("/extractions/{id}", s.handleGetExtraction)

		r.Get("/profiles", s.handleListProfiles)
	})

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	return r
}

// instrument records request counts and latency per chi route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(ww.status)).Inc()
		s.metrics.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadyz reports readiness only when the storage backend answers.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, "not_ready", "storage unavailable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Shutdown stops the HTTP listener and the background cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
