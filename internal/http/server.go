// Package http serves the portfolio JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"rentroll/internal/cache"
	"rentroll/internal/log"
	"rentroll/internal/middleware/ratelimit"
	"rentroll/internal/middleware/security"
	"rentroll/internal/projection"
	"rentroll/internal/services"
)

const (
	projectionCacheSize = 100
	cacheCleanupEvery   = 10 * time.Minute
	maxProjectionMonths = 120
	defaultLeaseWindow  = 3
)

// Config wires a Server. Zero values get defaults.
type Config struct {
	Addr               string
	Service            *services.PortfolioService
	Logger             *log.Logger
	CORSOrigins        []string
	RateLimitPerMinute int
	CacheTTL           time.Duration
	ProjectionMonths   int
	// Ready reports store readiness for /readyz.
	Ready func(ctx context.Context) error
	// Now replaces time.Now as the default as-of instant.
	Now func() time.Time
}

type Server struct {
	http.Server
	router        chi.Router
	svc           *services.PortfolioService
	logger        *log.Logger
	projections   *cache.LRUCache[projection.Result]
	cacheManager  *cache.Manager
	limiter       *ratelimit.Limiter
	ready         func(ctx context.Context) error
	now           func() time.Time
	defaultMonths int

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.New(log.DefaultConfig())
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.ProjectionMonths <= 0 {
		cfg.ProjectionMonths = 12
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &Server{
		svc:           cfg.Service,
		logger:        cfg.Logger.WithComponent(log.ComponentHTTP),
		projections:   cache.NewLRUCache[projection.Result](projectionCacheSize, cfg.CacheTTL),
		cacheManager:  cache.NewManager(),
		limiter:       ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		ready:         cfg.Ready,
		now:           cfg.Now,
		defaultMonths: cfg.ProjectionMonths,
	}
	s.cacheManager.Register(s.projections)
	s.cacheManager.StartCleanup(cacheCleanupEvery)

	s.router = s.routes(cfg.CORSOrigins)
	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(origins []string) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(log.Middleware(s.logger))
	r.Use(log.RequestIDMiddleware(func(r *http.Request) string {
		return middleware.GetReqID(r.Context())
	}))
	r.Use(log.AccessLog(log.NewStructuredLogger(s.logger), extractClientIP))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	limited := s.limiter.Middleware(extractClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, extractClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/projection", s.handleProjection)
		r.Get("/alerts", s.handleAlerts)
		r.Get("/leases", s.handleLeaseSchedule)

		r.Route("/settings/alerts", func(r chi.Router) {
			r.Get("/", s.handleGetAlertSettings)
			r.With(limited).Put("/", s.handlePutAlertSettings)
		})

		r.Route("/tenants", func(r chi.Router) {
			r.Get("/", s.handleListTenants)
			r.Get("/balances", s.handleBalances)
			r.Get("/mix", s.handleTenantMix)
			r.With(limited).Post("/", s.handleSaveTenant)
			r.With(limited).Delete("/{id}", s.handleDeleteTenant)
		})

		r.Route("/units", func(r chi.Router) {
			r.Get("/", s.handleListUnits)
			r.With(limited).Post("/", s.handleSaveUnit)
		})

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", s.handleListDocuments)
			r.With(limited).Post("/", s.handleSaveDocument)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/", s.handleListPayments)
			r.With(limited).Post("/", s.handleSavePayment)
		})
	})

	return r
}

// InvalidateProjections drops every cached projection. Writes call it; so
// does the seed watcher after a reload.
func (s *Server) InvalidateProjections() {
	s.projections.Purge()
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err.Error())
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
