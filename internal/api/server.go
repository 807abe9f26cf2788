package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/spindlehq/spindle/internal/config"
	"github.com/spindlehq/spindle/internal/ipfilter"
	"github.com/spindlehq/spindle/internal/lexicon"
	"github.com/spindlehq/spindle/internal/metrics"
	"github.com/spindlehq/spindle/internal/ratelimit"
	"github.com/spindlehq/spindle/internal/strategy"
	"github.com/spindlehq/spindle/internal/variant"
)

// Deps are the collaborators the API server drives. Remote, Limiter and
// Collector are optional; the corresponding features are skipped when nil.
type Deps struct {
	Generator *variant.Generator
	Pipeline  *strategy.Pipeline
	Remote    *strategy.RemoteClient
	Lexicon   *lexicon.Store
	Limiter   *ratelimit.Limiter
	Collector *metrics.Collector
}

// Server is the HTTP API server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	deps       Deps
	config     *config.Config
	logger     *slog.Logger
	startTime  time.Time

	// validKeys are the accepted API keys: the master key plus every key
	// with a quota entry. Empty when auth is disabled.
	validKeys map[string]struct{}
}

// NewServer creates a new API server
func NewServer(deps Deps, cfg *config.Config, logger *slog.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		deps:      deps,
		config:    cfg,
		logger:    logger,
		startTime: time.Now(),
		validKeys: make(map[string]struct{}),
	}

	if cfg.API.APIKey != "" {
		s.validKeys[cfg.API.APIKey] = struct{}{}
		for key := range cfg.RateLimit.APIKeys {
			s.validKeys[key] = struct{}{}
		}
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	// Middleware
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)

	if len(s.config.API.AllowedIPs) > 0 {
		filter := ipfilter.New(s.config.API.AllowedIPs, s.logger)
		s.router.Use(filter.HTTPMiddleware)
	}

	if s.deps.Collector != nil {
		s.router.Use(metrics.HTTPMiddlewareWithCollector(s.deps.Collector))
	} else {
		s.router.Use(metrics.HTTPMiddleware)
	}

	// Health check (no auth required)
	s.router.Get("/health", s.handleHealth)

	// API v1 routes (auth required)
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Post("/validate", s.handleValidate)
		r.Post("/variants", s.handleVariants)
		r.Post("/strategies/apply", s.handleApplyStrategies)

		r.Route("/lexicon", func(r chi.Router) {
			r.Get("/synonyms", s.handleListSynonyms)
			r.Get("/synonyms/{word}", s.handleGetSynonyms)
			r.Put("/synonyms/{word}", s.handlePutSynonyms)
			r.Delete("/synonyms/{word}", s.handleDeleteSynonyms)
			r.Get("/trending", s.handleListTrending)
			r.Post("/trending", s.handleAddTrending)
			r.Delete("/trending/{term}", s.handleRemoveTrending)
			r.Get("/stats", s.handleLexiconStats)
		})
	})
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:           s.config.API.ListenAddr,
		Handler:        s.router,
		ReadTimeout:    s.config.API.ReadTimeout,
		WriteTimeout:   s.config.API.WriteTimeout,
		IdleTimeout:    s.config.API.IdleTimeout,
		MaxHeaderBytes: s.config.API.MaxHeaderBytes,
	}

	s.logger.Info("starting HTTP API server", "addr", s.config.API.ListenAddr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP API server")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
