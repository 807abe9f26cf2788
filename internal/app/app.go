package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spindlehq/spindle/internal/api"
	"github.com/spindlehq/spindle/internal/config"
	"github.com/spindlehq/spindle/internal/lexicon"
	"github.com/spindlehq/spindle/internal/metrics"
	"github.com/spindlehq/spindle/internal/ratelimit"
	"github.com/spindlehq/spindle/internal/strategy"
	"github.com/spindlehq/spindle/internal/variant"
)

// App is the main application
type App struct {
	config        *config.Config
	logger        *slog.Logger
	store         *lexicon.Store
	pipeline      *strategy.Pipeline
	remote        *strategy.RemoteClient
	generator     *variant.Generator
	rateLimiter   *ratelimit.Limiter
	collector     *metrics.Collector
	apiServer     *api.Server
	metricsServer *metrics.Server
}

// lexiconStatsAdapter feeds lexicon sizes to the metrics collector.
type lexiconStatsAdapter struct {
	store *lexicon.Store
}

func (a lexiconStatsAdapter) LexiconStats(context.Context) (*metrics.LexiconStats, error) {
	stats, err := a.store.Stats()
	if err != nil {
		return nil, err
	}
	return &metrics.LexiconStats{
		SynonymWords:  int64(stats.SynonymWords),
		TrendingTerms: int64(stats.TrendingTerms),
	}, nil
}

// New creates a new application
func New(cfg *config.Config) (*App, error) {
	// Setup logger
	logger := setupLogger(cfg.Logging)

	// Open lexicon storage (also backs quota counters and metrics snapshots)
	store, err := lexicon.Open(cfg.Lexicon.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open lexicon: %w", err)
	}

	// Import an optional word list on top of the built-in seed
	if cfg.Lexicon.SeedFile != "" {
		stats, err := store.ImportFile(cfg.Lexicon.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to import lexicon seed file: %w", err)
		}
		logger.Info("lexicon seed file imported",
			"path", cfg.Lexicon.SeedFile,
			"synonym_words", stats.SynonymWords,
			"trending_terms", stats.TrendingTerms,
		)
	}

	// Create metrics registry and collector if enabled
	var (
		m         *metrics.Metrics
		collector *metrics.Collector
	)
	if cfg.Metrics.Enabled {
		m = metrics.New()
		metrics.SetGlobal(m)

		collector, err = metrics.NewCollector(
			store.DB(),
			m,
			lexiconStatsAdapter{store: store},
			cfg.Lexicon.Path,
			cfg.Metrics.FlushInterval,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics collector: %w", err)
		}
		logger.Info("metrics enabled", "addr", cfg.Metrics.ListenAddr, "path", cfg.Metrics.Path)
	}

	// Create the strategy pipeline over the lexicon
	pipeline := strategy.NewPipeline(store, strategyConfig(cfg.Strategies), logger.With("component", "strategies"))
	if collector != nil {
		pipeline.OnApply(collector.TrackStrategyApplied)
		pipeline.OnError(collector.TrackStrategyFailure)
	}

	// Create remote enhancement client if enabled
	var remote *strategy.RemoteClient
	if cfg.Strategies.Remote.Enabled {
		remote = strategy.NewRemoteClient(strategy.RemoteConfig{
			URL:         cfg.Strategies.Remote.URL,
			APIKey:      cfg.Strategies.Remote.APIKey,
			Timeout:     cfg.Strategies.Remote.Timeout,
			Concurrency: cfg.Strategies.Remote.Concurrency,
		}, logger.With("component", "remote_strategy"))
		if collector != nil {
			remote.OnFallback(collector.TrackRemoteFallback)
		}
		logger.Info("remote enhancement enabled", "url", cfg.Strategies.Remote.URL)
	}

	// The remote service replaces the local pipeline for generation; the
	// pipeline stays wired into the API so /strategies/apply keeps working.
	var genPipeline variant.Pipeline
	if remote == nil {
		genPipeline = pipeline
	}
	generator := variant.NewGenerator(cfg.Generator.AttemptMultiplier, genPipeline)

	// Create rate limiter if enabled
	var rateLimiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		rlConfig := &ratelimit.Config{}
		if cfg.RateLimit.Global != nil {
			rlConfig.Global = &ratelimit.LimitConfig{
				VariantsPerHour: cfg.RateLimit.Global.VariantsPerHour,
				VariantsPerDay:  cfg.RateLimit.Global.VariantsPerDay,
			}
		}
		if cfg.RateLimit.DefaultAPIKey != nil {
			rlConfig.DefaultAPIKey = &ratelimit.LimitConfig{
				VariantsPerHour: cfg.RateLimit.DefaultAPIKey.VariantsPerHour,
				VariantsPerDay:  cfg.RateLimit.DefaultAPIKey.VariantsPerDay,
			}
		}
		if len(cfg.RateLimit.APIKeys) > 0 {
			rlConfig.APIKeys = make(map[string]*ratelimit.LimitConfig, len(cfg.RateLimit.APIKeys))
			for key, limits := range cfg.RateLimit.APIKeys {
				rlConfig.APIKeys[key] = &ratelimit.LimitConfig{
					VariantsPerHour: limits.VariantsPerHour,
					VariantsPerDay:  limits.VariantsPerDay,
				}
			}
		}

		rateLimiter, err = ratelimit.NewLimiter(store.DB(), rlConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
		logger.Info("rate limiting enabled")
	}

	// Create API server
	apiServer := api.NewServer(api.Deps{
		Generator: generator,
		Pipeline:  pipeline,
		Remote:    remote,
		Lexicon:   store,
		Limiter:   rateLimiter,
		Collector: collector,
	}, cfg, logger.With("component", "api"))

	// Create metrics server if enabled
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServerWithAllowedIPs(
			m,
			cfg.Metrics.ListenAddr,
			cfg.Metrics.Path,
			cfg.Metrics.AllowedIPs,
			logger.With("component", "metrics"),
		)
	}

	return &App{
		config:        cfg,
		logger:        logger,
		store:         store,
		pipeline:      pipeline,
		remote:        remote,
		generator:     generator,
		rateLimiter:   rateLimiter,
		collector:     collector,
		apiServer:     apiServer,
		metricsServer: metricsServer,
	}, nil
}

// Run starts all components and waits for shutdown
func (a *App) Run(ctx context.Context) error {
	logAttrs := []any{
		"api_addr", a.config.API.ListenAddr,
		"lexicon_path", a.config.Lexicon.Path,
	}
	if a.metricsServer != nil {
		logAttrs = append(logAttrs, "metrics_addr", a.config.Metrics.ListenAddr)
	}
	a.logger.Info("starting spindle", logAttrs...)

	// Create context that listens for signals
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Start metrics collector background loops
	if a.collector != nil {
		a.collector.Start(ctx)
	}

	// Channel to collect errors
	errCh := make(chan error, 2)

	// Start API server
	go func() {
		if err := a.apiServer.ListenAndServe(); err != nil {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()

	// Start metrics server if enabled
	if a.metricsServer != nil {
		go func() {
			if err := a.metricsServer.ListenAndServe(); err != nil {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.logger.Error("server error", "error", err)
		cancel()
	}

	// Graceful shutdown
	return a.Shutdown(context.Background())
}

// Shutdown gracefully shuts down all components
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down")

	// Create timeout context
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Shutdown servers
	if err := a.apiServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("api server shutdown error", "error", err)
	}

	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("metrics server shutdown error", "error", err)
		}
	}

	// Stop collector (persists counter snapshots)
	if a.collector != nil {
		if err := a.collector.Stop(); err != nil {
			a.logger.Error("metrics collector stop error", "error", err)
		}
	}

	// Stop rate limiter (persists counters)
	if a.rateLimiter != nil {
		if err := a.rateLimiter.Stop(); err != nil {
			a.logger.Error("rate limiter stop error", "error", err)
		}
	}

	// Close lexicon storage
	if err := a.store.Close(); err != nil {
		a.logger.Error("lexicon close error", "error", err)
	}

	a.logger.Info("shutdown complete")
	return nil
}

// strategyConfig maps configuration onto strategy tuning values.
func strategyConfig(cfg config.StrategiesConfig) strategy.Config {
	return strategy.Config{
		Synonym: strategy.SynonymConfig{
			Probability: cfg.Synonym.Probability,
		},
		Trending: strategy.TrendingConfig{
			Format: cfg.Trending.Format,
		},
		Garbage: strategy.GarbageConfig{
			Format: cfg.Garbage.Format,
			MinLen: cfg.Garbage.MinLen,
			MaxLen: cfg.Garbage.MaxLen,
		},
	}
}

// setupLogger creates a logger based on configuration
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
