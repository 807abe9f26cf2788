package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	globalMetrics *Metrics
	globalMu      sync.RWMutex
)

// Metrics holds all Prometheus metrics for Spindle
type Metrics struct {
	// Generation counters
	VariantsGeneratedTotal *prometheus.CounterVec
	VariantDuplicatesTotal prometheus.Counter
	BudgetExhaustedTotal   prometheus.Counter
	ExpansionAttemptsTotal prometheus.Counter

	// Validation counters
	ValidationFailuresTotal *prometheus.CounterVec

	// Strategy counters
	StrategyAppliedTotal  *prometheus.CounterVec
	StrategyFailuresTotal *prometheus.CounterVec
	RemoteFallbacksTotal  prometheus.Counter

	// Generation timing
	GenerationDurationSeconds prometheus.Histogram

	// Lexicon gauges
	LexiconSynonymWords  prometheus.Gauge
	LexiconTrendingTerms prometheus.Gauge

	// API metrics
	APIRequestsTotal          *prometheus.CounterVec
	APIRequestDurationSeconds *prometheus.HistogramVec
	APIErrorsTotal            *prometheus.CounterVec

	// Rate limiting
	RateLimitExceededTotal *prometheus.CounterVec

	// System metrics
	UptimeSeconds    prometheus.Gauge
	Goroutines       prometheus.Gauge
	StorageUsedBytes prometheus.Gauge

	registry *prometheus.Registry
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		// Generation counters
		VariantsGeneratedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spindle_variants_generated_total",
				Help: "Total number of variants produced",
			},
			[]string{"mode"},
		),
		VariantDuplicatesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "spindle_variant_duplicates_total",
				Help: "Total number of duplicate variants accepted after the attempt budget ran out",
			},
		),
		BudgetExhaustedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "spindle_budget_exhausted_total",
				Help: "Total number of batches that exhausted their attempt budget",
			},
		),
		ExpansionAttemptsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "spindle_expansion_attempts_total",
				Help: "Total number of template expansion attempts",
			},
		),

		// Validation counters
		ValidationFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spindle_validation_failures_total",
				Help: "Total number of template validation failures",
			},
			[]string{"kind"},
		),

		// Strategy counters
		StrategyAppliedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spindle_strategy_applied_total",
				Help: "Total number of strategy applications",
			},
			[]string{"strategy"},
		),
		StrategyFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spindle_strategy_failures_total",
				Help: "Total number of strategy failures that kept the prior text",
			},
			[]string{"strategy"},
		),
		RemoteFallbacksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "spindle_remote_fallbacks_total",
				Help: "Total number of texts that kept their local version after a failed remote call",
			},
		),

		// Generation timing
		GenerationDurationSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "spindle_generation_duration_seconds",
				Help:    "Batch generation duration in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
		),

		// Lexicon gauges
		LexiconSynonymWords: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "spindle_lexicon_synonym_words",
				Help: "Number of words with synonym entries in the lexicon",
			},
		),
		LexiconTrendingTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "spindle_lexicon_trending_terms",
				Help: "Number of trending terms in the lexicon",
			},
		),

		// API metrics
		APIRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spindle_api_requests_total",
				Help: "Total number of API requests",
			},
			[]string{"method", "path", "status"},
		),
		APIRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spindle_api_request_duration_seconds",
				Help:    "API request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		APIErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spindle_api_errors_total",
				Help: "Total number of API errors",
			},
			[]string{"error_type"},
		),

		// Rate limiting
		RateLimitExceededTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spindle_ratelimit_exceeded_total",
				Help: "Total number of rate limit exceeded events",
			},
			[]string{"level"},
		),

		// System metrics
		UptimeSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "spindle_uptime_seconds",
				Help: "Server uptime in seconds",
			},
		),
		Goroutines: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "spindle_goroutines",
				Help: "Number of active goroutines",
			},
		),
		StorageUsedBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "spindle_storage_used_bytes",
				Help: "BoltDB file size in bytes",
			},
		),

		registry: reg,
	}

	// Register all metrics
	reg.MustRegister(
		m.VariantsGeneratedTotal,
		m.VariantDuplicatesTotal,
		m.BudgetExhaustedTotal,
		m.ExpansionAttemptsTotal,
		m.ValidationFailuresTotal,
		m.StrategyAppliedTotal,
		m.StrategyFailuresTotal,
		m.RemoteFallbacksTotal,
		m.GenerationDurationSeconds,
		m.LexiconSynonymWords,
		m.LexiconTrendingTerms,
		m.APIRequestsTotal,
		m.APIRequestDurationSeconds,
		m.APIErrorsTotal,
		m.RateLimitExceededTotal,
		m.UptimeSeconds,
		m.Goroutines,
		m.StorageUsedBytes,
	)

	return m
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// SetGlobal sets the global metrics instance
func SetGlobal(m *Metrics) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalMetrics = m
}

// Global returns the global metrics instance
func Global() *Metrics {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalMetrics
}

// IncValidationFailure increments the validation failure counter
func IncValidationFailure(kind string) {
	m := Global()
	if m != nil {
		m.ValidationFailuresTotal.WithLabelValues(kind).Inc()
	}
}

// IncStrategyFailure increments the strategy failure counter
func IncStrategyFailure(strategy string) {
	m := Global()
	if m != nil {
		m.StrategyFailuresTotal.WithLabelValues(strategy).Inc()
	}
}

// IncRemoteFallback increments the remote fallback counter
func IncRemoteFallback() {
	m := Global()
	if m != nil {
		m.RemoteFallbacksTotal.Inc()
	}
}

// IncRateLimitExceeded increments rate limit exceeded counter
func IncRateLimitExceeded(level string) {
	m := Global()
	if m != nil {
		m.RateLimitExceededTotal.WithLabelValues(level).Inc()
	}
}

// IncAPIErrors increments API error counter
func IncAPIErrors(errorType string) {
	m := Global()
	if m != nil {
		m.APIErrorsTotal.WithLabelValues(errorType).Inc()
	}
}
