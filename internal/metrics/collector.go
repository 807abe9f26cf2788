package metrics

import (
	"context"
	"encoding/json"
	"os"
	"runtime"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// LexiconStats contains lexicon sizes for the gauges
type LexiconStats struct {
	SynonymWords  int64
	TrendingTerms int64
}

// LexiconStatsProvider provides lexicon statistics for metrics
type LexiconStatsProvider interface {
	LexiconStats(ctx context.Context) (*LexiconStats, error)
}

var bucketMetrics = []byte("metrics")

// ShadowCounters stores counter values for persistence
type ShadowCounters struct {
	VariantsGenerated  map[string]float64 `json:"variants_generated"`
	VariantDuplicates  float64            `json:"variant_duplicates"`
	BudgetExhausted    float64            `json:"budget_exhausted"`
	ExpansionAttempts  float64            `json:"expansion_attempts"`
	ValidationFailures map[string]float64 `json:"validation_failures"`
	StrategyApplied    map[string]float64 `json:"strategy_applied"`
	StrategyFailures   map[string]float64 `json:"strategy_failures"`
	RemoteFallbacks    float64            `json:"remote_fallbacks"`
	APIRequests        map[string]float64 `json:"api_requests"`
	APIErrors          map[string]float64 `json:"api_errors"`
	RateLimitExceeded  map[string]float64 `json:"ratelimit_exceeded"`
}

// Collector handles metrics persistence and system gauge updates
type Collector struct {
	db            *bolt.DB
	metrics       *Metrics
	lexiconStats  LexiconStatsProvider
	storagePath   string
	flushInterval time.Duration
	startTime     time.Time

	shadow ShadowCounters
	mu     sync.Mutex
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewCollector creates a new metrics collector
func NewCollector(db *bolt.DB, m *Metrics, lexiconStats LexiconStatsProvider, storagePath string, flushInterval time.Duration) (*Collector, error) {
	if flushInterval == 0 {
		flushInterval = 10 * time.Second
	}

	// Create bucket if not exists
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketMetrics)
		return err
	})
	if err != nil {
		return nil, err
	}

	c := &Collector{
		db:            db,
		metrics:       m,
		lexiconStats:  lexiconStats,
		storagePath:   storagePath,
		flushInterval: flushInterval,
		startTime:     time.Now(),
		shadow: ShadowCounters{
			VariantsGenerated:  make(map[string]float64),
			ValidationFailures: make(map[string]float64),
			StrategyApplied:    make(map[string]float64),
			StrategyFailures:   make(map[string]float64),
			APIRequests:        make(map[string]float64),
			APIErrors:          make(map[string]float64),
			RateLimitExceeded:  make(map[string]float64),
		},
		stopCh: make(chan struct{}),
	}

	// Load persisted counters
	if err := c.loadCounters(); err != nil {
		return nil, err
	}

	return c, nil
}

// Start begins the collector background tasks
func (c *Collector) Start(ctx context.Context) {
	c.wg.Add(2)
	go c.persistLoop(ctx)
	go c.updateSystemMetrics(ctx)
}

// Stop stops the collector and persists final values
func (c *Collector) Stop() error {
	close(c.stopCh)
	c.wg.Wait()
	return c.persistCounters()
}

// loadCounters loads persisted counter values from BoltDB
func (c *Collector) loadCounters() error {
	return c.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketMetrics)
		if bucket == nil {
			return nil
		}

		data := bucket.Get([]byte("counters"))
		if data == nil {
			return nil
		}

		var shadow ShadowCounters
		if err := json.Unmarshal(data, &shadow); err != nil {
			return nil // Skip invalid data
		}

		c.mu.Lock()
		defer c.mu.Unlock()

		// Restore generation counters
		for k, v := range shadow.VariantsGenerated {
			c.shadow.VariantsGenerated[k] = v
			c.metrics.VariantsGeneratedTotal.WithLabelValues(k).Add(v)
		}
		c.shadow.VariantDuplicates = shadow.VariantDuplicates
		c.shadow.BudgetExhausted = shadow.BudgetExhausted
		c.shadow.ExpansionAttempts = shadow.ExpansionAttempts
		c.metrics.VariantDuplicatesTotal.Add(shadow.VariantDuplicates)
		c.metrics.BudgetExhaustedTotal.Add(shadow.BudgetExhausted)
		c.metrics.ExpansionAttemptsTotal.Add(shadow.ExpansionAttempts)

		// Restore validation counters
		for k, v := range shadow.ValidationFailures {
			c.shadow.ValidationFailures[k] = v
			c.metrics.ValidationFailuresTotal.WithLabelValues(k).Add(v)
		}

		// Restore strategy counters
		for k, v := range shadow.StrategyApplied {
			c.shadow.StrategyApplied[k] = v
			c.metrics.StrategyAppliedTotal.WithLabelValues(k).Add(v)
		}
		for k, v := range shadow.StrategyFailures {
			c.shadow.StrategyFailures[k] = v
			c.metrics.StrategyFailuresTotal.WithLabelValues(k).Add(v)
		}
		c.shadow.RemoteFallbacks = shadow.RemoteFallbacks
		c.metrics.RemoteFallbacksTotal.Add(shadow.RemoteFallbacks)

		// Restore API counters
		for k, v := range shadow.APIRequests {
			method, path, status := splitTripleLabelKey(k)
			c.shadow.APIRequests[k] = v
			c.metrics.APIRequestsTotal.WithLabelValues(method, path, status).Add(v)
		}
		for k, v := range shadow.APIErrors {
			c.shadow.APIErrors[k] = v
			c.metrics.APIErrorsTotal.WithLabelValues(k).Add(v)
		}

		// Restore rate limit counters
		for k, v := range shadow.RateLimitExceeded {
			c.shadow.RateLimitExceeded[k] = v
			c.metrics.RateLimitExceededTotal.WithLabelValues(k).Add(v)
		}

		return nil
	})
}

// persistCounters saves counter values to BoltDB
func (c *Collector) persistCounters() error {
	c.mu.Lock()
	shadow := c.shadow
	c.mu.Unlock()

	return c.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketMetrics)
		if bucket == nil {
			return nil
		}

		data, err := json.Marshal(shadow)
		if err != nil {
			return err
		}

		return bucket.Put([]byte("counters"), data)
	})
}

// persistLoop periodically persists counter values
func (c *Collector) persistLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.persistCounters()
		}
	}
}

// updateSystemMetrics periodically updates system gauges
func (c *Collector) updateSystemMetrics(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.collectSystemMetrics(ctx)
		}
	}
}

// collectSystemMetrics collects current system state
func (c *Collector) collectSystemMetrics(ctx context.Context) {
	// Update uptime
	c.metrics.UptimeSeconds.Set(time.Since(c.startTime).Seconds())

	// Update goroutines
	c.metrics.Goroutines.Set(float64(runtime.NumGoroutine()))

	// Update storage size
	if c.storagePath != "" {
		if info, err := os.Stat(c.storagePath); err == nil {
			c.metrics.StorageUsedBytes.Set(float64(info.Size()))
		}
	}

	// Update lexicon gauges
	if c.lexiconStats != nil {
		stats, err := c.lexiconStats.LexiconStats(ctx)
		if err == nil {
			c.metrics.LexiconSynonymWords.Set(float64(stats.SynonymWords))
			c.metrics.LexiconTrendingTerms.Set(float64(stats.TrendingTerms))
		}
	}
}

// TrackVariantsGenerated tracks produced variants and updates shadow counters
func (c *Collector) TrackVariantsGenerated(mode string, count int) {
	c.mu.Lock()
	c.shadow.VariantsGenerated[mode] += float64(count)
	c.mu.Unlock()
	c.metrics.VariantsGeneratedTotal.WithLabelValues(mode).Add(float64(count))
}

// TrackVariantDuplicates tracks accepted duplicates and updates shadow counter
func (c *Collector) TrackVariantDuplicates(count int) {
	c.mu.Lock()
	c.shadow.VariantDuplicates += float64(count)
	c.mu.Unlock()
	c.metrics.VariantDuplicatesTotal.Add(float64(count))
}

// TrackBudgetExhausted tracks a batch that ran out of attempts
func (c *Collector) TrackBudgetExhausted() {
	c.mu.Lock()
	c.shadow.BudgetExhausted++
	c.mu.Unlock()
	c.metrics.BudgetExhaustedTotal.Inc()
}

// TrackExpansionAttempts tracks expansion attempts and updates shadow counter
func (c *Collector) TrackExpansionAttempts(count int) {
	c.mu.Lock()
	c.shadow.ExpansionAttempts += float64(count)
	c.mu.Unlock()
	c.metrics.ExpansionAttemptsTotal.Add(float64(count))
}

// TrackValidationFailure tracks a validation failure and updates shadow counter
func (c *Collector) TrackValidationFailure(kind string) {
	c.mu.Lock()
	c.shadow.ValidationFailures[kind]++
	c.mu.Unlock()
	c.metrics.ValidationFailuresTotal.WithLabelValues(kind).Inc()
}

// TrackStrategyApplied tracks a strategy application and updates shadow counter
func (c *Collector) TrackStrategyApplied(strategy string) {
	c.mu.Lock()
	c.shadow.StrategyApplied[strategy]++
	c.mu.Unlock()
	c.metrics.StrategyAppliedTotal.WithLabelValues(strategy).Inc()
}

// TrackStrategyFailure tracks a strategy failure and updates shadow counter
func (c *Collector) TrackStrategyFailure(strategy string) {
	c.mu.Lock()
	c.shadow.StrategyFailures[strategy]++
	c.mu.Unlock()
	c.metrics.StrategyFailuresTotal.WithLabelValues(strategy).Inc()
}

// TrackRemoteFallback tracks a failed remote call and updates shadow counter
func (c *Collector) TrackRemoteFallback() {
	c.mu.Lock()
	c.shadow.RemoteFallbacks++
	c.mu.Unlock()
	c.metrics.RemoteFallbacksTotal.Inc()
}

// TrackAPIRequest tracks an API request and updates shadow counter
func (c *Collector) TrackAPIRequest(method, path, status string) {
	key := makeTripleLabelKey(method, path, status)
	c.mu.Lock()
	c.shadow.APIRequests[key]++
	c.mu.Unlock()
	c.metrics.APIRequestsTotal.WithLabelValues(method, path, status).Inc()
}

// TrackAPIError tracks an API error and updates shadow counter
func (c *Collector) TrackAPIError(errorType string) {
	c.mu.Lock()
	c.shadow.APIErrors[errorType]++
	c.mu.Unlock()
	c.metrics.APIErrorsTotal.WithLabelValues(errorType).Inc()
}

// TrackRateLimitExceeded tracks rate limit exceeded and updates shadow counter
func (c *Collector) TrackRateLimitExceeded(level string) {
	c.mu.Lock()
	c.shadow.RateLimitExceeded[level]++
	c.mu.Unlock()
	c.metrics.RateLimitExceededTotal.WithLabelValues(level).Inc()
}

// ObserveGenerationDuration records how long a batch took
func (c *Collector) ObserveGenerationDuration(seconds float64) {
	c.metrics.GenerationDurationSeconds.Observe(seconds)
}

// Helper functions for label key serialization
func makeTripleLabelKey(a, b, c string) string {
	return a + "|" + b + "|" + c
}

func splitTripleLabelKey(key string) (string, string, string) {
	parts := make([]string, 0, 3)
	start := 0
	for i := 0; i < len(key); i++ {
		if key[i] == '|' {
			parts = append(parts, key[start:i])
			start = i + 1
		}
	}
	parts = append(parts, key[start:])

	if len(parts) >= 3 {
		return parts[0], parts[1], parts[2]
	}
	if len(parts) == 2 {
		return parts[0], parts[1], ""
	}
	if len(parts) == 1 {
		return parts[0], "", ""
	}
	return "", "", ""
}
