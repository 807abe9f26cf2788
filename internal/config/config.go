package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration structure
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	API        APIConfig        `yaml:"api"`
	Generator  GeneratorConfig  `yaml:"generator"`
	Strategies StrategiesConfig `yaml:"strategies"`
	Lexicon    LexiconConfig    `yaml:"lexicon"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"` // Per-API-key generation quotas
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"` // Prometheus metrics configuration
}

// ServerConfig contains server-wide settings
type ServerConfig struct {
	Hostname string `yaml:"hostname"` // FQDN of the server
}

// APIConfig contains HTTP API settings
type APIConfig struct {
	ListenAddr     string        `yaml:"listen_addr"`
	APIKey         string        `yaml:"api_key"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"` // Max HTTP header size (default: 1MB)
	ReadTimeout    time.Duration `yaml:"read_timeout"`     // HTTP read timeout (default: 30s)
	WriteTimeout   time.Duration `yaml:"write_timeout"`    // HTTP write timeout (default: 30s)
	IdleTimeout    time.Duration `yaml:"idle_timeout"`     // HTTP idle timeout (default: 60s)
	AllowedIPs     []string      `yaml:"allowed_ips"`      // IP addresses/CIDRs allowed to access API (empty = allow all)
}

// GeneratorConfig contains variant generation limits
type GeneratorConfig struct {
	MaxCount          int `yaml:"max_count"`          // Max variants per request (default: 1000)
	AttemptMultiplier int `yaml:"attempt_multiplier"` // Attempt budget = count * multiplier (default: 10)
	MaxTemplateBytes  int `yaml:"max_template_bytes"` // Max template size accepted by the API (default: 64KB)
}

// StrategiesConfig contains tuning for the content strategies
type StrategiesConfig struct {
	Synonym  SynonymStrategyConfig  `yaml:"synonym"`
	Trending TrendingStrategyConfig `yaml:"trending"`
	Garbage  GarbageStrategyConfig  `yaml:"garbage"`
	Remote   RemoteStrategyConfig   `yaml:"remote"` // Optional external enhancement service
}

// SynonymStrategyConfig contains synonym replacement settings
type SynonymStrategyConfig struct {
	Probability float64 `yaml:"probability"` // Chance an eligible word is replaced (default: 0.5)
}

// TrendingStrategyConfig contains trending term insertion settings
type TrendingStrategyConfig struct {
	Format string `yaml:"format"` // Wraps the inserted term, must contain %s (default: " | %s")
}

// GarbageStrategyConfig contains garbage token settings
type GarbageStrategyConfig struct {
	Format string `yaml:"format"`  // Wraps the random token, must contain %s (default: " [ref:%s]")
	MinLen int    `yaml:"min_len"` // Minimum token length (default: 6)
	MaxLen int    `yaml:"max_len"` // Maximum token length (default: 10)
}

// RemoteStrategyConfig contains the remote enhancement service settings
type RemoteStrategyConfig struct {
	Enabled     bool          `yaml:"enabled"`
	URL         string        `yaml:"url"`
	APIKey      string        `yaml:"api_key"`
	Timeout     time.Duration `yaml:"timeout"`     // Per-call timeout (default: 5s)
	Concurrency int           `yaml:"concurrency"` // Max in-flight calls (default: 4)
}

// LexiconConfig contains lexicon storage settings
type LexiconConfig struct {
	Path     string `yaml:"path"`      // BoltDB file path
	SeedFile string `yaml:"seed_file"` // Optional YAML word list imported at startup
}

// RateLimitConfig contains generation quota settings
type RateLimitConfig struct {
	Enabled bool `yaml:"enabled"`

	// Server-wide limits across all API keys
	Global *LimitValues `yaml:"global,omitempty"`

	// Default limits applied to every API key
	DefaultAPIKey *LimitValues `yaml:"default_api_key,omitempty"`

	// Per-key limits (override DefaultAPIKey)
	APIKeys map[string]*LimitValues `yaml:"api_keys,omitempty"`
}

// LimitValues contains quota values
type LimitValues struct {
	VariantsPerHour int `yaml:"variants_per_hour"`
	VariantsPerDay  int `yaml:"variants_per_day"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// MetricsConfig contains Prometheus metrics settings
type MetricsConfig struct {
	Enabled       bool          `yaml:"enabled"`
	ListenAddr    string        `yaml:"listen_addr"`    // Default: :9090
	Path          string        `yaml:"path"`           // Default: /metrics
	FlushInterval time.Duration `yaml:"flush_interval"` // Default: 10s
	AllowedIPs    []string      `yaml:"allowed_ips"`    // IP addresses/CIDRs allowed to access metrics
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults sets default values for configuration
func (c *Config) setDefaults() {
	if c.Server.Hostname == "" {
		hostname, _ := os.Hostname()
		c.Server.Hostname = hostname
	}

	if c.API.ListenAddr == "" {
		c.API.ListenAddr = ":8080"
	}
	if c.API.MaxHeaderBytes == 0 {
		c.API.MaxHeaderBytes = 1 << 20 // 1 MB
	}
	if c.API.ReadTimeout == 0 {
		c.API.ReadTimeout = 30 * time.Second
	}
	if c.API.WriteTimeout == 0 {
		c.API.WriteTimeout = 30 * time.Second
	}
	if c.API.IdleTimeout == 0 {
		c.API.IdleTimeout = 60 * time.Second
	}

	if c.Generator.MaxCount == 0 {
		c.Generator.MaxCount = 1000
	}
	if c.Generator.AttemptMultiplier == 0 {
		c.Generator.AttemptMultiplier = 10
	}
	if c.Generator.MaxTemplateBytes == 0 {
		c.Generator.MaxTemplateBytes = 64 * 1024 // 64 KB
	}

	if c.Strategies.Synonym.Probability == 0 {
		c.Strategies.Synonym.Probability = 0.5
	}
	if c.Strategies.Trending.Format == "" {
		c.Strategies.Trending.Format = " | %s"
	}
	if c.Strategies.Garbage.Format == "" {
		c.Strategies.Garbage.Format = " [ref:%s]"
	}
	if c.Strategies.Garbage.MinLen == 0 {
		c.Strategies.Garbage.MinLen = 6
	}
	if c.Strategies.Garbage.MaxLen == 0 {
		c.Strategies.Garbage.MaxLen = 10
	}
	if c.Strategies.Remote.Timeout == 0 {
		c.Strategies.Remote.Timeout = 5 * time.Second
	}
	if c.Strategies.Remote.Concurrency == 0 {
		c.Strategies.Remote.Concurrency = 4
	}

	if c.Lexicon.Path == "" {
		c.Lexicon.Path = "/var/lib/spindle/lexicon.db"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	// Metrics defaults
	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = ":9090"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Metrics.FlushInterval == 0 {
		c.Metrics.FlushInterval = 10 * time.Second
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging.level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid logging.format: %s (must be json or text)", c.Logging.Format)
	}

	if c.Generator.MaxCount < 1 {
		return fmt.Errorf("generator.max_count must be positive")
	}
	if c.Generator.AttemptMultiplier < 1 {
		return fmt.Errorf("generator.attempt_multiplier must be positive")
	}
	if c.Generator.MaxTemplateBytes < 1 {
		return fmt.Errorf("generator.max_template_bytes must be positive")
	}

	if err := c.validateStrategies(); err != nil {
		return err
	}

	if err := c.validateRateLimit(); err != nil {
		return err
	}

	return nil
}

// validateStrategies validates strategy configuration
func (c *Config) validateStrategies() error {
	if p := c.Strategies.Synonym.Probability; p < 0 || p > 1 {
		return fmt.Errorf("strategies.synonym.probability must be between 0 and 1")
	}

	if c.Strategies.Garbage.MinLen < 1 {
		return fmt.Errorf("strategies.garbage.min_len must be positive")
	}
	if c.Strategies.Garbage.MaxLen < c.Strategies.Garbage.MinLen {
		return fmt.Errorf("strategies.garbage.max_len must not be less than min_len")
	}

	if c.Strategies.Remote.Enabled {
		if c.Strategies.Remote.URL == "" {
			return fmt.Errorf("strategies.remote.url is required when the remote strategy is enabled")
		}
		if c.Strategies.Remote.Concurrency < 1 {
			return fmt.Errorf("strategies.remote.concurrency must be positive")
		}
	}

	return nil
}

// validateRateLimit validates quota configuration
func (c *Config) validateRateLimit() error {
	check := func(name string, lv *LimitValues) error {
		if lv == nil {
			return nil
		}
		if lv.VariantsPerHour < 0 || lv.VariantsPerDay < 0 {
			return fmt.Errorf("rate_limit.%s values must not be negative", name)
		}
		return nil
	}

	if err := check("global", c.RateLimit.Global); err != nil {
		return err
	}
	if err := check("default_api_key", c.RateLimit.DefaultAPIKey); err != nil {
		return err
	}
	for key, lv := range c.RateLimit.APIKeys {
		if key == "" {
			return fmt.Errorf("empty key name in rate_limit.api_keys")
		}
		if err := check("api_keys."+key, lv); err != nil {
			return err
		}
	}

	return nil
}

// LimitsForKey returns the quota values for an API key: the per-key
// override when present, otherwise the default. Returns nil when no
// quota applies to the key.
func (c *Config) LimitsForKey(key string) *LimitValues {
	if lv, ok := c.RateLimit.APIKeys[key]; ok {
		return lv
	}
	return c.RateLimit.DefaultAPIKey
}
