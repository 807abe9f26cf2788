package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return cfgPath
}

func TestLoad(t *testing.T) {
	content := `
server:
  hostname: "spin.test.com"

api:
  listen_addr: ":9080"
  api_key: "test-api-key"
  read_timeout: 10s

generator:
  max_count: 500
  attempt_multiplier: 20
  max_template_bytes: 4096

strategies:
  synonym:
    probability: 0.8
  trending:
    format: " // %s"
  garbage:
    format: " <%s>"
    min_len: 4
    max_len: 8
  remote:
    enabled: true
    url: "http://enhance.test.com/api/v1/strategies/apply"
    api_key: "remote-key"
    timeout: 2s
    concurrency: 8

lexicon:
  path: "/tmp/test-lexicon.db"
  seed_file: "/tmp/words.yaml"

rate_limit:
  enabled: true
  default_api_key:
    variants_per_hour: 1000
    variants_per_day: 5000
  api_keys:
    partner:
      variants_per_hour: 9000
      variants_per_day: 90000

logging:
  level: "debug"
  format: "text"

metrics:
  enabled: true
  listen_addr: ":9191"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Check values
	if cfg.Server.Hostname != "spin.test.com" {
		t.Errorf("Hostname = %v, want spin.test.com", cfg.Server.Hostname)
	}
	if cfg.API.ListenAddr != ":9080" {
		t.Errorf("API.ListenAddr = %v, want :9080", cfg.API.ListenAddr)
	}
	if cfg.API.APIKey != "test-api-key" {
		t.Errorf("API.APIKey = %v, want test-api-key", cfg.API.APIKey)
	}
	if cfg.API.ReadTimeout != 10*time.Second {
		t.Errorf("API.ReadTimeout = %v, want 10s", cfg.API.ReadTimeout)
	}
	if cfg.Generator.MaxCount != 500 {
		t.Errorf("Generator.MaxCount = %v, want 500", cfg.Generator.MaxCount)
	}
	if cfg.Generator.AttemptMultiplier != 20 {
		t.Errorf("Generator.AttemptMultiplier = %v, want 20", cfg.Generator.AttemptMultiplier)
	}
	if cfg.Strategies.Synonym.Probability != 0.8 {
		t.Errorf("Strategies.Synonym.Probability = %v, want 0.8", cfg.Strategies.Synonym.Probability)
	}
	if cfg.Strategies.Garbage.MinLen != 4 || cfg.Strategies.Garbage.MaxLen != 8 {
		t.Errorf("Strategies.Garbage lengths = %d..%d, want 4..8",
			cfg.Strategies.Garbage.MinLen, cfg.Strategies.Garbage.MaxLen)
	}
	if !cfg.Strategies.Remote.Enabled {
		t.Error("Strategies.Remote.Enabled = false, want true")
	}
	if cfg.Strategies.Remote.Concurrency != 8 {
		t.Errorf("Strategies.Remote.Concurrency = %v, want 8", cfg.Strategies.Remote.Concurrency)
	}
	if cfg.Lexicon.Path != "/tmp/test-lexicon.db" {
		t.Errorf("Lexicon.Path = %v, want /tmp/test-lexicon.db", cfg.Lexicon.Path)
	}
	if !cfg.RateLimit.Enabled {
		t.Error("RateLimit.Enabled = false, want true")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %v, want debug", cfg.Logging.Level)
	}
	if cfg.Metrics.ListenAddr != ":9191" {
		t.Errorf("Metrics.ListenAddr = %v, want :9191", cfg.Metrics.ListenAddr)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  hostname: spin.local\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Check defaults
	if cfg.API.ListenAddr != ":8080" {
		t.Errorf("API.ListenAddr = %v, want :8080", cfg.API.ListenAddr)
	}
	if cfg.API.ReadTimeout != 30*time.Second {
		t.Errorf("API.ReadTimeout = %v, want 30s", cfg.API.ReadTimeout)
	}
	if cfg.Generator.MaxCount != 1000 {
		t.Errorf("Generator.MaxCount = %v, want 1000", cfg.Generator.MaxCount)
	}
	if cfg.Generator.AttemptMultiplier != 10 {
		t.Errorf("Generator.AttemptMultiplier = %v, want 10", cfg.Generator.AttemptMultiplier)
	}
	if cfg.Generator.MaxTemplateBytes != 64*1024 {
		t.Errorf("Generator.MaxTemplateBytes = %v, want 64KB", cfg.Generator.MaxTemplateBytes)
	}
	if cfg.Strategies.Synonym.Probability != 0.5 {
		t.Errorf("Strategies.Synonym.Probability = %v, want 0.5", cfg.Strategies.Synonym.Probability)
	}
	if cfg.Strategies.Garbage.MinLen != 6 || cfg.Strategies.Garbage.MaxLen != 10 {
		t.Errorf("Strategies.Garbage lengths = %d..%d, want 6..10",
			cfg.Strategies.Garbage.MinLen, cfg.Strategies.Garbage.MaxLen)
	}
	if cfg.Strategies.Remote.Timeout != 5*time.Second {
		t.Errorf("Strategies.Remote.Timeout = %v, want 5s", cfg.Strategies.Remote.Timeout)
	}
	if cfg.Lexicon.Path != "/var/lib/spindle/lexicon.db" {
		t.Errorf("Lexicon.Path = %v, want /var/lib/spindle/lexicon.db", cfg.Lexicon.Path)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %v, want info", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %v, want json", cfg.Logging.Format)
	}
	if cfg.Metrics.ListenAddr != ":9090" {
		t.Errorf("Metrics.ListenAddr = %v, want :9090", cfg.Metrics.ListenAddr)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %v, want /metrics", cfg.Metrics.Path)
	}
	if cfg.Metrics.FlushInterval != 10*time.Second {
		t.Errorf("Metrics.FlushInterval = %v, want 10s", cfg.Metrics.FlushInterval)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			"bad log level",
			"logging:\n  level: loud\n",
		},
		{
			"bad log format",
			"logging:\n  format: xml\n",
		},
		{
			"negative max_count",
			"generator:\n  max_count: -1\n",
		},
		{
			"negative attempt_multiplier",
			"generator:\n  attempt_multiplier: -2\n",
		},
		{
			"probability above one",
			"strategies:\n  synonym:\n    probability: 1.5\n",
		},
		{
			"garbage max below min",
			"strategies:\n  garbage:\n    min_len: 8\n    max_len: 3\n",
		},
		{
			"remote enabled without url",
			"strategies:\n  remote:\n    enabled: true\n",
		},
		{
			"negative quota",
			"rate_limit:\n  default_api_key:\n    variants_per_hour: -5\n",
		},
		{
			"not yaml",
			"{{{{",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("Load() error = nil, want error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() error = nil, want error for missing file")
	}
}

func TestLimitsForKey(t *testing.T) {
	cfg := &Config{
		RateLimit: RateLimitConfig{
			Enabled:       true,
			DefaultAPIKey: &LimitValues{VariantsPerHour: 100, VariantsPerDay: 1000},
			APIKeys: map[string]*LimitValues{
				"partner": {VariantsPerHour: 900, VariantsPerDay: 9000},
			},
		},
	}

	if lv := cfg.LimitsForKey("partner"); lv == nil || lv.VariantsPerHour != 900 {
		t.Errorf("LimitsForKey(partner) = %+v, want the per-key override", lv)
	}
	if lv := cfg.LimitsForKey("other"); lv == nil || lv.VariantsPerHour != 100 {
		t.Errorf("LimitsForKey(other) = %+v, want the default limits", lv)
	}

	cfg.RateLimit.DefaultAPIKey = nil
	if lv := cfg.LimitsForKey("other"); lv != nil {
		t.Errorf("LimitsForKey with no defaults = %+v, want nil", lv)
	}
}
