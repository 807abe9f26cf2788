package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spindlehq/spindle/internal/config"
)

func TestGenerateRandomString(t *testing.T) {
	// Test that it generates strings of correct length
	lengths := []int{8, 16, 32, 64}

	for _, length := range lengths {
		result := generateRandomString(length)
		if len(result) != length {
			t.Errorf("generateRandomString(%d) returned string of length %d", length, len(result))
		}
	}

	// Test that it generates different strings
	s1 := generateRandomString(32)
	s2 := generateRandomString(32)
	if s1 == s2 {
		t.Error("generateRandomString should generate unique strings")
	}
}

func TestGenerateConfig(t *testing.T) {
	// Set up test values
	initListen = ":8080"
	initAPIKey = "testapikey"
	initDataDir = "/var/lib/spindle"
	initQuotas = true
	initMetrics = false

	cfgText := generateConfig()

	// Check that config contains expected values
	checks := []string{
		`listen_addr: ":8080"`,
		`api_key: "testapikey"`,
		`path: "/var/lib/spindle/lexicon.db"`,
		`variants_per_hour: 10000`,
		`format: " | %s"`,
		`format: " [ref:%s]"`,
	}

	for _, check := range checks {
		if !strings.Contains(cfgText, check) {
			t.Errorf("Generated config missing: %s", check)
		}
	}
}

func TestGenerateConfigLoads(t *testing.T) {
	initListen = ":8080"
	initAPIKey = "testapikey"
	initDataDir = "/var/lib/spindle"
	initQuotas = true
	initMetrics = true

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(generateConfig()), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("generated config failed to load: %v", err)
	}

	if cfg.API.APIKey != "testapikey" {
		t.Errorf("expected api key testapikey, got %s", cfg.API.APIKey)
	}
	if !cfg.RateLimit.Enabled {
		t.Error("expected quotas enabled")
	}
	if cfg.RateLimit.DefaultAPIKey == nil || cfg.RateLimit.DefaultAPIKey.VariantsPerHour != 10000 {
		t.Errorf("expected default hourly quota 10000, got %+v", cfg.RateLimit.DefaultAPIKey)
	}
	if !cfg.Metrics.Enabled {
		t.Error("expected metrics enabled")
	}
	if cfg.Strategies.Garbage.MinLen != 6 || cfg.Strategies.Garbage.MaxLen != 10 {
		t.Errorf("expected garbage token length 6..10, got %d..%d",
			cfg.Strategies.Garbage.MinLen, cfg.Strategies.Garbage.MaxLen)
	}
}

func TestInitOutputFileCheck(t *testing.T) {
	// Create a temp file
	tmpDir := t.TempDir()
	existingFile := filepath.Join(tmpDir, "existing.yaml")
	if err := os.WriteFile(existingFile, []byte("test"), 0644); err != nil {
		t.Fatal(err)
	}

	// Test that file existence is detected
	_, err := os.Stat(existingFile)
	if err != nil {
		t.Error("Test file should exist")
	}
}
