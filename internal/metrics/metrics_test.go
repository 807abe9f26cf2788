package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
)

func TestNew(t *testing.T) {
	m := New()
	if m == nil {
		t.Fatal("New() returned nil")
	}

	if m.Registry() == nil {
		t.Error("Registry() returned nil")
	}

	// Check that all metrics are registered
	if m.VariantsGeneratedTotal == nil {
		t.Error("VariantsGeneratedTotal is nil")
	}
	if m.VariantDuplicatesTotal == nil {
		t.Error("VariantDuplicatesTotal is nil")
	}
	if m.BudgetExhaustedTotal == nil {
		t.Error("BudgetExhaustedTotal is nil")
	}
	if m.ExpansionAttemptsTotal == nil {
		t.Error("ExpansionAttemptsTotal is nil")
	}
	if m.ValidationFailuresTotal == nil {
		t.Error("ValidationFailuresTotal is nil")
	}
	if m.StrategyAppliedTotal == nil {
		t.Error("StrategyAppliedTotal is nil")
	}
	if m.StrategyFailuresTotal == nil {
		t.Error("StrategyFailuresTotal is nil")
	}
	if m.RemoteFallbacksTotal == nil {
		t.Error("RemoteFallbacksTotal is nil")
	}
	if m.GenerationDurationSeconds == nil {
		t.Error("GenerationDurationSeconds is nil")
	}
	if m.APIRequestsTotal == nil {
		t.Error("APIRequestsTotal is nil")
	}
	if m.APIRequestDurationSeconds == nil {
		t.Error("APIRequestDurationSeconds is nil")
	}
}

func TestGlobalMetrics(t *testing.T) {
	// Initially global should be nil
	if Global() != nil {
		t.Error("Global() should be nil before SetGlobal")
	}

	m := New()
	SetGlobal(m)

	if Global() != m {
		t.Error("Global() did not return the set metrics")
	}

	// Cleanup
	SetGlobal(nil)
}

func TestIncValidationFailure(t *testing.T) {
	m := New()
	SetGlobal(m)
	defer SetGlobal(nil)

	IncValidationFailure("unbalanced_brace")
	IncValidationFailure("unbalanced_brace")
	IncValidationFailure("nested_group")

	counter, err := m.ValidationFailuresTotal.GetMetricWithLabelValues("unbalanced_brace")
	if err != nil {
		t.Fatalf("Failed to get counter: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 2 {
		t.Errorf("Expected counter value 2, got %f", metric.Counter.GetValue())
	}
}

func TestIncStrategyFailure(t *testing.T) {
	m := New()
	SetGlobal(m)
	defer SetGlobal(nil)

	IncStrategyFailure("synonyms")
	IncStrategyFailure("trending")
	IncStrategyFailure("synonyms")

	counter, err := m.StrategyFailuresTotal.GetMetricWithLabelValues("synonyms")
	if err != nil {
		t.Fatalf("Failed to get counter: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 2 {
		t.Errorf("Expected counter value 2, got %f", metric.Counter.GetValue())
	}
}

func TestIncRemoteFallback(t *testing.T) {
	m := New()
	SetGlobal(m)
	defer SetGlobal(nil)

	IncRemoteFallback()
	IncRemoteFallback()
	IncRemoteFallback()

	var metric dto.Metric
	if err := m.RemoteFallbacksTotal.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 3 {
		t.Errorf("Expected remote fallbacks 3, got %f", metric.Counter.GetValue())
	}
}

func TestIncRateLimitExceeded(t *testing.T) {
	m := New()
	SetGlobal(m)
	defer SetGlobal(nil)

	IncRateLimitExceeded("global")
	IncRateLimitExceeded("api_key")
	IncRateLimitExceeded("global")

	counter, err := m.RateLimitExceededTotal.GetMetricWithLabelValues("global")
	if err != nil {
		t.Fatalf("Failed to get counter: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 2 {
		t.Errorf("Expected rate limit exceeded 2, got %f", metric.Counter.GetValue())
	}
}

func TestGlobalNilSafe(t *testing.T) {
	SetGlobal(nil)

	// These should not panic when global is nil
	IncValidationFailure("unbalanced_brace")
	IncStrategyFailure("synonyms")
	IncRemoteFallback()
	IncRateLimitExceeded("global")
	IncAPIErrors("server_error")
}
