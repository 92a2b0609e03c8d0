package observability

import (
	"context"
	"testing"

	"github.com/KurtHennigar/sns3-satellite/internal/logging"
)

func TestTracingConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("SFPLAN_TRACING_ENABLED", "")
	t.Setenv("SFPLAN_TRACING_EXPORTER", "")
	t.Setenv("SFPLAN_TRACING_SERVICE_NAME", "")
	t.Setenv("SFPLAN_TRACING_SAMPLE_RATIO", "")
	t.Setenv("SFPLAN_OTLP_ENDPOINT", "")

	cfg := TracingConfigFromEnv()
	if cfg.Enabled {
		t.Errorf("tracing enabled by default")
	}
	if cfg.Exporter != "stdout" {
		t.Errorf("Exporter = %q, want stdout", cfg.Exporter)
	}
	if cfg.ServiceName != "superframe-planner" {
		t.Errorf("ServiceName = %q, want superframe-planner", cfg.ServiceName)
	}
	if cfg.SampleRatio != 1.0 {
		t.Errorf("SampleRatio = %v, want 1.0", cfg.SampleRatio)
	}
}

func TestTracingConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("SFPLAN_TRACING_ENABLED", "TRUE")
	t.Setenv("SFPLAN_TRACING_EXPORTER", "OTLP")
	t.Setenv("SFPLAN_TRACING_SERVICE_NAME", "layout-dev")
	t.Setenv("SFPLAN_TRACING_SAMPLE_RATIO", "0.25")
	t.Setenv("SFPLAN_OTLP_ENDPOINT", "collector:4317")

	cfg := TracingConfigFromEnv()
	if !cfg.Enabled {
		t.Errorf("tracing not enabled")
	}
	if cfg.Exporter != "otlp" {
		t.Errorf("Exporter = %q, want otlp", cfg.Exporter)
	}
	if cfg.ServiceName != "layout-dev" {
		t.Errorf("ServiceName = %q, want layout-dev", cfg.ServiceName)
	}
	if cfg.SampleRatio != 0.25 {
		t.Errorf("SampleRatio = %v, want 0.25", cfg.SampleRatio)
	}
	if cfg.Endpoint != "collector:4317" {
		t.Errorf("Endpoint = %q, want collector:4317", cfg.Endpoint)
	}
}

func TestTracingConfigFromEnvIgnoresBadRatio(t *testing.T) {
	t.Setenv("SFPLAN_TRACING_SAMPLE_RATIO", "2.5")
	if cfg := TracingConfigFromEnv(); cfg.SampleRatio != 1.0 {
		t.Errorf("SampleRatio = %v, want 1.0 for an out-of-range value", cfg.SampleRatio)
	}

	t.Setenv("SFPLAN_TRACING_SAMPLE_RATIO", "lots")
	if cfg := TracingConfigFromEnv(); cfg.SampleRatio != 1.0 {
		t.Errorf("SampleRatio = %v, want 1.0 for an unparsable value", cfg.SampleRatio)
	}
}

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{}, logging.Noop())
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestInitTracingRejectsUnknownExporter(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingConfig{
		Enabled:  true,
		Exporter: "jaeger",
	}, logging.Noop())
	if err == nil {
		t.Fatalf("expected error for unknown exporter")
	}
}
