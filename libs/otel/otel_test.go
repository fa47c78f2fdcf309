package otelx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("OTEL_SAMPLING_RATIO", "2")

	cfg := ConfigFromEnv("booking-api")
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "collector:4317", cfg.OTLPEndpoint)
	assert.Equal(t, 1.0, cfg.SampleRatio)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 3*time.Second, cfg.ExportTimeout)
}

func TestConfigFromEnvDefaults(t *testing.T) {
	cfg := ConfigFromEnv("booking-api")
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	assert.Equal(t, "dev", cfg.ServiceVersion)
	assert.Equal(t, "local", cfg.Environment)
	assert.Equal(t, 1.0, cfg.SampleRatio)
}

func TestParseRatio(t *testing.T) {
	assert.Equal(t, 0.25, parseRatio("0.25"))
	assert.Equal(t, 0.0, parseRatio("0"))
	assert.Equal(t, 1.0, parseRatio("-0.5"))
	assert.Equal(t, 1.0, parseRatio("half"))
}

func TestSetupRejectsEmptyEndpoint(t *testing.T) {
	_, err := Setup(context.Background(), Config{Enabled: true, ServiceName: "booking-api"})
	assert.Error(t, err)
}

func TestNewResource(t *testing.T) {
	res, err := newResource(context.Background(), Config{ServiceName: "booking-api", ServiceVersion: "1.2.0", Environment: "staging"})
	require.NoError(t, err)

	got := map[string]string{}
	for _, kv := range res.Attributes() {
		got[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "booking-api", got["service.name"])
	assert.Equal(t, "1.2.0", got["service.version"])
	assert.Equal(t, "staging", got["deployment.environment"])
}

func TestNewSampler(t *testing.T) {
	assert.Contains(t, newSampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, newSampler(0.5).Description(), "TraceIDRatioBased")
}

func TestTraceContextRoundTrip(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	defer func() { _ = shutdown(context.Background()) }()

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	parent, _ := TraceContextStrings(ctx)
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", parent)

	restored := trace.SpanContextFromContext(ContextWithTraceContext(context.Background(), parent, ""))
	assert.Equal(t, traceID, restored.TraceID())
	assert.True(t, restored.IsRemote())

	assert.Equal(t, context.Background(), ContextWithTraceContext(context.Background(), "", ""))
}
