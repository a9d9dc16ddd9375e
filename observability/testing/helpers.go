// Package testing installs in-memory OpenTelemetry pipelines for unit tests,
// so spans and metrics emitted through the global providers can be asserted
// without a collector.
//
//	tel := obtest.Install(t)
//	// run code that queries the database
//	spans := tel.Spans.GetSpans()
//	duration := tel.Metric(t, "db.client.operation.duration")
package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// Telemetry holds the in-memory trace exporter and manual metric reader
// backing the global providers for one test.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Spans          *tracetest.InMemoryExporter
	Reader         *sdkmetric.ManualReader
}

// Install replaces the global tracer and meter providers with in-memory ones.
// The previous providers are restored when the test ends. Tests using Install
// must not run in parallel.
func Install(t *testing.T) *Telemetry {
	t.Helper()

	originalTP := otel.GetTracerProvider()
	originalMP := otel.GetMeterProvider()

	tel := &Telemetry{
		Spans:  tracetest.NewInMemoryExporter(),
		Reader: sdkmetric.NewManualReader(),
	}
	tel.TracerProvider = sdktrace.NewTracerProvider(sdktrace.WithSyncer(tel.Spans))
	tel.MeterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(tel.Reader))

	otel.SetTracerProvider(tel.TracerProvider)
	otel.SetMeterProvider(tel.MeterProvider)

	t.Cleanup(func() {
		_ = tel.TracerProvider.Shutdown(context.Background())
		_ = tel.MeterProvider.Shutdown(context.Background())
		otel.SetTracerProvider(originalTP)
		otel.SetMeterProvider(originalMP)
	})
	return tel
}

// Collect reads every metric recorded so far.
func (tel *Telemetry) Collect(t *testing.T) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, tel.Reader.Collect(context.Background(), &rm), "failed to collect metrics")
	return rm
}

// Metric collects and returns the named metric, failing the test when absent.
func (tel *Telemetry) Metric(t *testing.T, name string) metricdata.Metrics {
	t.Helper()
	m := FindMetric(tel.Collect(t), name)
	if m == nil {
		t.Fatalf("metric %s not collected", name)
		return metricdata.Metrics{}
	}
	return *m
}

// FindMetric returns the named metric from rm, or nil.
func FindMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// SpanAttributes returns the span's attributes rendered as strings.
func SpanAttributes(span tracetest.SpanStub) map[string]string {
	attrs := make(map[string]string, len(span.Attributes))
	for _, kv := range span.Attributes {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	return attrs
}

// AssertSpanAttribute asserts that span carries key with the rendered value expected.
func AssertSpanAttribute(t *testing.T, span tracetest.SpanStub, key, expected string) {
	t.Helper()
	actual, ok := SpanAttributes(span)[key]
	if !assert.True(t, ok, "span %s has no attribute %s", span.Name, key) {
		return
	}
	assert.Equal(t, expected, actual, "attribute %s value mismatch", key)
}
