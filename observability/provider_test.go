package observability

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/sherpa-db/sherpa/config"
	"github.com/sherpa-db/sherpa/logger"
)

// syncBuffer guards a buffer shared by the trace and metric stdout exporters.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// restoreGlobals puts back the global providers and stdout writer after a test.
func restoreGlobals(t *testing.T) {
	t.Helper()
	tp := otel.GetTracerProvider()
	mp := otel.GetMeterProvider()
	prop := otel.GetTextMapPropagator()
	writer := stdoutWriter
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetMeterProvider(mp)
		otel.SetTextMapPropagator(prop)
		stdoutWriter = writer
	})
}

func TestNewProviderNilConfig(t *testing.T) {
	_, err := NewProvider(context.Background(), nil, logger.Nop())
	assert.ErrorIs(t, err, ErrNilConfig)
}

func TestSetupNoneLeavesGlobalsUntouched(t *testing.T) {
	restoreGlobals(t)
	before := otel.GetTracerProvider()

	for _, exporter := range []string{"", config.ExporterNone} {
		p, err := NewProvider(context.Background(), &config.ObservabilityConfig{Exporter: exporter}, nil)
		require.NoError(t, err)
		_, ok := p.TracerProvider().(tracenoop.TracerProvider)
		assert.True(t, ok)
	}

	shutdown, err := Setup(context.Background(), &config.ObservabilityConfig{Exporter: config.ExporterNone}, logger.Nop())
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.Equal(t, before, otel.GetTracerProvider())
}

func TestSetupStdoutInstallsGlobalsAndExports(t *testing.T) {
	restoreGlobals(t)
	out := &syncBuffer{}
	stdoutWriter = out

	shutdown, err := Setup(context.Background(), &config.ObservabilityConfig{
		Exporter: config.ExporterStdout,
		Service:  config.ObservabilityServiceConfig{Name: "orders-api", Version: "1.2.3"},
		Trace:    config.TraceConfig{Sample: config.SampleConfig{Rate: 1}},
	}, logger.Nop())
	require.NoError(t, err)

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	require.True(t, ok, "global tracer provider replaced")
	_, ok = otel.GetMeterProvider().(*sdkmetric.MeterProvider)
	require.True(t, ok, "global meter provider replaced")

	_, span := otel.Tracer("sherpa-test").Start(context.Background(), "db.select")
	span.End()
	counter, err := otel.Meter("sherpa-test").Int64Counter("db.client.calls")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	require.NoError(t, shutdown(context.Background()))

	exported := out.String()
	assert.Contains(t, exported, "db.select")
	assert.Contains(t, exported, "db.client.calls")
	assert.Contains(t, exported, "orders-api")
	assert.Contains(t, exported, "1.2.3")
}

func TestStdoutProviderFlushes(t *testing.T) {
	restoreGlobals(t)
	out := &syncBuffer{}
	stdoutWriter = out

	p, err := NewProvider(context.Background(), &config.ObservabilityConfig{
		Exporter: config.ExporterStdout,
		Trace:    config.TraceConfig{Sample: config.SampleConfig{Rate: 1}},
	}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Shutdown(p, 0) })

	_, span := p.TracerProvider().Tracer("sherpa-test").Start(context.Background(), "db.count")
	span.End()

	require.NoError(t, p.ForceFlush(context.Background()))
	assert.Contains(t, out.String(), "db.count")
	assert.Contains(t, out.String(), config.DefaultServiceName, "default service name applied")
}

func TestOTLPRequiresEndpoint(t *testing.T) {
	restoreGlobals(t)

	_, err := NewProvider(context.Background(), &config.ObservabilityConfig{
		Exporter: config.ExporterOTLP,
	}, logger.Nop())
	assert.ErrorIs(t, err, ErrMissingEndpoint)
}

func TestInvalidExporterAndProtocol(t *testing.T) {
	restoreGlobals(t)

	_, err := NewProvider(context.Background(), &config.ObservabilityConfig{Exporter: "zipkin"}, logger.Nop())
	assert.ErrorIs(t, err, ErrInvalidExporter)

	_, err = NewProvider(context.Background(), &config.ObservabilityConfig{
		Exporter: config.ExporterOTLP,
		Endpoint: "localhost:4317",
		Protocol: "udp",
	}, logger.Nop())
	assert.ErrorIs(t, err, ErrInvalidProtocol)
}

func TestOTLPExportersForEachProtocol(t *testing.T) {
	ctx := context.Background()

	for _, protocol := range []string{"", config.ProtocolGRPC, config.ProtocolHTTP} {
		t.Run("protocol="+protocol, func(t *testing.T) {
			p := &provider{config: config.ObservabilityConfig{
				Exporter: config.ExporterOTLP,
				Endpoint: "localhost:4317",
				Protocol: protocol,
				Insecure: true,
			}}

			spans, err := p.createTraceExporter(ctx)
			require.NoError(t, err)
			require.NotNil(t, spans)

			metrics, err := p.createMetricExporter(ctx)
			require.NoError(t, err)
			require.NotNil(t, metrics)

			canceled, cancel := context.WithCancel(ctx)
			cancel()
			_ = spans.Shutdown(canceled)
			_ = metrics.Shutdown(canceled)
		})
	}
}
