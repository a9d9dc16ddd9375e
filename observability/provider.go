// Package observability installs the OpenTelemetry tracer and meter providers
// that the database tracking decorator reports through.
package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.32.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/sherpa-db/sherpa/config"
	"github.com/sherpa-db/sherpa/logger"
)

// stdoutWriter receives stdout exporter output.
var stdoutWriter io.Writer = os.Stdout

// Provider manages the lifecycle of the tracer and meter providers.
type Provider interface {
	// TracerProvider returns the configured trace provider.
	TracerProvider() trace.TracerProvider

	// MeterProvider returns the configured meter provider.
	MeterProvider() metric.MeterProvider

	// Shutdown flushes pending telemetry and stops the exporters.
	Shutdown(ctx context.Context) error

	// ForceFlush immediately exports pending telemetry.
	ForceFlush(ctx context.Context) error
}

// provider implements Provider with the OpenTelemetry SDK.
type provider struct {
	config         config.ObservabilityConfig
	logger         logger.Logger
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	mu             sync.Mutex
}

// Setup creates a provider from cfg, installs it as the global tracer and
// meter provider, and returns its shutdown function. With exporter "none" the
// globals are left untouched and shutdown is a no-op.
//
//	shutdown, err := observability.Setup(ctx, &cfg.Observability, log)
//	if err != nil {
//	    return err
//	}
//	defer shutdown(context.Background())
func Setup(ctx context.Context, cfg *config.ObservabilityConfig, log logger.Logger) (func(context.Context) error, error) {
	p, err := NewProvider(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return p.Shutdown, nil
}

// NewProvider creates a provider for cfg. Exporter "none" (or an empty exporter)
// returns a no-op provider. Otherwise the SDK providers are built and installed
// as globals together with the W3C trace context propagator.
func NewProvider(ctx context.Context, cfg *config.ObservabilityConfig, log logger.Logger) (Provider, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if log == nil {
		log = logger.Nop()
	}

	if cfg.Exporter == "" || cfg.Exporter == config.ExporterNone {
		log.Debug().Msg("Observability disabled, using no-op provider")
		return newNoopProvider(), nil
	}

	p := &provider{config: *cfg, logger: log}
	if p.config.Service.Name == "" {
		p.config.Service.Name = config.DefaultServiceName
	}

	res, err := p.createResource(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if err := p.initTraceProvider(ctx, res); err != nil {
		return nil, fmt.Errorf("failed to initialize trace provider: %w", err)
	}
	if err := p.initMeterProvider(ctx, res); err != nil {
		_ = p.tracerProvider.Shutdown(ctx)
		return nil, fmt.Errorf("failed to initialize meter provider: %w", err)
	}

	otel.SetTracerProvider(p.tracerProvider)
	otel.SetMeterProvider(p.meterProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info().
		Str("exporter", p.config.Exporter).
		Str("protocol", p.config.Protocol).
		Str("service", p.config.Service.Name).
		Interface("sample_rate", p.config.Trace.Sample.Rate).
		Msg("Observability provider installed")

	return p, nil
}

// initTraceProvider builds the tracer provider with a batching exporter and
// a parent-based ratio sampler.
func (p *provider) initTraceProvider(ctx context.Context, res *resource.Resource) error {
	exporter, err := p.createTraceExporter(ctx)
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	rate := p.config.Trace.Sample.Rate
	if rate == 0 {
		p.logger.Warn().Msg("Trace sample rate is 0, no spans will be recorded")
	}

	p.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))),
	)
	return nil
}

// initMeterProvider builds the meter provider with a periodic reader.
func (p *provider) initMeterProvider(ctx context.Context, res *resource.Resource) error {
	exporter, err := p.createMetricExporter(ctx)
	if err != nil {
		return fmt.Errorf("failed to create metric exporter: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if p.config.Metrics.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(p.config.Metrics.Interval))
	}

	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
	)
	return nil
}

// createResource merges the SDK default resource with the service identity.
func (p *provider) createResource(ctx context.Context) (*resource.Resource, error) {
	attrs := resource.WithAttributes(semconv.ServiceName(p.config.Service.Name))
	if p.config.Service.Version != "" {
		attrs = resource.WithAttributes(
			semconv.ServiceName(p.config.Service.Name),
			semconv.ServiceVersion(p.config.Service.Version),
		)
	}

	custom, err := resource.New(ctx, attrs)
	if err != nil {
		return nil, err
	}
	return resource.Merge(resource.Default(), custom)
}

// TracerProvider returns the configured trace provider.
func (p *provider) TracerProvider() trace.TracerProvider {
	if p.tracerProvider == nil {
		return tracenoop.NewTracerProvider()
	}
	return p.tracerProvider
}

// MeterProvider returns the configured meter provider.
func (p *provider) MeterProvider() metric.MeterProvider {
	if p.meterProvider == nil {
		return metricnoop.NewMeterProvider()
	}
	return p.meterProvider
}

// Shutdown stops both providers concurrently. The first error is returned.
func (p *provider) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	if p.tracerProvider != nil {
		g.Go(func() error {
			if err := p.tracerProvider.Shutdown(ctx); err != nil {
				return fmt.Errorf("failed to shutdown trace provider: %w", err)
			}
			return nil
		})
	}
	if p.meterProvider != nil {
		g.Go(func() error {
			if err := p.meterProvider.Shutdown(ctx); err != nil {
				return fmt.Errorf("failed to shutdown meter provider: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}

// ForceFlush exports pending telemetry from both providers concurrently.
func (p *provider) ForceFlush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	if p.tracerProvider != nil {
		g.Go(func() error {
			if err := p.tracerProvider.ForceFlush(ctx); err != nil {
				return fmt.Errorf("failed to flush trace provider: %w", err)
			}
			return nil
		})
	}
	if p.meterProvider != nil {
		g.Go(func() error {
			if err := p.meterProvider.ForceFlush(ctx); err != nil {
				return fmt.Errorf("failed to flush meter provider: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}
