package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/sherpa-db/sherpa/config"
)

// createTraceExporter creates the span exporter selected by the configuration.
func (p *provider) createTraceExporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	switch p.config.Exporter {
	case config.ExporterStdout:
		return stdouttrace.New(
			stdouttrace.WithWriter(stdoutWriter),
			stdouttrace.WithPrettyPrint(),
		)
	case config.ExporterOTLP:
		if p.config.Endpoint == "" {
			return nil, ErrMissingEndpoint
		}
		switch p.protocol() {
		case config.ProtocolHTTP:
			opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(p.config.Endpoint)}
			if p.config.Insecure {
				opts = append(opts, otlptracehttp.WithInsecure())
			}
			return otlptracehttp.New(ctx, opts...)
		case config.ProtocolGRPC:
			opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(p.config.Endpoint)}
			if p.config.Insecure {
				opts = append(opts, otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()))
			}
			return otlptracegrpc.New(ctx, opts...)
		default:
			return nil, fmt.Errorf("trace protocol '%s': %w", p.config.Protocol, ErrInvalidProtocol)
		}
	default:
		return nil, fmt.Errorf("exporter '%s': %w", p.config.Exporter, ErrInvalidExporter)
	}
}

// createMetricExporter creates the metric exporter selected by the configuration.
// Metrics share the trace endpoint and protocol.
func (p *provider) createMetricExporter(ctx context.Context) (sdkmetric.Exporter, error) {
	switch p.config.Exporter {
	case config.ExporterStdout:
		return stdoutmetric.New(
			stdoutmetric.WithWriter(stdoutWriter),
			stdoutmetric.WithPrettyPrint(),
		)
	case config.ExporterOTLP:
		if p.config.Endpoint == "" {
			return nil, ErrMissingEndpoint
		}
		switch p.protocol() {
		case config.ProtocolHTTP:
			opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(p.config.Endpoint)}
			if p.config.Insecure {
				opts = append(opts, otlpmetrichttp.WithInsecure())
			}
			return otlpmetrichttp.New(ctx, opts...)
		case config.ProtocolGRPC:
			opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(p.config.Endpoint)}
			if p.config.Insecure {
				opts = append(opts, otlpmetricgrpc.WithTLSCredentials(insecure.NewCredentials()))
			}
			return otlpmetricgrpc.New(ctx, opts...)
		default:
			return nil, fmt.Errorf("metrics protocol '%s': %w", p.config.Protocol, ErrInvalidProtocol)
		}
	default:
		return nil, fmt.Errorf("exporter '%s': %w", p.config.Exporter, ErrInvalidExporter)
	}
}

// protocol returns the configured OTLP protocol, defaulting to gRPC.
func (p *provider) protocol() string {
	if p.config.Protocol == "" {
		return config.ProtocolGRPC
	}
	return p.config.Protocol
}
