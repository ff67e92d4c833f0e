// Package telemetry sets up OpenTelemetry tracing for the server process.
package telemetry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/eventsignup/server/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Shutdown flushes buffered spans and stops the exporter.
type Shutdown func(context.Context) error

type exporterFactory func(ctx context.Context, cfg config.TracingConfig) (sdktrace.SpanExporter, error)

var exporters = map[string]exporterFactory{
	"stdout": func(context.Context, config.TracingConfig) (sdktrace.SpanExporter, error) {
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	},
	"otlp": func(ctx context.Context, cfg config.TracingConfig) (sdktrace.SpanExporter, error) {
		// The collector is expected next to the server, without TLS.
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		)
	},
	// none still creates real spans so trace ids show up in logs.
	"none": func(context.Context, config.TracingConfig) (sdktrace.SpanExporter, error) {
		return discardExporter{}, nil
	},
}

// InitTracing registers the global tracer provider and the W3C trace context
// propagator. When tracing is disabled nothing global changes and the
// returned Shutdown does nothing.
func InitTracing(ctx context.Context, cfg config.TracingConfig, serviceVersion string) (Shutdown, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}
	if cfg.SampleRate < 0 || cfg.SampleRate > 1 {
		return nil, fmt.Errorf("tracing sample rate %g out of range [0, 1]", cfg.SampleRate)
	}

	factory, ok := exporters[cfg.Exporter]
	if !ok {
		return nil, fmt.Errorf("unknown tracing exporter %q (want one of %s)", cfg.Exporter, exporterNames())
	}
	exporter, err := factory(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s exporter: %w", cfg.Exporter, err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(serviceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("build tracing resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SampleRate)),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return provider.Shutdown, nil
}

func exporterNames() string {
	names := make([]string, 0, len(exporters))
	for name := range exporters {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func sampler(rate float64) sdktrace.Sampler {
	if rate >= 1 {
		return sdktrace.AlwaysSample()
	}
	if rate <= 0 {
		return sdktrace.NeverSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
}

type discardExporter struct{}

func (discardExporter) ExportSpans(context.Context, []sdktrace.ReadOnlySpan) error { return nil }

func (discardExporter) Shutdown(context.Context) error { return nil }
