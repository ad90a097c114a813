// Package telemetry installs the OpenTelemetry tracer provider used by the
// agent, model and workflow spans.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ShutdownFunc flushes pending spans and releases the exporter.
type ShutdownFunc func(context.Context) error

// Options configures Init.
type Options struct {
	// Endpoint is the OTLP/HTTP collector URL. Tracing stays on the global
	// no-op provider when empty.
	Endpoint    string
	ServiceName string
	Version     string
	// Exporter replaces the OTLP exporter, mainly for tests.
	Exporter sdktrace.SpanExporter
}

// Init configures the global tracer provider and returns its shutdown.
func Init(ctx context.Context, opts Options) (ShutdownFunc, error) {
	exporter := opts.Exporter
	if exporter == nil {
		if opts.Endpoint == "" {
			return func(context.Context) error { return nil }, nil
		}
		var err error
		exporter, err = otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(opts.Endpoint))
		if err != nil {
			return nil, fmt.Errorf("creating OTLP exporter: %w", err)
		}
	}

	serviceName := opts.ServiceName
	if serviceName == "" {
		serviceName = "guide-agent"
	}
	attrs := []attribute.KeyValue{attribute.String("service.name", serviceName)}
	if opts.Version != "" {
		attrs = append(attrs, attribute.String("service.version", opts.Version))
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes("", attrs...)),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
