package observability

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ShutdownFunc flushes and stops a tracer provider.
type ShutdownFunc func(context.Context) error

// TracerOption configures InitGlobalTracer.
type TracerOption func(*tracerOptions)

type tracerOptions struct {
	stdout io.Writer
}

// WithStdoutWriter sends stdout-exporter spans to w instead of os.Stderr.
func WithStdoutWriter(w io.Writer) TracerOption {
	return func(o *tracerOptions) { o.stdout = w }
}

// InitGlobalTracer builds a tracer provider for cfg and installs it as the
// otel global. With no exporter configured it installs a no-op provider.
// Call the returned ShutdownFunc before exiting so buffered spans are sent.
func InitGlobalTracer(ctx context.Context, cfg TracingConfig, opts ...TracerOption) (trace.TracerProvider, ShutdownFunc, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	if !cfg.Enabled() {
		tp := noop.NewTracerProvider()
		otel.SetTracerProvider(tp)
		return tp, func(context.Context) error { return nil }, nil
	}

	o := tracerOptions{stdout: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	exporter, err := newExporter(ctx, cfg, o)
	if err != nil {
		return nil, nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithExportTimeout(cfg.Timeout)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SamplingRate))),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	return tp, tp.Shutdown, nil
}

func newExporter(ctx context.Context, cfg TracingConfig, o tracerOptions) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case ExporterStdout:
		exporter, err := stdouttrace.New(
			stdouttrace.WithWriter(o.stdout),
			stdouttrace.WithPrettyPrint(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		return exporter, nil

	case ExporterOTLP:
		grpcOpts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
			otlptracegrpc.WithTimeout(cfg.Timeout),
		}
		if cfg.Insecure {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithInsecure())
		}
		exporter, err := otlptracegrpc.New(ctx, grpcOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		return exporter, nil
	}
	return nil, fmt.Errorf("unknown trace exporter %q", cfg.Exporter)
}
