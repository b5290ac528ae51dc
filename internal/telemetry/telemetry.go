// Package telemetry provides tracing and metrics for evaluation runs.
//
// Spans are written as JSON to a trace file with the OpenTelemetry stdout
// exporter. Metrics live in a private Prometheus registry and are written
// in text exposition format on Shutdown. Both are disabled by default.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "github.com/leapstack-labs/evaltable"

// Config controls telemetry output. Empty paths disable the signal.
type Config struct {
	// TraceFile receives one JSON document per finished span.
	TraceFile string
	// MetricsFile receives the Prometheus text format on Shutdown.
	MetricsFile string
	// ServiceVersion is recorded on the trace resource.
	ServiceVersion string
}

// Telemetry bundles a tracer and the run metrics.
type Telemetry struct {
	tracer      trace.Tracer
	provider    *sdktrace.TracerProvider
	traceFile   *os.File
	registry    *prometheus.Registry
	metricsFile string

	// Metrics is never nil; without a metrics file it records into a
	// registry that is discarded.
	Metrics *Metrics
}

// New sets up telemetry for cfg. Call Shutdown when the run ends.
func New(cfg Config) (*Telemetry, error) {
	t := &Telemetry{
		tracer:      noop.NewTracerProvider().Tracer(instrumentationName),
		registry:    prometheus.NewRegistry(),
		metricsFile: cfg.MetricsFile,
	}
	t.Metrics = NewMetrics(t.registry)

	if cfg.TraceFile == "" {
		return t, nil
	}

	f, err := os.Create(cfg.TraceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(f), stdouttrace.WithPrettyPrint())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create exporter: %w", err)
	}

	version := cfg.ServiceVersion
	if version == "" {
		version = "dev"
	}
	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", "evaltable"),
		attribute.String("service.version", version),
	)

	t.provider = sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	t.tracer = t.provider.Tracer(instrumentationName)
	t.traceFile = f
	return t, nil
}

// Disabled returns telemetry that records nothing anywhere.
func Disabled() *Telemetry {
	t, _ := New(Config{})
	return t
}

// Start opens a span.
func (t *Telemetry) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// Registry exposes the metrics registry.
func (t *Telemetry) Registry() *prometheus.Registry { return t.registry }

// Shutdown flushes spans, closes the trace file and writes the metrics file.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.provider != nil {
		if err := t.provider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracer: %w", err))
		}
	}
	if t.traceFile != nil {
		if err := t.traceFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close trace file: %w", err))
		}
		t.traceFile = nil
	}
	if t.metricsFile != "" {
		if err := prometheus.WriteToTextfile(t.metricsFile, t.registry); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	return errors.Join(errs...)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
