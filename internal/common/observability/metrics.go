package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Observability bundles the OpenTelemetry meter and tracer used by the
// telehealth pipeline. The zero value is usable and records nothing.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer

	jobCounter   otelmetric.Int64Counter
	jobDuration  otelmetric.Float64Histogram
	turnCounter  otelmetric.Int64Counter
	turnDuration otelmetric.Float64Histogram
	retryCounter otelmetric.Int64Counter
}

// Option customizes New.
type Option func(*options)

type options struct {
	spanProcessors []sdktrace.SpanProcessor
	tracing        bool
}

// WithTracing enables the SDK tracer provider.
func WithTracing(enabled bool) Option {
	return func(o *options) { o.tracing = enabled }
}

// WithSpanProcessor registers a processor (exporter or recorder) on the
// tracer provider and implies WithTracing(true).
func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(o *options) {
		o.tracing = true
		o.spanProcessors = append(o.spanProcessors, sp)
	}
}

func New(serviceName string, opts ...Option) *Observability {
	var cfg options
	for _, opt := range opts {
		opt(&cfg)
	}

	o := &Observability{}

	if exporter, err := prometheus.New(); err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
	} else {
		o.meterProvider = metric.NewMeterProvider(metric.WithReader(exporter))
		otel.SetMeterProvider(o.meterProvider)
		o.initInstruments(o.meterProvider.Meter(serviceName))
	}

	if cfg.tracing {
		tpOpts := make([]sdktrace.TracerProviderOption, 0, len(cfg.spanProcessors))
		for _, sp := range cfg.spanProcessors {
			tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(sp))
		}
		o.tracerProvider = sdktrace.NewTracerProvider(tpOpts...)
		otel.SetTracerProvider(o.tracerProvider)
		o.tracer = o.tracerProvider.Tracer(serviceName)
	}

	return o
}

func (o *Observability) initInstruments(meter otelmetric.Meter) {
	o.jobCounter, _ = meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)
	o.jobDuration, _ = meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)
	o.turnCounter, _ = meter.Int64Counter(
		"telehealth.turns",
		otelmetric.WithDescription("Telehealth turns answered, by outcome"),
	)
	o.turnDuration, _ = meter.Float64Histogram(
		"telehealth.turn.duration",
		otelmetric.WithDescription("End-to-end telehealth turn latency"),
		otelmetric.WithUnit("ms"),
	)
	o.retryCounter, _ = meter.Int64Counter(
		"telehealth.retries",
		otelmetric.WithDescription("Quality regenerations, by kept attempt"),
	)
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	if o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

// RecordTurn records one finished telehealth turn.
func (o *Observability) RecordTurn(ctx context.Context, outcome string, duration time.Duration) {
	attrs := otelmetric.WithAttributes(attribute.String("outcome", outcome))
	if o.turnCounter != nil {
		o.turnCounter.Add(ctx, 1, attrs)
	}
	if o.turnDuration != nil {
		o.turnDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

// RecordRetry records a regeneration and which attempt was kept.
func (o *Observability) RecordRetry(ctx context.Context, selected string) {
	if o.retryCounter != nil {
		o.retryCounter.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("selected", selected)))
	}
}

// StartSpan starts a span, or a no-op span when tracing is disabled.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := o.tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
}
