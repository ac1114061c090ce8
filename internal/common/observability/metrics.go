// Package observability sets up the OpenTelemetry meter and tracer used by
// the workers. Meter instruments are exported through the Prometheus
// registry served on /metrics.
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"cropsense-workers/internal/common/logger"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer

	jobCounter      otelmetric.Int64Counter
	jobDuration     otelmetric.Float64Histogram
	forecastChange  otelmetric.Float64Histogram
	recommendProfit otelmetric.Float64Histogram
}

// New wires the Prometheus exporter. On exporter failure it falls back to a
// provider without readers so recording stays safe.
func New(serviceName string, log logger.Logger) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("prometheus exporter unavailable", map[string]interface{}{"error": err.Error()})
		return NewWithReader(serviceName)
	}
	return NewWithReader(serviceName, exporter)
}

// NewWithReader builds the providers around the given metric readers.
func NewWithReader(serviceName string, readers ...metric.Reader) *Observability {
	opts := make([]metric.Option, 0, len(readers))
	for _, r := range readers {
		opts = append(opts, metric.WithReader(r))
	}
	provider := metric.NewMeterProvider(opts...)
	otel.SetMeterProvider(provider)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.1))))
	otel.SetTracerProvider(tp)

	meter := provider.Meter(serviceName)

	jobCounter, _ := meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)
	jobDuration, _ := meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)
	forecastChange, _ := meter.Float64Histogram(
		"forecast.pct_change",
		otelmetric.WithDescription("Forecast percentage change over the horizon"),
		otelmetric.WithUnit("%"),
	)
	recommendProfit, _ := meter.Float64Histogram(
		"recommendation.estimated_profit",
		otelmetric.WithDescription("Estimated extra profit of the top mandi over the base price"),
		otelmetric.WithUnit("INR"),
	)

	return &Observability{
		meterProvider:   provider,
		tracerProvider:  tp,
		tracer:          tp.Tracer(serviceName),
		jobCounter:      jobCounter,
		jobDuration:     jobDuration,
		forecastChange:  forecastChange,
		recommendProfit: recommendProfit,
	}
}

func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if o == nil || o.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o == nil || o.jobCounter == nil {
		return
	}
	o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	if o == nil || o.jobDuration == nil {
		return
	}
	o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

func (o *Observability) RecordForecast(ctx context.Context, cropKey, trend string, pctChange float64) {
	if o == nil || o.forecastChange == nil {
		return
	}
	o.forecastChange.Record(ctx, pctChange, otelmetric.WithAttributes(
		attribute.String("crop", cropKey),
		attribute.String("trend", trend),
	))
}

func (o *Observability) RecordRecommendation(ctx context.Context, cropKey string, profit float64) {
	if o == nil || o.recommendProfit == nil {
		return
	}
	o.recommendProfit.Record(ctx, profit, otelmetric.WithAttributes(
		attribute.String("crop", cropKey),
	))
}

func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
}
