package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig configures a Tracer.
type TracingConfig struct {
	ServiceName    string
	JaegerEndpoint string
}

// Tracer wraps an OpenTelemetry tracer scoped to one traversal span per
// MakeChooser/Close pair.
type Tracer struct {
	tracer trace.Tracer
	tp     *sdktrace.TracerProvider
}

// NewTracer builds a Tracer backed by a Jaeger exporter.
func NewTracer(cfg TracingConfig) (*Tracer, error) {
	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.JaegerEndpoint)))
	if err != nil {
		return nil, fmt.Errorf("create jaeger exporter: %w", err)
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("build resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Tracer{tracer: otel.Tracer(cfg.ServiceName), tp: tp}, nil
}

// StartTraversal opens a span for one MakeChooser/Close pair.
func (t *Tracer) StartTraversal(ctx context.Context, guideKind string, seed int64, traversal int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "guide.traversal", trace.WithAttributes(
		attribute.String("guide.kind", guideKind),
		attribute.Int64("guide.seed", seed),
		attribute.Int("guide.traversal", traversal),
	))
}

// EndTraversal finishes a span with the final depth reached and, on
// violation, the recovered error.
func EndTraversal(span trace.Span, depth int, violation error) {
	span.SetAttributes(attribute.Int("guide.depth", depth))
	if violation != nil {
		span.RecordError(violation)
	}
	span.End()
}

// Shutdown flushes and stops the tracer provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	return t.tp.Shutdown(ctx)
}
