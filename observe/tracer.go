package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/jonwraymond/healthz/health"
)

// ProbeMeta describes a probe for telemetry purposes.
type ProbeMeta struct {
	Name    string   // Probe name (required)
	Group   string   // Group the probe belongs to (optional)
	Version string   // Probed component version (optional)
	Tags    []string // Free-form tags (optional)
}

// SpanName returns the deterministic span name for this probe.
// Format: health.probe.<group>.<name> or health.probe.<name>
func (m ProbeMeta) SpanName() string {
	return "health.probe." + m.ProbeID()
}

// ProbeID returns the group-qualified probe identifier.
func (m ProbeMeta) ProbeID() string {
	if m.Group != "" {
		return m.Group + "." + m.Name
	}
	return m.Name
}

// Validate reports whether the metadata names a probe.
func (m ProbeMeta) Validate() error {
	if m.Name == "" {
		return ErrMissingProbeName
	}
	return nil
}

// Tracer wraps OpenTelemetry tracing with probe span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan is best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a span for one probe evaluation.
	StartSpan(ctx context.Context, meta ProbeMeta) (context.Context, trace.Span)

	// EndSpan records the probe outcome on the span and ends it.
	EndSpan(span trace.Span, result health.Result)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with probe metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta ProbeMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("probe.id", meta.ProbeID()),
		attribute.String("probe.name", meta.Name),
	}
	if meta.Group != "" {
		attrs = append(attrs, attribute.String("probe.group", meta.Group))
	}
	if meta.Version != "" {
		attrs = append(attrs, attribute.String("probe.version", meta.Version))
	}
	if len(meta.Tags) > 0 {
		attrs = append(attrs, attribute.StringSlice("probe.tags", meta.Tags))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpan ends the span. An unhealthy result marks the span as failed.
func (t *tracerImpl) EndSpan(span trace.Span, result health.Result) {
	span.SetAttributes(attribute.String("probe.status", result.Status.String()))
	if result.Description != "" {
		span.SetAttributes(attribute.String("probe.description", result.Description))
	}

	if result.Status == health.StatusUnhealthy {
		desc := result.Description
		if result.Error != nil {
			span.RecordError(result.Error)
			if desc == "" {
				desc = result.Error.Error()
			}
		}
		span.SetStatus(codes.Error, desc)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta ProbeMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, result health.Result) {
	span.End()
}
