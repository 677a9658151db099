package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/healthz/health"
)

// Metrics records probe outcomes.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordProbe records one probe evaluation.
	RecordProbe(ctx context.Context, meta ProbeMeta, status health.Status, duration time.Duration)
}

type metricsImpl struct {
	totalCount     metric.Int64Counter
	unhealthyCount metric.Int64Counter
	durationHist   metric.Float64Histogram
}

// NewMetrics creates probe instruments on the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	return newMetrics(meter)
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	totalCount, err := meter.Int64Counter(
		"health.probe.total",
		metric.WithDescription("Total number of probe evaluations"),
		metric.WithUnit("{probe}"),
	)
	if err != nil {
		return nil, err
	}

	unhealthyCount, err := meter.Int64Counter(
		"health.probe.unhealthy",
		metric.WithDescription("Number of probe evaluations that reported Unhealthy"),
		metric.WithUnit("{probe}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"health.probe.duration_ms",
		metric.WithDescription("Probe duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:     totalCount,
		unhealthyCount: unhealthyCount,
		durationHist:   durationHist,
	}, nil
}

// RecordProbe records metrics for a probe evaluation.
func (m *metricsImpl) RecordProbe(ctx context.Context, meta ProbeMeta, status health.Status, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("probe.id", meta.ProbeID()),
		attribute.String("probe.name", meta.Name),
	}
	if meta.Group != "" {
		attrs = append(attrs, attribute.String("probe.group", meta.Group))
	}
	opt := metric.WithAttributes(attrs...)

	m.totalCount.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("probe.status", status.String()))...))

	if status == health.StatusUnhealthy {
		m.unhealthyCount.Add(ctx, 1, opt)
	}

	m.durationHist.Record(ctx, float64(duration)/float64(time.Millisecond), opt)
}

type noopMetrics struct{}

func (m *noopMetrics) RecordProbe(ctx context.Context, meta ProbeMeta, status health.Status, duration time.Duration) {
}
