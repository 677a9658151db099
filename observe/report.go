package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/healthz/health"
)

// ReportRecorder counts report evaluations by root status and logs each one.
type ReportRecorder struct {
	total  metric.Int64Counter
	nodes  metric.Int64Histogram
	logger Logger
}

// NewReportRecorder creates a recorder on the given meter.
func NewReportRecorder(meter metric.Meter, logger Logger) (*ReportRecorder, error) {
	total, err := meter.Int64Counter(
		"health.report.total",
		metric.WithDescription("Total number of report evaluations"),
		metric.WithUnit("{report}"),
	)
	if err != nil {
		return nil, err
	}

	nodes, err := meter.Int64Histogram(
		"health.report.nodes",
		metric.WithDescription("Number of nodes in an evaluated report"),
		metric.WithUnit("{node}"),
	)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = &noopLogger{}
	}
	return &ReportRecorder{total: total, nodes: nodes, logger: logger}, nil
}

// Record records one evaluated report.
func (r *ReportRecorder) Record(ctx context.Context, id string, report *health.Node) {
	if report == nil {
		return
	}

	count := 0
	for range report.All() {
		count++
	}

	r.total.Add(ctx, 1, metric.WithAttributes(
		attribute.String("report.key", report.Key),
		attribute.String("report.status", report.Status.String()),
	))
	r.nodes.Record(ctx, int64(count), metric.WithAttributes(
		attribute.String("report.key", report.Key),
	))

	fields := []Field{
		{Key: "report_id", Value: id},
		{Key: "status", Value: report.Status.String()},
		{Key: "summary", Value: report.Summary()},
	}
	if report.Status == health.StatusUnhealthy {
		r.logger.Warn(ctx, "health report unhealthy", fields...)
		return
	}
	r.logger.Debug(ctx, "health report evaluated", fields...)
}

// Observer adapts the recorder for health.WithReportObserver.
func (r *ReportRecorder) Observer() health.ReportObserver {
	return r.Record
}
