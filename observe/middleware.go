package observe

import (
	"context"
	"time"

	"github.com/jonwraymond/healthz/health"
)

// Middleware wraps probes with observability (tracing, metrics, logging).
//
// Contract:
//   - Concurrency: WrapChecker returns a checker safe for concurrent use if the
//     wrapped checker is.
//   - Context: the probe runs under the span's context.
//   - Ownership: results pass through unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
	group   string
}

// NewMiddleware creates a new Middleware with the given observability components.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = &noopMetrics{}
	}
	if logger == nil {
		logger = &noopLogger{}
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// WithGroup returns a copy of m that tags every probe with group.
func (m *Middleware) WithGroup(group string) *Middleware {
	cp := *m
	cp.group = group
	return &cp
}

// WrapChecker wraps a checker with tracing, metrics, and logging. Its
// signature matches health.RunnerConfig.Middleware.
func (m *Middleware) WrapChecker(c health.Checker) health.Checker {
	return &observedChecker{inner: c, mw: m}
}

type observedChecker struct {
	inner health.Checker
	mw    *Middleware
}

func (c *observedChecker) Name() string {
	return c.inner.Name()
}

func (c *observedChecker) Check(ctx context.Context) health.Result {
	m := c.mw
	meta := ProbeMeta{Name: c.inner.Name(), Group: m.group}

	ctx, span := m.tracer.StartSpan(ctx, meta)
	start := time.Now()

	result := c.inner.Check(ctx)

	duration := time.Since(start)
	if result.Duration == 0 {
		result.Duration = duration
	}
	if v, ok := result.Data.Get(health.VersionKey); ok {
		if s, ok := v.(string); ok {
			meta.Version = s
		}
	}

	m.tracer.EndSpan(span, result)
	m.metrics.RecordProbe(ctx, meta, result.Status, duration)

	fields := []Field{
		{Key: "status", Value: result.Status.String()},
		{Key: "duration_ms", Value: float64(duration) / float64(time.Millisecond)},
	}
	if result.Description != "" {
		fields = append(fields, Field{Key: "description", Value: result.Description})
	}

	logger := m.logger.WithProbe(meta)
	switch result.Status {
	case health.StatusHealthy:
		logger.Debug(ctx, "probe completed", fields...)
	case health.StatusDegraded:
		logger.Warn(ctx, "probe degraded", fields...)
	default:
		if result.Error != nil {
			fields = append(fields, Field{Key: "error", Value: result.Error})
		}
		logger.Error(ctx, "probe unhealthy", fields...)
	}

	return result
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
