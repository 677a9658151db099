// Package observe provides telemetry for health probes and report
// evaluations: zerolog structured logging, OpenTelemetry spans per probe,
// and probe/report metrics.
//
// It is a pure instrumentation library. Probes are instrumented by plugging
// Middleware.WrapChecker into health.RunnerConfig.Middleware, and reports by
// registering ReportRecorder.Observer with health.WithReportObserver.
package observe
