// Package health builds, renders and parses tree-shaped service health reports.
//
// A report is a tree of Node values: the service at the root and one child
// per probe, possibly with further nesting when a probe's payload carries
// another report (a downstream service, or a group of probes). A parent is
// never healthier than the worst node beneath it.
//
// # Core Concepts
//
// Status is an ordered enumeration: Healthy < Degraded < Unhealthy.
// A Checker produces a Result; a Runner executes registered checkers and
// hands a flat list of ProbeResult values to a ReportBuilder, which
// assembles and aggregates the tree. Render and Parse convert a tree to and
// from its JSON wire form.
//
// # Basic Usage
//
//	runner := health.NewRunner()
//	runner.Register("memory", health.NewMemoryChecker(health.MemoryCheckerConfig{}))
//	runner.Register("database", dbChecker)
//
//	builder := health.NewReportBuilder("orders", "order service",
//	    health.WithVersion(health.BuildVersion()))
//
//	report := runner.Report(ctx, builder)
//	body, err := health.Render(report)
//
// # Wire Format
//
//	{
//	  "status": "Unhealthy",
//	  "key": "orders",
//	  "results": {
//	    "database": {"status": "Unhealthy", "description": "timeout"},
//	    "cache": {"status": "Healthy"},
//	    "Version": "1.2.3"
//	  }
//	}
//
// "results" (at the root) and "data" (below it) hold a node's payload view:
// its children, opaque probe attributes when WithAttributes is given, and
// its version under the reserved "Version" key. Parse accepts integer status
// ordinals as well as names, and turns payload members that are not reports
// into the missing sentinel.
//
// # HTTP Endpoints
//
//	health.RegisterHandlers(mux, runner, builder)
//
// registers /livez, /readyz, /healthz and /healthz/{name}.
package health
