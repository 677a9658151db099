package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// RunnerConfig configures the check runner.
type RunnerConfig struct {
	// Timeout is the maximum time to wait for all checks.
	// Default: 10 seconds
	Timeout time.Duration

	// Parallel runs health checks in parallel when true.
	// Default: true
	Parallel bool

	// MaxConcurrency caps the number of checks running at once when Parallel
	// is set. Zero means no cap.
	MaxConcurrency int

	// Middleware wraps every checker at registration, e.g. for telemetry.
	Middleware func(Checker) Checker
}

// Runner executes registered checkers and hands their results to a
// ReportBuilder. It is the only place where probes run concurrently.
type Runner struct {
	config   RunnerConfig
	mu       sync.RWMutex
	checkers map[string]Checker
	order    []string // Maintains registration order
}

// NewRunner creates a new check runner.
func NewRunner(config ...RunnerConfig) *Runner {
	cfg := RunnerConfig{
		Timeout:  10 * time.Second,
		Parallel: true,
	}
	if len(config) > 0 {
		cfg = config[0]
		if cfg.Timeout <= 0 {
			cfg.Timeout = 10 * time.Second
		}
		if cfg.MaxConcurrency < 0 {
			cfg.MaxConcurrency = 0
		}
	}

	return &Runner{
		config:   cfg,
		checkers: make(map[string]Checker),
		order:    make([]string, 0),
	}
}

// Register adds a health checker under name. Registering an existing name
// replaces the checker but keeps its position.
func (r *Runner) Register(name string, checker Checker) {
	if r.config.Middleware != nil {
		checker = r.config.Middleware(checker)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.checkers[name]; !exists {
		r.order = append(r.order, name)
	}
	r.checkers[name] = checker
}

// Unregister removes a health checker.
func (r *Runner) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.checkers, name)

	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// CheckerNames returns the names of all registered checkers in registration order.
func (r *Runner) CheckerNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Check runs a single named health check.
func (r *Runner) Check(ctx context.Context, name string) (Result, error) {
	r.mu.RLock()
	checker, ok := r.checkers[name]
	r.mu.RUnlock()

	if !ok {
		return Result{}, ErrCheckerNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	return runCheck(ctx, checker), nil
}

// CheckAll runs every registered check and returns the results in
// registration order. A failing, slow or panicking check never aborts the
// run; it is reported as Unhealthy.
func (r *Runner) CheckAll(ctx context.Context) []ProbeResult {
	r.mu.RLock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	checkers := make([]Checker, len(names))
	for i, name := range names {
		checkers[i] = r.checkers[name]
	}
	r.mu.RUnlock()

	if len(checkers) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	results := make([]ProbeResult, len(checkers))

	if r.config.Parallel {
		// Each slot is written by exactly one goroutine.
		var g errgroup.Group
		if r.config.MaxConcurrency > 0 {
			g.SetLimit(r.config.MaxConcurrency)
		}
		for i := range checkers {
			g.Go(func() error {
				results[i] = runCheck(ctx, checkers[i]).Probe(names[i])
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range checkers {
			results[i] = runCheck(ctx, checkers[i]).Probe(names[i])
		}
	}

	return results
}

// Report runs every check and builds the report tree.
func (r *Runner) Report(ctx context.Context, b *ReportBuilder) *Node {
	return b.Build(r.CheckAll(ctx))
}

func runCheck(ctx context.Context, checker Checker) Result {
	start := time.Now()

	resultCh := make(chan Result, 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				resultCh <- Unhealthy(fmt.Sprintf("check panicked: %v", p), ErrCheckFailed)
			}
		}()
		result := checker.Check(ctx)
		result.Duration = time.Since(start)
		if result.Timestamp.IsZero() {
			result.Timestamp = start
		}
		resultCh <- result
	}()

	select {
	case result := <-resultCh:
		return result
	case <-ctx.Done():
		return Result{
			Status:      StatusUnhealthy,
			Description: "check timed out",
			Error:       ErrCheckTimeout,
			Duration:    time.Since(start),
			Timestamp:   start,
		}
	}
}

// Checker exposes the runner as a single checker whose result nests the
// runner's own report, so a group of probes appears as one subsystem.
func (r *Runner) Checker(key, description string) Checker {
	return &runnerChecker{
		runner:  r,
		builder: NewReportBuilder(key, description),
	}
}

type runnerChecker struct {
	runner  *Runner
	builder *ReportBuilder
}

func (c *runnerChecker) Name() string {
	return c.builder.Key()
}

func (c *runnerChecker) Check(ctx context.Context) Result {
	report := c.runner.Report(ctx, c.builder)

	var description string
	switch report.Status {
	case StatusHealthy:
		description = "all checks passed"
	case StatusDegraded:
		description = "some checks degraded"
	case StatusUnhealthy:
		description = "some checks failed"
	}
	if c.builder.description != "" {
		description = c.builder.description + ": " + description
	}

	return Result{
		Status:      report.Status,
		Description: description,
		Data:        report.Payload(),
		Timestamp:   time.Now(),
	}
}
