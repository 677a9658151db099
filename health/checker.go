package health

import (
	"context"
	"time"
)

// Result contains the outcome of a health check.
type Result struct {
	// Status is the health status.
	Status Status

	// Description provides additional context about the status.
	Description string

	// Data is the probe payload. Node values become nested subsystems in the
	// report; a "Version" value becomes the subsystem's version; anything else
	// is kept as an opaque attribute, rendered only with WithAttributes.
	Data Data

	// Duration is how long the check took.
	Duration time.Duration

	// Timestamp is when the check was performed.
	Timestamp time.Time

	// Error is the error if the check failed.
	Error error
}

// Healthy creates a healthy result.
func Healthy(description string) Result {
	return Result{
		Status:      StatusHealthy,
		Description: description,
		Timestamp:   time.Now(),
	}
}

// Degraded creates a degraded result.
func Degraded(description string) Result {
	return Result{
		Status:      StatusDegraded,
		Description: description,
		Timestamp:   time.Now(),
	}
}

// Unhealthy creates an unhealthy result.
func Unhealthy(description string, err error) Result {
	return Result{
		Status:      StatusUnhealthy,
		Description: description,
		Error:       err,
		Timestamp:   time.Now(),
	}
}

// WithData sets the payload on a result.
func (r Result) WithData(data Data) Result {
	r.Data = data
	return r
}

// WithField appends or replaces one payload field.
func (r Result) WithField(key string, value any) Result {
	r.Data = r.Data.With(key, value)
	return r
}

// WithDuration sets the duration on a result.
func (r Result) WithDuration(d time.Duration) Result {
	r.Duration = d
	return r
}

// Checker is the interface for health checks.
type Checker interface {
	// Name returns the name of this checker.
	Name() string

	// Check performs the health check and returns the result.
	Check(ctx context.Context) Result
}

// CheckerFunc is an adapter to allow ordinary functions to be used as Checkers.
type CheckerFunc struct {
	name string
	fn   func(context.Context) Result
}

// NewCheckerFunc creates a new CheckerFunc.
func NewCheckerFunc(name string, fn func(context.Context) Result) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

// Name returns the name of this checker.
func (f *CheckerFunc) Name() string {
	return f.name
}

// Check performs the health check.
func (f *CheckerFunc) Check(ctx context.Context) Result {
	return f.fn(ctx)
}
