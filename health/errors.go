package health

import (
	"errors"
	"fmt"
)

var (
	// ErrCheckFailed indicates a health check failed.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout indicates a health check timed out.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound indicates a checker was not found.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrNoCheckers indicates no checkers are registered.
	ErrNoCheckers = errors.New("health: no checkers registered")

	// ErrMalformedReport indicates a report document or status token could not be understood.
	ErrMalformedReport = errors.New("health: malformed report")

	// ErrInvalidKey indicates an empty node key.
	ErrInvalidKey = errors.New("health: invalid key")

	// ErrDuplicateKey indicates two siblings share a key.
	ErrDuplicateKey = errors.New("health: duplicate key")

	// ErrReservedKey indicates a child named "Version" on a node that carries a version.
	ErrReservedKey = errors.New("health: reserved key")
)

var errNestingTooDeep = errors.New("exceeded max nesting depth")

// MalformedReportError reports the node at which a document stopped making sense.
// Path is the dotted JSON path of the offending node ("" for the root).
type MalformedReportError struct {
	Path  string
	Token string
	Err   error
}

func (e *MalformedReportError) Error() string {
	where := e.Path
	if where == "" {
		where = "<root>"
	}
	if e.Err != nil {
		return fmt.Sprintf("health: malformed report at %s: %v", where, e.Err)
	}
	return fmt.Sprintf("health: malformed report at %s: unrecognized status %q", where, e.Token)
}

// Unwrap makes errors.Is(err, ErrMalformedReport) hold.
func (e *MalformedReportError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformedReport, e.Err}
	}
	return []error{ErrMalformedReport}
}
