package health

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Status represents the health status of a component.
//
// The declared order is significant: a parent is never healthier than the
// worst of its children.
type Status int

const (
	// StatusHealthy indicates the component is functioning normally.
	StatusHealthy Status = iota
	// StatusDegraded indicates the component is functioning but with issues.
	StatusDegraded
	// StatusUnhealthy indicates the component is not functioning properly.
	StatusUnhealthy
)

// String returns the symbolic name used on the wire.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "Healthy"
	case StatusDegraded:
		return "Degraded"
	case StatusUnhealthy:
		return "Unhealthy"
	default:
		return "Unknown"
	}
}

// Valid reports whether s is one of the declared statuses.
func (s Status) Valid() bool {
	return s >= StatusHealthy && s <= StatusUnhealthy
}

// ParseStatus parses a symbolic status name (case-insensitive) or its
// decimal ordinal.
func ParseStatus(token string) (Status, error) {
	t := strings.TrimSpace(token)
	switch strings.ToLower(t) {
	case "healthy":
		return StatusHealthy, nil
	case "degraded":
		return StatusDegraded, nil
	case "unhealthy":
		return StatusUnhealthy, nil
	}

	if n, err := strconv.Atoi(t); err == nil {
		if s := Status(n); s.Valid() {
			return s, nil
		}
	}

	return 0, fmt.Errorf("%w: unrecognized status %q", ErrMalformedReport, token)
}

// MarshalJSON renders the symbolic name.
func (s Status) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: invalid status %d", ErrMalformedReport, int(s))
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts a symbolic name, a quoted ordinal or a bare integer ordinal.
func (s *Status) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var token string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &token); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedReport, err)
		}
	} else {
		token = string(data)
	}

	parsed, err := ParseStatus(token)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Worst returns the least healthy of the given statuses, or StatusHealthy
// when none are given.
func Worst(statuses ...Status) Status {
	worst := StatusHealthy
	for _, s := range statuses {
		if s > worst {
			worst = s
		}
	}
	return worst
}
