package downstream

import "errors"

var (
	// ErrCircuitOpen is returned while the breaker is rejecting calls.
	ErrCircuitOpen = errors.New("downstream: circuit breaker is open")

	// ErrUnexpectedContentType is returned when the remote answers with
	// something other than JSON.
	ErrUnexpectedContentType = errors.New("downstream: unexpected content type")

	// ErrFetchFailed wraps transport and parse failures.
	ErrFetchFailed = errors.New("downstream: fetch failed")

	// ErrInvalidConfig indicates a client configuration that cannot be used.
	ErrInvalidConfig = errors.New("downstream: invalid config")
)
