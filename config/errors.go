package config

import "errors"

var (
	// ErrInvalidConfig indicates a configuration value failed validation.
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrLoad indicates the file could not be read or decoded.
	ErrLoad = errors.New("config: load failed")
)
