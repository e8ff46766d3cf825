package config

import "errors"

// Sentinel errors; Load and Validate wrap them so callers can use errors.Is.
var (
	// ErrInvalidConfig reports a value that fails validation.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig reports an unreadable file, env or decode failure.
	ErrLoadConfig = errors.New("load config failed")
)
