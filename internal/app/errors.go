package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrJobNotFound    = errors.New("sync job not found")
	ErrSyncInProgress = errors.New("sync already in progress")
	ErrQueueFull      = errors.New("sync queue full")
	ErrNoLibrary      = errors.New("library source not configured")
	ErrInvalidInput   = errors.New("invalid input")
)
