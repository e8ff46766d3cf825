package sources

import "errors"

// Sentinel errors for source adapters. Missing entries are reported with
// signal.ErrNoMatch and signal.ErrNoData.
var (
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrDecode           = errors.New("decode response")
	ErrPrivateLibrary   = errors.New("library is private or empty")
)
