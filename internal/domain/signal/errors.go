package signal

import "errors"

// Sentinel errors returned by providers.
var (
	// ErrNoMatch means the source has no entry for the requested key.
	ErrNoMatch = errors.New("no match")
	// ErrNoData means an entry was found but carried no usable values.
	ErrNoData = errors.New("no data")
)
