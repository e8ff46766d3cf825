package probe

import "time"

// Defaults applied to zero Config fields.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultPollInterval = 2 * time.Second
	DefaultTop          = 10

	maxResponseBytes = 8 << 20
)
