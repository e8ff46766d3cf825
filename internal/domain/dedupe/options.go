package dedupe

// Option applies a configuration option to the in-memory guard.
type Option func(*inMemoryDeduper)

// WithMaxSize caps how many keys may be in flight at once. Once full, new keys
// are refused as if already in flight. maxSize <= 0 means no cap.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}
