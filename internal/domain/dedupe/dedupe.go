// Package dedupe guards against running the same keyed work twice at once.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper tracks keys whose work is in flight.
type Deduper interface {
	// SeenAndRecord atomically reports whether id is already in flight and
	// records it when it is not. A true result means the caller must not start.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord releases id once its work finished or could not be started.
	Unrecord(ctx context.Context, id string)

	// Size is the number of keys in flight.
	Size() int64
}

type inMemoryDeduper struct {
	mu      sync.Mutex
	active  map[string]struct{}
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates an in-memory guard.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		active: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.active[id]; exists {
		return true
	}
	if d.maxSize > 0 && len(d.active) >= d.maxSize {
		return true
	}
	d.active[id] = struct{}{}
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.active[id]; exists {
		delete(d.active, id)
		d.size.Add(-1)
	}
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
