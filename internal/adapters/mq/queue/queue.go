// Package queue holds pending library sync jobs.
package queue

import (
	"context"
	"sync"

	"github.com/steamcompass/compass/internal/domain/model"
	"github.com/steamcompass/compass/pkg/metrics"
)

const defaultQueueCapacity = 64

// Job is the payload flowing through the queue.
type Job = model.SyncJob

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job. It returns ErrFull when no slot is free and
	// ErrClosed after Close.
	Enqueue(ctx context.Context, j Job) error

	// Dequeue returns a channel that receives jobs as they become available.
	// The channel is closed when the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Job

	// Len returns the number of pending jobs.
	Len(ctx context.Context) int

	// Drain returns the jobs no reader delivered. It is meant for after
	// Close and waits for the readers to stop until ctx ends.
	Drain(ctx context.Context) []Job

	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int
	mu       sync.RWMutex
	closed   bool

	readers sync.WaitGroup
	heldMu  sync.Mutex
	held    []Job
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a job to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) error { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return err
	}

	select {
	case q.jobs <- j:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.jobs))
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// Dequeue returns a channel that will receive jobs as they become available.
// A job taken off the buffer but not delivered before ctx ends is kept for
// Drain.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Job {
	out := make(chan Job)
	q.readers.Add(1)
	go func() {
		defer q.readers.Done()
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case j, ok := <-q.jobs:
				if !ok {
					return
				}
				select {
				case out <- j:
					metrics.RecordQueueDequeue()
					metrics.UpdateQueueSize(len(q.jobs))
				case <-ctx.Done():
					q.hold(j)
					return
				}
			}
		}
	}()
	return out
}

func (q *InMemoryQueue) hold(j Job) { //nolint:gocritic // hugeParam
	q.heldMu.Lock()
	q.held = append(q.held, j)
	q.heldMu.Unlock()
}

// Drain waits for the readers to stop, or for ctx to end, and returns the
// held jobs followed by the ones still buffered. An open queue drains nothing.
func (q *InMemoryQueue) Drain(ctx context.Context) []Job {
	if !q.IsClosed() {
		return nil
	}

	stopped := make(chan struct{})
	go func() {
		q.readers.Wait()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
	}

	q.heldMu.Lock()
	left := q.held
	q.held = nil
	q.heldMu.Unlock()

	for {
		select {
		case j, ok := <-q.jobs:
			if !ok {
				metrics.UpdateQueueSize(0)
				return left
			}
			left = append(left, j)
		default:
			metrics.UpdateQueueSize(len(q.jobs))
			return left
		}
	}
}

// Len returns the number of pending jobs.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.jobs)
	metrics.UpdateQueueSize(size)
	return size
}

// Close stops accepting jobs; pending jobs can still be drained.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
