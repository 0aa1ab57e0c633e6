// Package queue is the bounded in-memory queue of dashboard fetch jobs.
package queue

import (
	"context"
	"sync"

	"github.com/okian/paddock/internal/domain/selection"
	"github.com/okian/paddock/pkg/metrics"
)

const defaultQueueCapacity = 64

// Job is the payload flowing through the queue.
type Job = selection.Job

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job. It returns ErrClosed or ErrFull when the job was
	// not queued.
	Enqueue(ctx context.Context, j Job) error

	// Dequeue returns a channel receiving jobs as they become available.
	// The channel is closed when the queue is closed or ctx ends.
	Dequeue(ctx context.Context) <-chan Job

	// Len returns the number of queued jobs.
	Len() int

	// Close stops accepting jobs and closes dequeue channels once drained.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int

	mu      sync.RWMutex
	closed  bool
	orphans []Job
	readers sync.WaitGroup
}

// NewInMemoryQueue creates a new in-memory queue.
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

// Enqueue adds a job without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError("context_cancelled")
		return err
	}

	select {
	case q.jobs <- j:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.jobs))
		return nil
	default:
		metrics.RecordQueueEnqueueError("full")
		return ErrFull
	}
}

// Dequeue returns a channel that receives jobs as they become available.
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
					q.keep(j)
					return
				}
			}
		}
	}()
	return out
}

// keep holds a job taken off the channel but never handed to a consumer.
func (q *InMemoryQueue) keep(j Job) {
	q.mu.Lock()
	q.orphans = append(q.orphans, j)
	q.mu.Unlock()
}

// Drain removes and returns every job that was queued but never handed to
// a consumer. It waits for the dequeue readers to stop, or for ctx to end,
// and is meant to be called after Close once the consumers are gone.
func (q *InMemoryQueue) Drain(ctx context.Context) []Job {
	done := make(chan struct{})
	go func() {
		q.readers.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}

	q.mu.Lock()
	left := q.orphans
	q.orphans = nil
	q.mu.Unlock()

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

// Len returns the current number of queued jobs.
func (q *InMemoryQueue) Len() int {
	return len(q.jobs)
}

// Capacity returns the configured capacity.
func (q *InMemoryQueue) Capacity() int {
	return q.capacity
}

// Close gracefully shuts down the queue.
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
