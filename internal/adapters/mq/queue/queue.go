// Package queue defines the contract for enqueuing and consuming transcripts.
//
// The in-memory implementation is a bounded channel; Enqueue never blocks so
// callers can report backpressure instead of stalling a request.
package queue

import (
	"context"
	"sync"

	"github.com/okian/diploma/internal/domain/model"
	"github.com/okian/diploma/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 50000
	defaultBufferSize    = 50000
)

// Transcript is the payload type flowing through the queue.
type Transcript = model.Transcript

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a transcript to the queue.
	// Returns false if the queue is full or closed and nothing was enqueued.
	Enqueue(ctx context.Context, t Transcript) bool

	// Dequeue returns a channel that receives transcripts as they become available.
	// The channel is closed when the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Transcript

	// Len returns the current number of queued transcripts.
	Len(ctx context.Context) int

	// Close stops accepting transcripts. Already queued ones can still be dequeued.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items      chan Transcript
	capacity   int
	bufferSize int
	mu         sync.RWMutex
	closed     bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity:   defaultQueueCapacity,
		bufferSize: defaultBufferSize,
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.bufferSize < q.capacity {
		q.bufferSize = q.capacity
	}
	q.items = make(chan Transcript, q.bufferSize)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Capacity returns the configured maximum number of queued transcripts.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Enqueue adds a transcript to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, t Transcript) bool { //nolint:gocritic // hugeParam: passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	if len(q.items) >= q.capacity {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "capacity_exceeded")
		return false
	}

	select {
	case q.items <- t:
		metrics.RecordQueueEnqueue()
		q.observe()
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel that will receive transcripts as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Transcript {
	out := make(chan Transcript)
	go func() {
		defer close(out)
		for t := range q.items {
			select {
			case out <- t:
				metrics.RecordQueueDequeue()
				q.observe()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued transcripts.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return q.observe()
}

func (q *InMemoryQueue) observe() int {
	size := len(q.items)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
	return size
}

// Close stops accepting transcripts.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
