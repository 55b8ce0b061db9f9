// Package queue defines the contract for buffering snapshot save requests
// between the mutation path and the persistence workers.
//
// Implementations may use channels or more advanced structures. The engine
// starts with an in-memory bounded queue.
package queue

import (
	"context"
	"sync"

	"github.com/tonuslab/tonus/internal/domain/model"
	"github.com/tonuslab/tonus/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 10000
	defaultBufferSize    = 10000
)

// SaveRequest represents the payload type flowing through the queue.
// Using the model.SaveRequest type for type safety.
type SaveRequest = model.SaveRequest

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a save request to the queue.
	// Returns false if the queue is full and the request was not enqueued.
	Enqueue(ctx context.Context, req SaveRequest) bool

	// Dequeue returns a channel that will receive requests as they become
	// available. The channel will be closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan SaveRequest

	// Len returns the current number of queued requests.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue.
	// After closing, no new requests can be enqueued and the dequeue channel
	// will be closed.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	requests   chan SaveRequest
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

	q.requests = make(chan SaveRequest, q.bufferSize)

	metrics.UpdateSaveQueueCapacity(q.capacity)
	metrics.UpdateSaveQueueSize(0)
	metrics.UpdateSaveQueueUtilization(0.0)

	return q
}

// Enqueue adds a save request to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, req SaveRequest) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordSaveDropped()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	if len(q.requests) >= q.capacity {
		metrics.RecordSaveDropped()
		metrics.RecordErrorByComponent("queue", "capacity_exceeded")
		return false
	}

	select {
	case q.requests <- req:
		metrics.RecordSaveEnqueued()
		currentSize := len(q.requests)
		metrics.UpdateSaveQueueSize(currentSize)
		metrics.UpdateSaveQueueUtilization(float64(currentSize) / float64(q.capacity))
		return true
	case <-ctx.Done():
		metrics.RecordSaveDropped()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordSaveDropped()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel that will receive requests as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan SaveRequest {
	// Wrap the channel to track dequeue metrics
	dequeueChan := make(chan SaveRequest)
	go func() {
		defer close(dequeueChan)
		for req := range q.requests {
			select {
			case dequeueChan <- req:
				metrics.RecordSaveDequeued()
				currentSize := len(q.requests)
				metrics.UpdateSaveQueueSize(currentSize)
				metrics.UpdateSaveQueueUtilization(float64(currentSize) / float64(q.capacity))
			case <-ctx.Done():
				return
			}
		}
	}()
	return dequeueChan
}

// Len returns the current number of queued requests.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.requests)
	metrics.UpdateSaveQueueSize(size)
	metrics.UpdateSaveQueueUtilization(float64(size) / float64(q.capacity))
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil // already closed
	}

	// Close the requests channel to signal consumers to stop
	close(q.requests)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
