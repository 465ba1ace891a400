package bus

import (
	"context"
	"errors"
	"sync"

	"main/internal/schema"
)

var (
	ErrQueueFull   = errors.New("report queue full")
	ErrQueueClosed = errors.New("report queue closed")
)

// Queue is a bounded, non-blocking queue of execution reports. Draining it
// with a single Run consumer gives the per-message-handler discipline the
// registries expect.
type Queue struct {
	mu     sync.RWMutex
	ch     chan schema.OrdReport
	closed bool
}

// NewQueue allocates a queue with the given capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{ch: make(chan schema.OrdReport, capacity)}
}

// TryPublish enqueues a report without blocking.
func (q *Queue) TryPublish(report schema.OrdReport) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ch <- report:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops the queue from accepting new reports. Reports already queued
// are still delivered to the consumer.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}

// Run consumes reports until the context is done or the queue is closed
// and drained.
func (q *Queue) Run(ctx context.Context, handler func(schema.OrdReport)) {
	for {
		select {
		case <-ctx.Done():
			return
		case report, ok := <-q.ch:
			if !ok {
				return
			}
			handler(report)
		}
	}
}
