// Package bus carries correlation events from the capture layer to whoever
// forwards them.
//
// Publishing is non-blocking: a full or closed bus drops the event and
// reports false, because emission failure must never surface to the page's
// network call.
package bus

import (
	"context"
	"sync"

	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/domain/model"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/pkg/metrics"
)

// Default bus configuration constants.
const defaultCapacity = 1024

// Event is the payload type flowing through the bus.
type Event = model.CorrelationEvent

// Bus provides non-blocking publish and channel-based subscribe semantics.
type Bus interface {
	// Publish adds an event to the bus.
	// Returns false if the bus is full or closed and the event was dropped.
	Publish(ctx context.Context, e Event) bool

	// Subscribe returns a channel that receives events as they are published.
	// The channel is closed when the bus is closed.
	Subscribe(ctx context.Context) <-chan Event

	// Len returns the current number of buffered events.
	Len() int

	// Close shuts the bus down. After closing, publishes are dropped and the
	// subscribe channel is closed.
	Close() error
}

// InMemoryBus implements Bus using a buffered channel.
type InMemoryBus struct {
	events   chan Event
	capacity int

	mu     sync.RWMutex
	closed bool
}

// New creates an in-memory bus with configuration options.
func New(opts ...Option) *InMemoryBus {
	b := &InMemoryBus{
		capacity: defaultCapacity,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.events = make(chan Event, b.capacity)
	return b
}

// Publish adds an event to the bus without blocking.
func (b *InMemoryBus) Publish(ctx context.Context, e Event) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		metrics.RecordEmitFailure()
		return false
	}

	select {
	case b.events <- e:
		metrics.RecordEventEmitted()
		return true
	case <-ctx.Done():
		metrics.RecordEmitFailure()
		return false
	default:
		metrics.RecordEmitFailure()
		return false // bus is full
	}
}

// Subscribe returns the receiving end of the bus.
func (b *InMemoryBus) Subscribe(ctx context.Context) <-chan Event {
	return b.events
}

// Len returns the current number of buffered events.
func (b *InMemoryBus) Len() int {
	return len(b.events)
}

// Close shuts the bus down. Safe to call once.
func (b *InMemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	close(b.events)
	b.closed = true
	return nil
}
