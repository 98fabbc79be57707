// Package dedupe defines the interface for idempotency tracking.
//
// The ingestion service uses it as a fast path in front of the datastore's
// unique-key check: a hit means the same logical event was already applied in
// this process and the transaction can be skipped entirely.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen event keys to suppress duplicate application.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord removes a key from the seen set, allowing a retry. Used when
	// an event was marked seen but failed to be applied.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// Key builds the idempotency cache key for an owner-scoped external id.
func Key(owner, externalID string) string {
	return owner + "/" + externalID
}

// inMemoryDeduper implements Deduper with a bounded FIFO of seen keys.
// When the bound is reached the oldest key is evicted; eviction only widens
// the window for the datastore check to catch, never loses correctness.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string // insertion order for eviction
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50_000,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{}, d.maxSize)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(ctx context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[key]; exists {
		return true
	}

	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		oldest := d.order[0]
		d.order = d.order[1:]
		delete(d.seen, oldest)
		d.size.Add(-1)
	}

	d.seen[key] = struct{}{}
	d.order = append(d.order, key)
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(ctx context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[key]; !exists {
		return
	}
	delete(d.seen, key)
	for i, k := range d.order {
		if k == key {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	d.size.Add(-1)
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
