// Package registry holds submissions awaiting a verdict.
//
// The registry is the single shared mutable resource of the capture pipeline:
// the extractor inserts, the correlator consumes, and a periodic sweep evicts
// entries that never reached a verdict. Deletion is the sole terminal
// operation for an entry; whichever path reaches it first wins, and both
// paths are no-ops on an already-absent key.
package registry

import (
	"strconv"
	"sync"
	"time"

	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/domain/model"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/pkg/metrics"
	"github.com/google/uuid"
)

// Default lifecycle constants.
const (
	defaultTTL           = 5 * time.Minute
	defaultSweepInterval = 60 * time.Second
	correlationSuffixLen = 8
)

// Registry is a TTL-bounded map of pending submissions keyed by the
// site-issued submission id.
type Registry struct {
	mu      sync.Mutex
	entries map[string]model.PendingSubmission

	ttl        time.Duration
	sweepEvery time.Duration
	now        func() time.Time

	started  bool
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// New creates a registry with configuration options. Call Start to launch the
// periodic sweep and Stop on page teardown.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries:    make(map[string]model.PendingSubmission),
		ttl:        defaultTTL,
		sweepEvery: defaultSweepInterval,
		now:        time.Now,
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Put inserts or replaces the pending entry for a submission id. At most one
// live entry exists per id.
func (r *Registry) Put(p model.PendingSubmission) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[p.SubmissionID] = p
	metrics.UpdatePendingSize(len(r.entries))
}

// Get returns the live entry for id. Entries past their TTL are never
// matched, even if the sweep has not removed them yet.
func (r *Registry) Get(id string) (model.PendingSubmission, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.entries[id]
	if !ok || r.expired(p) {
		return model.PendingSubmission{}, false
	}
	return p, true
}

// MarkAccepted atomically reads and deletes the entry for id, returning it
// with its terminal status. The read and the delete happen under one lock so
// a concurrent sweep or second poll cannot observe the entry in between.
func (r *Registry) MarkAccepted(id string) (model.PendingSubmission, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.entries[id]
	if !ok || r.expired(p) {
		return model.PendingSubmission{}, false
	}
	delete(r.entries, id)
	metrics.UpdatePendingSize(len(r.entries))
	p.Status = model.PendingStatusAccepted
	return p, true
}

// Sweep deletes all entries older than the TTL relative to now and returns
// how many were removed.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, p := range r.entries {
		if now.Sub(p.CreatedAt) > r.ttl {
			delete(r.entries, id)
			removed++
		}
	}
	if removed > 0 {
		metrics.RecordPendingEvicted(removed)
		metrics.UpdatePendingSize(len(r.entries))
	}
	return removed
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Start launches the periodic sweep. It runs independently of traffic until
// Stop is called.
func (r *Registry) Start() {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.mu.Unlock()

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.sweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-r.stopCh:
				return
			case <-ticker.C:
				r.Sweep(r.now())
			}
		}
	}()
}

// Stop tears down the sweep timer. Safe to call more than once.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		r.mu.Lock()
		started := r.started
		r.mu.Unlock()
		if started {
			<-r.done
		}
	})
}

// expired must be called with r.mu held.
func (r *Registry) expired(p model.PendingSubmission) bool {
	return r.now().Sub(p.CreatedAt) > r.ttl
}

// NewCorrelationID builds a collision-resistant local identifier from the
// capture time and a random suffix. It is independent of the site's own
// submission id, which may be reused.
func NewCorrelationID(now time.Time) string {
	suffix := uuid.NewString()
	if len(suffix) > correlationSuffixLen {
		suffix = suffix[:correlationSuffixLen]
	}
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + suffix
}
