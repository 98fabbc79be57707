package registry

import "time"

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithTTL overrides how long an unmatched entry stays live.
func WithTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithSweepInterval overrides the periodic sweep cadence.
func WithSweepInterval(interval time.Duration) Option {
	return func(r *Registry) {
		if interval > 0 {
			r.sweepEvery = interval
		}
	}
}

// WithClock injects a time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}
