package service

import (
	"time"

	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/adapters/repository"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/domain/dedupe"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the backing store. Defaults to the in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDeduper replaces the idempotency cache.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		if d != nil {
			s.deduper = d
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithRetry sets the transaction retry policy: attempts and backoff base.
func WithRetry(attempts int, base time.Duration) Option {
	return func(s *Service) {
		if attempts > 0 {
			s.retryAttempts = attempts
		}
		if base > 0 {
			s.retryBase = base
		}
	}
}

// WithTxTimeout bounds how long a single transaction attempt may run.
func WithTxTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.txTimeout = d
		}
	}
}

// WithClock injects a time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}
