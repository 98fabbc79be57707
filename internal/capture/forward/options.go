package forward

import (
	"net/http"

	"github.com/Ayush-Panwar/dsa-tracker-sub001/pkg/logger"
)

// Option applies a configuration option to the Forwarder.
type Option func(*Forwarder)

// WithHTTPClient replaces the HTTP client used for delivery.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Forwarder) {
		if client != nil {
			f.client = client
		}
	}
}

// WithBatchSize bounds how many queued events a single sync batch carries.
func WithBatchSize(n int) Option {
	return func(f *Forwarder) {
		if n > 0 {
			f.batchSize = n
		}
	}
}

// WithLogger sets a custom logger for the forwarder.
func WithLogger(log logger.Logger) Option {
	return func(f *Forwarder) {
		if log != nil {
			f.logger = log
		}
	}
}
