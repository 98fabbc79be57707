package config

import (
	"errors"
	"fmt"
)

// Sentinel kinds for configuration errors.
var (
	ErrEmptyAddr      = errors.New("addr must not be empty")
	ErrInvalidRetries = errors.New("tx_retry_attempts must be at least 1")
	ErrInvalidSweep   = errors.New("pending_ttl_seconds and sweep_interval_seconds must be positive")
)

// wrapLoad wraps provider/unmarshal failures with a stable prefix.
func wrapLoad(err error) error {
	return fmt.Errorf("config load: %w", err)
}
