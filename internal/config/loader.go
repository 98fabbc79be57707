package config

import (
	"context"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if DSA_CONFIG is set
//  3. env (prefix DSA_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("DSA_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, wrapLoad(err)
		}
	}

	// Environment variables: DSA_ADDR, DSA_JWT_SECRET, ...
	// Map env keys like DSA_TX_RETRY_ATTEMPTS -> tx_retry_attempts (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("DSA_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "dsa_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, wrapLoad(err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, wrapLoad(err)
	}

	// Basic validation
	switch {
	case cfg.Addr == "":
		return nil, ErrEmptyAddr
	case cfg.TxRetryAttempts < 1:
		return nil, ErrInvalidRetries
	case cfg.PendingTTLSeconds < 1 || cfg.SweepIntervalSeconds < 1:
		return nil, ErrInvalidSweep
	}
	return &cfg, nil
}
