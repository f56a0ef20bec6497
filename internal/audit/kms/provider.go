// Package kms sources the HMAC key for Cherub's audit integrity chain
// (internal/audit.IntegrityChain) from a local key source: a file on disk
// or an environment variable. Cherub runs as a single-host local-operator
// daemon (original_source has no key-management layer of its own, let
// alone a multi-cloud one), so the provider abstraction exists to keep
// internal/audit decoupled from where the key actually comes from, not to
// front a catalogue of cloud KMS backends no deployment here would reach.
package kms

import (
	"context"
	"errors"
	"fmt"
)

// Provider abstracts key retrieval so internal/audit.IntegrityChain never
// has to know whether its key came from a file or the environment.
type Provider interface {
	// Name returns the provider identifier (for logging).
	Name() string

	// GetKey retrieves the HMAC key.
	GetKey(ctx context.Context) ([]byte, error)

	// Close releases any resources held by the provider.
	Close() error
}

// Config selects and configures the key source.
type Config struct {
	// Source specifies the key source: "file" or "env". Empty uses KeyFile
	// when it is set, otherwise KeyEnv.
	Source string

	KeyFile string
	KeyEnv  string
}

// ErrKeyNotFound indicates the key was not found at the configured source.
var ErrKeyNotFound = errors.New("key not found")

// NewProvider builds a Provider from cfg.
func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Source {
	case "file":
		return NewFileProvider(cfg.KeyFile, "")
	case "env":
		return NewFileProvider("", cfg.KeyEnv)
	case "":
		return NewFileProvider(cfg.KeyFile, cfg.KeyEnv)
	default:
		return nil, fmt.Errorf("unknown key source: %s", cfg.Source)
	}
}
