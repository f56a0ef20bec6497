package policy

import (
	"fmt"
	"sync/atomic"
)

// Manager holds the live Policy behind an atomic pointer so concurrent
// evaluations always see a consistent snapshot, and reload is a single
// pointer swap rather than an in-place mutation (§5 "Shared resources").
// Grounded on internal/policy/manager.go's Manager, minus its
// manifest-hash distribution-integrity check — Cherub's policy file lives on
// the same host as the process that loads it, so there is no distribution
// channel for a manifest to protect (see DESIGN.md's notes on this package's
// narrowed scope).
type Manager struct {
	path    string
	maxSize int64
	current atomic.Pointer[Policy]
}

// NewManager constructs a Manager and performs its first load. If path is
// empty, the Manager starts (and every subsequent Reload keeps) the
// default-deny Empty policy.
func NewManager(path string, maxSize int64) (*Manager, error) {
	m := &Manager{path: path, maxSize: maxSize}
	if path == "" {
		m.current.Store(Empty())
		return m, nil
	}
	if err := m.Reload(); err != nil {
		return nil, err
	}
	return m, nil
}

// Get returns the currently active Policy. Safe for concurrent use.
func (m *Manager) Get() *Policy {
	p := m.current.Load()
	if p == nil {
		return Empty()
	}
	return p
}

// Reload loads a fresh Policy from the configured path and atomically swaps
// it in. A failed reload leaves the previously active Policy untouched —
// hot-reload either succeeds completely or has no effect.
func (m *Manager) Reload() error {
	if m.path == "" {
		return fmt.Errorf("policy manager: no path configured")
	}
	p, err := LoadFile(m.path, m.maxSize)
	if err != nil {
		return err
	}
	m.current.Store(p)
	return nil
}
