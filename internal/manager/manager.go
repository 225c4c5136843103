package manager

import (
	"sync"
	"time"

	"chatd/internal/engine"
)

// Manager owns the lifecycle of a single model: artifact, handle, state.
type Manager struct {
	cfg Config

	mu       sync.RWMutex
	state    State
	handle   engine.Handle
	path     string
	attempts uint64
	loadedAt time.Time
	lastErr  string

	// initDone is non-nil while an initialization attempt is in flight.
	// Closed when the attempt settles, whichever way.
	initDone chan struct{}
}

// New constructs a Manager in StateUninitialized.
func New(cfg Config) *Manager {
	cfg.normalize()
	return &Manager{cfg: cfg, state: StateUninitialized}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Ready reports whether a live handle is held.
func (m *Manager) Ready() bool {
	return m.State() == StateReady
}

// Handle returns the live engine handle, or a not-ready error.
// Callers must not Close the returned handle; Release owns teardown.
func (m *Manager) Handle() (engine.Handle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != StateReady || m.handle == nil {
		return nil, ErrNotReady()
	}
	return m.handle, nil
}

// Model returns the configured artifact name.
func (m *Manager) Model() string { return m.cfg.Model }

// Snapshot returns a point-in-time view of the lifecycle for status
// reporting.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		State:     m.state,
		ModelName: m.cfg.Model,
		ModelPath: m.path,
		Attempts:  m.attempts,
		LoadedAt:  m.loadedAt,
		LastErr:   m.lastErr,
	}
}

func (m *Manager) publish(typ string, err error) {
	ev := Event{Type: typ, Model: m.cfg.Model, At: time.Now()}
	if err != nil {
		ev.Err = err.Error()
	}
	m.cfg.Publisher.Publish(ev)
}
