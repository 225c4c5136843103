package manager

import (
	"runtime/debug"
	"time"
)

// Release tears down the live handle and returns the manager to
// StateUninitialized. Idempotent; releasing an uninitialized manager does
// nothing. When an initialization attempt is in flight, Release waits for
// it to settle first so the engine never sees a free interleaved with a
// load.
func (m *Manager) Release() {
	for {
		m.mu.Lock()
		if done := m.initDone; done != nil {
			m.mu.Unlock()
			<-done
			continue
		}
		handle := m.handle
		m.handle = nil
		m.path = ""
		m.state = StateUninitialized
		m.loadedAt = time.Time{}
		m.mu.Unlock()

		if handle != nil {
			if err := handle.Close(); err != nil {
				m.cfg.Logger.Warn().Err(err).Str("model", m.cfg.Model).Msg("engine handle close failed")
			}
			m.cfg.Logger.Info().Str("model", m.cfg.Model).Msg("model released")
			m.publish(EventReleased, nil)
			// Hand freed pages back to the OS promptly. The point of a
			// release is to make memory available to the rest of the host.
			debug.FreeOSMemory()
		}
		return
	}
}

// Close releases the model. Satisfies io.Closer for shutdown plumbing.
func (m *Manager) Close() error {
	m.Release()
	return nil
}
