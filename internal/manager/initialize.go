package manager

import (
	"context"
	"time"

	"chatd/internal/engine"
)

// Initialize brings the model to StateReady: capability gate, artifact
// materialization, engine load. Safe for concurrent use; when an attempt
// is already in flight, callers wait for it and share its outcome rather
// than starting a second load. Returns nil immediately when already ready.
//
// Cancellation of ctx propagates unwrapped. A canceled attempt rolls the
// state back to StateUninitialized and the next call starts fresh.
func (m *Manager) Initialize(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.mu.Lock()
		if m.state == StateReady {
			m.mu.Unlock()
			return nil
		}
		if done := m.initDone; done != nil {
			m.mu.Unlock()
			select {
			case <-done:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		done := make(chan struct{})
		m.initDone = done
		m.state = StateInitializing
		m.attempts++
		m.mu.Unlock()

		handle, path, err := m.runInitialize(ctx)

		m.mu.Lock()
		if err == nil {
			m.handle = handle
			m.path = path
			m.state = StateReady
			m.loadedAt = time.Now()
			m.lastErr = ""
		} else {
			m.state = StateUninitialized
			if !IsCanceled(err) {
				m.lastErr = err.Error()
			}
		}
		m.initDone = nil
		m.mu.Unlock()
		close(done)
		return err
	}
}

// runInitialize performs one attempt. Called without the lock held; exactly
// one goroutine runs it at a time because claiming initDone is exclusive.
func (m *Manager) runInitialize(ctx context.Context) (engine.Handle, string, error) {
	log := m.cfg.Logger
	m.publish(EventInitStarted, nil)
	start := time.Now()

	if m.cfg.Device != nil {
		v := m.cfg.Device.Check()
		if !v.Capable {
			err := ErrCapability(v.Warning)
			m.failInit(err)
			return nil, "", err
		}
		if v.Warning != "" {
			log.Warn().Str("model", m.cfg.Model).Msg(v.Warning)
		}
	}

	path, err := m.cfg.Store.Ensure(m.cfg.Model, m.cfg.ExpectedSize)
	if err != nil {
		err = ErrInit(err)
		m.failInit(err)
		return nil, "", err
	}

	handle, err := m.loadEngine(ctx, path)
	if err != nil {
		m.failInit(err)
		return nil, "", err
	}

	elapsed := time.Since(start)
	m.cfg.Metrics.RecordLoad(elapsed)
	log.Info().
		Str("model", m.cfg.Model).
		Str("path", path).
		Dur("elapsed", elapsed).
		Msg("model ready")
	m.publish(EventReady, nil)
	return handle, path, nil
}

func (m *Manager) failInit(err error) {
	m.publish(EventInitFailed, err)
	if IsCanceled(err) {
		return
	}
	m.cfg.Metrics.RecordError(Kind(err))
	m.cfg.Logger.Error().Err(err).Str("model", m.cfg.Model).Msg("model initialization failed")
}

// loadEngine runs one engine load under the configured timeout. Not every
// backend can abort a load mid-flight, so on timeout the attempt is
// abandoned: a reaper drains the late result and closes any handle that
// eventually arrives, keeping its memory from leaking past the rollback.
func (m *Manager) loadEngine(ctx context.Context, path string) (engine.Handle, error) {
	loadCtx, cancel := context.WithTimeout(ctx, m.cfg.LoadTimeout)
	defer cancel()

	type result struct {
		handle engine.Handle
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		h, err := m.cfg.Engine.Load(loadCtx, path, m.cfg.Options)
		ch <- result{handle: h, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, m.classifyLoadErr(ctx, res.err)
		}
		return res.handle, nil
	case <-loadCtx.Done():
		go func() {
			if res := <-ch; res.handle != nil {
				_ = res.handle.Close()
			}
		}()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrTimeout(PhaseInit, m.cfg.LoadTimeout)
	}
}

// classifyLoadErr maps a raw engine load failure into the taxonomy. ctx is
// the caller's context, not the deadline-bearing load context: caller
// cancellation passes through unwrapped, while the engine echoing our own
// expired deadline reads as a timeout.
func (m *Manager) classifyLoadErr(ctx context.Context, err error) error {
	switch {
	case ctx.Err() != nil && IsCanceled(err):
		return ctx.Err()
	case IsCanceled(err):
		return ErrTimeout(PhaseInit, m.cfg.LoadTimeout)
	case LooksOutOfMemory(err):
		return ErrExhausted(PhaseInit, err)
	default:
		return ErrInit(err)
	}
}
