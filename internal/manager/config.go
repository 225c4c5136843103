package manager

import (
	"time"

	"github.com/rs/zerolog"

	"chatd/internal/artifact"
	"chatd/internal/device"
	"chatd/internal/engine"
	"chatd/internal/metrics"
)

// DefaultLoadTimeout bounds a single initialization attempt.
const DefaultLoadTimeout = 60 * time.Second

// CapabilityChecker reports whether the device can hold the model.
// Satisfied by *device.Checker; tests substitute fixed verdicts.
type CapabilityChecker interface {
	Check() device.Verdict
}

// Config carries the manager's collaborators and model identity.
type Config struct {
	// Engine loads model artifacts into live handles. Required.
	Engine engine.Engine

	// Store resolves and materializes the model artifact. Required.
	Store *artifact.Store

	// Device gates initialization on available memory. Nil skips the gate.
	Device CapabilityChecker

	// Metrics records load counts and durations. Nil disables recording.
	Metrics *metrics.Tracker

	// Publisher receives lifecycle events. Nil discards them.
	Publisher EventPublisher

	// Logger for lifecycle logging. Nil uses a no-op logger.
	Logger *zerolog.Logger

	// Model is the artifact file name, bare, no directories.
	Model string

	// ExpectedSize validates the artifact when non-zero.
	ExpectedSize int64

	// Options are passed to the engine on every load.
	Options engine.Options

	// LoadTimeout bounds one initialization attempt. Zero means
	// DefaultLoadTimeout.
	LoadTimeout time.Duration
}

func (c *Config) normalize() {
	if c.Metrics == nil {
		c.Metrics = metrics.NewTracker(false)
	}
	if c.Publisher == nil {
		c.Publisher = NopPublisher()
	}
	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}
	if c.LoadTimeout <= 0 {
		c.LoadTimeout = DefaultLoadTimeout
	}
}
