package manager

import "time"

// State represents the lifecycle state of the managed model.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StateReady         State = "ready"
)

// Snapshot is a read-only projection of the manager state.
type Snapshot struct {
	State     State
	ModelName string
	// ModelPath is the working copy the engine loaded, empty before the
	// first successful materialization.
	ModelPath string
	// Attempts counts initialization attempts since process start,
	// successful or not. Diagnostic only.
	Attempts uint64
	// LoadedAt is when the model became ready; zero when it is not.
	LoadedAt time.Time
	// LastErr is the most recent initialization failure, empty after a
	// successful load. Cancellations are not recorded.
	LastErr string
}
