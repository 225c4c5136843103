// Package manager owns the model lifecycle: a single engine handle moved
// between three states (uninitialized, initializing, ready) under one lock.
//
// Files by concern:
//   - manager.go     Manager struct, construction, state accessors
//   - config.go      Config and defaults
//   - types.go       State and Snapshot
//   - initialize.go  the gated initialization attempt and its phases
//   - release.go     handle teardown
//   - errors.go      classified error kinds, constructors, predicates
//   - events.go      lifecycle event publishing
//
// Concurrency model: the mutex guards only the state fields and is never
// held across a load. While an attempt runs, initDone is non-nil; other
// initializers and Release block on that channel and then re-read the
// state, so exactly one goroutine talks to the engine at a time and
// "whoever acquires first completes first" holds for initialize/release
// races.
package manager
