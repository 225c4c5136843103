// Package engine is the boundary to the local inference backend. The
// backend is opaque: callers get a Handle from Load and everything past
// that interface (native state, threads, memory) belongs to the backend.
//
// Files:
//   - engine.go      interfaces, options, availability errors
//   - llama.go       in-process llama.cpp backend (build tag 'llama')
//   - llama_cgo.go   cgo link hints for the llama backend (build tag 'llama')
//   - llama_stub.go  no-CGO stand-in compiled without the tag
//   - mock.go        deterministic backend for development and tests
package engine

import (
	"context"
	"errors"
)

// Options captures generation parameters fixed at load time.
type Options struct {
	MaxTokens   int
	Temperature float64
	TopK        int
	Seed        int
	CtxSize     int
	Threads     int
}

// Engine creates model handles.
type Engine interface {
	// Load materializes the model at path. Blocking and potentially slow;
	// implementations honor ctx cancellation where the backend allows it.
	Load(ctx context.Context, path string, opts Options) (Handle, error)
}

// Handle is a loaded model. At most one Generate runs per handle at a time;
// Close releases the backend resources and is idempotent.
type Handle interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Close() error
}

// LlamaBuilt reports whether this binary carries the real llama backend.
func LlamaBuilt() bool { return llamaBuilt }

type unavailableError struct {
	reason string
}

func (e unavailableError) Error() string { return "engine unavailable: " + e.reason }

func errUnavailable(reason string) error { return unavailableError{reason: reason} }

// IsUnavailable reports whether err means the backend is not present in
// this build or on this host, as opposed to a failure of a present backend.
func IsUnavailable(err error) bool {
	var e unavailableError
	return errors.As(err, &e)
}
