package manager

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Phases named by timeout and exhaustion errors.
const (
	PhaseInit     = "model initialization"
	PhaseGenerate = "response generation"
)

// Error kinds as stable strings, used for metric labels and the user-facing
// message table. Cancellation gets a kind for routing purposes but is not
// part of the error taxonomy: cancellation errors pass through unwrapped.
const (
	KindCapability   = "capability"
	KindInit         = "init"
	KindNotReady     = "not_ready"
	KindTimeout      = "timeout"
	KindExhausted    = "exhausted"
	KindBusy         = "busy"
	KindEngine       = "engine"
	KindCanceled     = "canceled"
	KindUnclassified = "unclassified"
)

// capabilityError carries the device verdict verbatim so the measured
// memory reaches the user unchanged.
type capabilityError struct{ msg string }

func (e capabilityError) Error() string { return e.msg }

// ErrCapability constructs a capability error from a device verdict.
func ErrCapability(msg string) error { return capabilityError{msg: msg} }

// IsCapability reports whether err means the device cannot hold the model.
func IsCapability(err error) bool {
	var e capabilityError
	return errors.As(err, &e)
}

// initError wraps a failure during model initialization: a missing or
// corrupted artifact, or an engine that refused to load.
type initError struct{ cause error }

func (e initError) Error() string { return "model initialization failed: " + e.cause.Error() }
func (e initError) Unwrap() error { return e.cause }

// ErrInit wraps cause as an initialization failure.
func ErrInit(cause error) error { return initError{cause: cause} }

// IsInit reports whether err is a classified initialization failure.
func IsInit(err error) bool {
	var e initError
	return errors.As(err, &e)
}

type notReadyError struct{}

func (notReadyError) Error() string { return "model not ready: initialize first" }

// ErrNotReady constructs a not-ready error.
func ErrNotReady() error { return notReadyError{} }

// IsNotReady reports whether err means no live handle exists.
func IsNotReady(err error) bool {
	var e notReadyError
	return errors.As(err, &e)
}

type timeoutError struct {
	phase string
	limit time.Duration
}

func (e timeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.phase, e.limit)
}

// ErrTimeout constructs a timeout error for the given phase and bound.
func ErrTimeout(phase string, limit time.Duration) error {
	return timeoutError{phase: phase, limit: limit}
}

// IsTimeout reports whether err is a service-imposed deadline expiry.
// Caller-imposed deadlines are cancellation, not this.
func IsTimeout(err error) bool {
	var e timeoutError
	return errors.As(err, &e)
}

type exhaustedError struct {
	phase string
	cause error
}

func (e exhaustedError) Error() string {
	return fmt.Sprintf("out of memory during %s: %v", e.phase, e.cause)
}
func (e exhaustedError) Unwrap() error { return e.cause }

// ErrExhausted wraps an out-of-memory failure in the given phase.
func ErrExhausted(phase string, cause error) error {
	return exhaustedError{phase: phase, cause: cause}
}

// IsExhausted reports whether err is a classified out-of-memory failure.
func IsExhausted(err error) bool {
	var e exhaustedError
	return errors.As(err, &e)
}

type busyError struct{ wait time.Duration }

func (e busyError) Error() string {
	return fmt.Sprintf("busy: no generation slot freed within %s", e.wait)
}

// ErrBusy constructs a backpressure error for 429 mapping.
func ErrBusy(wait time.Duration) error { return busyError{wait: wait} }

// IsBusy reports whether err means the generation queue rejected the call.
func IsBusy(err error) bool {
	var e busyError
	return errors.As(err, &e)
}

// engineError wraps an engine failure that matched no specific kind.
type engineError struct{ cause error }

func (e engineError) Error() string { return "engine failure: " + e.cause.Error() }
func (e engineError) Unwrap() error { return e.cause }

// ErrEngine wraps cause as a generic classified engine failure.
func ErrEngine(cause error) error { return engineError{cause: cause} }

// IsEngine reports whether err is a generic classified engine failure.
func IsEngine(err error) bool {
	var e engineError
	return errors.As(err, &e)
}

// IsCanceled reports whether err is caller cancellation (including a
// caller-imposed deadline). Such errors propagate unwrapped and are never
// re-labelled into the taxonomy.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Kind maps err to its stable kind string.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsCanceled(err):
		return KindCanceled
	case IsCapability(err):
		return KindCapability
	case IsInit(err):
		return KindInit
	case IsNotReady(err):
		return KindNotReady
	case IsTimeout(err):
		return KindTimeout
	case IsExhausted(err):
		return KindExhausted
	case IsBusy(err):
		return KindBusy
	case IsEngine(err):
		return KindEngine
	default:
		return KindUnclassified
	}
}

// oomPatterns are failure-text fragments the native backends emit when an
// allocation fails. Substring matching is crude but the engine boundary is
// opaque; these strings are the only signal that crosses it.
var oomPatterns = []string{
	"out of memory",
	"cannot allocate",
	"allocation failed",
	"failed to allocate",
	"oom killed",
}

// LooksOutOfMemory reports whether err's text reads like a memory
// exhaustion failure.
func LooksOutOfMemory(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range oomPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
