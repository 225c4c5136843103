package manager

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestKind(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"capability", ErrCapability("too little RAM"), KindCapability},
		{"init", ErrInit(errors.New("boom")), KindInit},
		{"not ready", ErrNotReady(), KindNotReady},
		{"timeout", ErrTimeout(PhaseInit, time.Minute), KindTimeout},
		{"exhausted", ErrExhausted(PhaseGenerate, errors.New("boom")), KindExhausted},
		{"busy", ErrBusy(15 * time.Second), KindBusy},
		{"engine", ErrEngine(errors.New("boom")), KindEngine},
		{"canceled", context.Canceled, KindCanceled},
		{"deadline", context.DeadlineExceeded, KindCanceled},
		{"wrapped cancel", fmt.Errorf("generate: %w", context.Canceled), KindCanceled},
		{"cancel beats wrapper", ErrInit(context.Canceled), KindCanceled},
		{"unclassified", errors.New("boom"), KindUnclassified},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Kind(tc.err); got != tc.want {
				t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

func TestWrappersKeepCauses(t *testing.T) {
	cause := errors.New("mmap failed")

	if err := ErrInit(cause); !errors.Is(err, cause) {
		t.Fatalf("init wrapper lost its cause: %v", err)
	}
	if err := ErrExhausted(PhaseInit, cause); !errors.Is(err, cause) {
		t.Fatalf("exhausted wrapper lost its cause: %v", err)
	}
	if err := ErrEngine(cause); !errors.Is(err, cause) {
		t.Fatalf("engine wrapper lost its cause: %v", err)
	}
}

func TestPredicatesDoNotCross(t *testing.T) {
	timeout := ErrTimeout(PhaseGenerate, 30*time.Second)
	if IsBusy(timeout) || IsInit(timeout) || IsExhausted(timeout) {
		t.Fatalf("timeout matched a foreign predicate: %v", timeout)
	}
	busy := ErrBusy(15 * time.Second)
	if IsTimeout(busy) || IsNotReady(busy) {
		t.Fatalf("busy matched a foreign predicate: %v", busy)
	}
	if IsCanceled(timeout) {
		t.Fatal("service timeout must not read as caller cancellation")
	}
}

func TestTimeoutMessageNamesPhaseAndBound(t *testing.T) {
	err := ErrTimeout(PhaseGenerate, 30*time.Second)
	want := "response generation timed out after 30s"
	if err.Error() != want {
		t.Fatalf("message = %q, want %q", err.Error(), want)
	}
}

func TestLooksOutOfMemory(t *testing.T) {
	cases := []struct {
		msg  string
		want bool
	}{
		{"ggml_aligned_malloc: failed to allocate 2048.00 MB", true},
		{"llama_model_load: out of memory", true},
		{"OOM killed by kernel", true},
		{"mmap: cannot allocate memory", true},
		{"buffer allocation failed", true},
		{"no room for more tokens", false},
		{"boom", false},
		{"unsupported tensor layout", false},
	}
	for _, tc := range cases {
		if got := LooksOutOfMemory(errors.New(tc.msg)); got != tc.want {
			t.Fatalf("LooksOutOfMemory(%q) = %v, want %v", tc.msg, got, tc.want)
		}
	}
	if LooksOutOfMemory(nil) {
		t.Fatal("nil error misread as out of memory")
	}
}
