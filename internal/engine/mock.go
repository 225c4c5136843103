package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Mock is a deterministic backend with no native dependencies. It backs
// --engine=mock for installs without a model and drives the end-to-end
// tests.
type Mock struct {
	// ReplyFunc computes raw model output for a prompt. nil uses the echo
	// responder, which answers in the same turn template the tuned model
	// emits.
	ReplyFunc func(prompt string) string
	// LoadDelay and GenerateDelay simulate backend latency.
	LoadDelay     time.Duration
	GenerateDelay time.Duration
	// LoadErr makes every Load fail with it.
	LoadErr error
	// GenerateErr makes every Generate fail with it.
	GenerateErr error

	loads atomic.Int64
}

// NewMock returns a Mock with the echo responder and no latency.
func NewMock() *Mock { return &Mock{} }

// LoadCalls reports how many times Load ran, successful or not.
func (m *Mock) LoadCalls() int64 { return m.loads.Load() }

func (m *Mock) Load(ctx context.Context, path string, opts Options) (Handle, error) {
	m.loads.Add(1)
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("model path is empty")
	}
	if err := sleepOrDone(ctx, m.LoadDelay); err != nil {
		return nil, err
	}
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return &mockHandle{eng: m}, nil
}

type mockHandle struct {
	mu     sync.Mutex
	closed bool
	eng    *Mock
}

func (h *mockHandle) Generate(ctx context.Context, prompt string) (string, error) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return "", errors.New("mock handle closed")
	}
	if err := sleepOrDone(ctx, h.eng.GenerateDelay); err != nil {
		return "", err
	}
	if h.eng.GenerateErr != nil {
		return "", h.eng.GenerateErr
	}
	if h.eng.ReplyFunc != nil {
		return h.eng.ReplyFunc(prompt), nil
	}
	return echoReply(prompt), nil
}

func (h *mockHandle) Close() error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	return nil
}

func sleepOrDone(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Literals mirror the turn template the prompt formatter emits.
const (
	mockUserTurn = "<start_of_turn>user\n"
	mockTurnEnd  = "<end_of_turn>"
)

func echoReply(prompt string) string {
	last := lastUserUtterance(prompt)
	if last == "" {
		return "<start_of_turn>model\nHello! How can I help?" + mockTurnEnd + "\n"
	}
	return "<start_of_turn>model\nYou said: " + last + mockTurnEnd + "\n"
}

func lastUserUtterance(prompt string) string {
	i := strings.LastIndex(prompt, mockUserTurn)
	if i < 0 {
		return ""
	}
	rest := prompt[i+len(mockUserTurn):]
	if j := strings.Index(rest, mockTurnEnd); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest)
}
