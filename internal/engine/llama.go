//go:build llama

package engine

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"sync"

	llama "github.com/go-skynet/go-llama.cpp"
)

// llamaBuilt indicates this binary was compiled with real llama support.
var llamaBuilt = true

type llamaEngine struct{}

// NewLlama returns the in-process llama.cpp backend.
func NewLlama() Engine { return llamaEngine{} }

func (llamaEngine) Load(ctx context.Context, path string, opts Options) (Handle, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("model path is empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mo := []llama.ModelOption{
		llama.SetContext(zn(opts.CtxSize, 4096)),
	}
	// llama.New has no cancellation hook; the caller bounds it externally.
	m, err := llama.New(path, mo...)
	if err != nil {
		return nil, err
	}
	return &llamaHandle{model: m, opts: opts}, nil
}

// llamaHandle owns the loaded model. The mutex serializes Generate and
// Close against each other; Free during a running Predict would crash.
type llamaHandle struct {
	mu    sync.Mutex
	model *llama.LLama
	opts  Options
}

func (h *llamaHandle) Generate(ctx context.Context, prompt string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.model == nil {
		return "", errors.New("llama handle closed")
	}
	// Cancellation rides the token callback: returning false stops the
	// prediction loop at the next token boundary.
	h.model.SetTokenCallback(func(string) bool {
		select {
		case <-ctx.Done():
			return false
		default:
			return true
		}
	})
	text, err := h.model.Predict(prompt, predictOptions(h.opts)...)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	if ctx.Err() != nil {
		// Predict returns the partial text when the callback stops it.
		return "", ctx.Err()
	}
	return text, nil
}

func (h *llamaHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.model != nil {
		h.model.Free()
		h.model = nil
	}
	return nil
}

func predictOptions(o Options) []llama.PredictOption {
	po := []llama.PredictOption{
		llama.SetTokens(max(1, o.MaxTokens)),
		llama.SetThreads(zn(o.Threads, runtime.NumCPU())),
		llama.SetTopK(zn(o.TopK, llama.DefaultOptions.TopK)),
		llama.SetTemperature(zf(float32(o.Temperature), llama.DefaultOptions.Temperature)),
	}
	if o.Seed != 0 {
		po = append(po, llama.SetSeed(o.Seed))
	}
	return po
}

func zn(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func zf(v, def float32) float32 {
	if v > 0 {
		return v
	}
	return def
}
