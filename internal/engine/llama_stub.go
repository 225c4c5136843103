//go:build !llama

package engine

// No-CGO stand-in compiled when the 'llama' build tag is NOT set, keeping
// default builds and CI CGO-free. The real backend lives in llama.go.

import "context"

var llamaBuilt = false

type llamaEngine struct{}

// NewLlama returns the llama backend; without the 'llama' build tag every
// Load fails fast instead of pretending to run inference.
func NewLlama() Engine { return llamaEngine{} }

func (llamaEngine) Load(ctx context.Context, path string, opts Options) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, errUnavailable("llama support not built (missing 'llama' build tag)")
}
