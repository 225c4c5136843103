package manager

import (
	"os"
	"path/filepath"
	"testing"

	"chatd/internal/artifact"
	"chatd/internal/device"
	"chatd/internal/engine"
)

const testModel = "gemma-test.Q8_0.gguf"

// fakeDevice returns a fixed capability verdict.
type fakeDevice struct{ v device.Verdict }

func (f fakeDevice) Check() device.Verdict { return f.v }

// seedArtifact writes a small GGUF-headed blob into dir and returns its size.
func seedArtifact(t *testing.T, dir, name string) int64 {
	t.Helper()
	payload := append([]byte("GGUF"), []byte("tiny model payload for lifecycle tests")...)
	if err := os.WriteFile(filepath.Join(dir, name), payload, 0o644); err != nil {
		t.Fatalf("seed artifact: %v", err)
	}
	return int64(len(payload))
}

// newTestManager wires a manager over mock and temp asset/data dirs, with a
// seeded artifact. mutate adjusts the config before construction.
func newTestManager(t *testing.T, mock *engine.Mock, mutate func(*Config)) *Manager {
	t.Helper()
	assets := t.TempDir()
	size := seedArtifact(t, assets, testModel)
	store, err := artifact.NewStore(assets, t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	cfg := Config{
		Engine:       mock,
		Store:        store,
		Model:        testModel,
		ExpectedSize: size,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return New(cfg)
}
