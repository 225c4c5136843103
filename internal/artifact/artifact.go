// Package artifact materializes the model file the engine loads.
//
// The asset store is a read-only directory of named blobs shipped with the
// install. The first initialization copies the configured artifact into the
// writable data directory and every later one revalidates the working copy
// instead of copying again.
package artifact

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"chatd/internal/common/fsutil"
)

// Store resolves artifact names against the read-only asset directory and
// the writable working area.
type Store struct {
	assetsDir string
	dataDir   string
}

// NewStore builds a Store, expanding a leading '~' in both directories.
func NewStore(assetsDir, dataDir string) (*Store, error) {
	assets, err := fsutil.ExpandHome(assetsDir)
	if err != nil {
		return nil, fmt.Errorf("assets dir: %w", err)
	}
	data, err := fsutil.ExpandHome(dataDir)
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	return &Store{assetsDir: assets, dataDir: data}, nil
}

// AssetsDir returns the read-only source directory.
func (s *Store) AssetsDir() string { return s.assetsDir }

// SourcePath returns where name lives inside the asset store.
func (s *Store) SourcePath(name string) string { return filepath.Join(s.assetsDir, name) }

// WorkPath returns where the working copy of name lives.
func (s *Store) WorkPath(name string) string {
	return filepath.Join(s.dataDir, "models", name)
}

// Stat reports the working copy's path and size, ok=false when absent.
func (s *Store) Stat(name string) (path string, size int64, ok bool) {
	path = s.WorkPath(name)
	n, err := fsutil.FileSize(path)
	if err != nil {
		return path, 0, false
	}
	return path, n, true
}

// Ensure returns a validated working copy of name, copying it out of the
// asset store on first use. expectedSize 0 skips the exact-size check.
func (s *Store) Ensure(name string, expectedSize int64) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	work := s.WorkPath(name)
	if err := Validate(work, expectedSize); err == nil {
		return work, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		// A present but invalid copy is replaced rather than trusted.
		_ = os.Remove(work)
	}
	src := s.SourcePath(name)
	if !fsutil.PathExists(src) {
		return "", notFoundError{name: name, dir: s.assetsDir}
	}
	if _, err := fsutil.CopyFile(src, work); err != nil {
		return "", fmt.Errorf("materialize %s: %w", name, err)
	}
	if err := Validate(work, expectedSize); err != nil {
		return "", err
	}
	return work, nil
}

// Validate checks a model file: it must exist, be non-empty, have a readable
// header, and match expectedSize when one is given.
func Validate(path string, expectedSize int64) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return corruptedError{path: path, reason: "is a directory"}
	}
	if fi.Size() == 0 {
		return corruptedError{path: path, reason: "empty file"}
	}
	if expectedSize > 0 && fi.Size() != expectedSize {
		return corruptedError{
			path:   path,
			reason: fmt.Sprintf("size mismatch: have %d bytes, want %d", fi.Size(), expectedSize),
		}
	}
	f, err := os.Open(path)
	if err != nil {
		return corruptedError{path: path, reason: "unreadable: " + err.Error()}
	}
	defer f.Close()
	header := make([]byte, min64(512, fi.Size()))
	if _, err := io.ReadFull(f, header); err != nil {
		return corruptedError{path: path, reason: "unreadable header: " + err.Error()}
	}
	return nil
}

func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("empty artifact name")
	}
	if name != filepath.Base(name) || strings.Contains(name, "..") {
		return fmt.Errorf("artifact name must be a bare file name: %q", name)
	}
	return nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

type notFoundError struct {
	name string
	dir  string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("model artifact %q not found in %s", e.name, e.dir)
}

// IsNotFound reports whether err means the artifact is absent from the
// asset store.
func IsNotFound(err error) bool {
	var e notFoundError
	return errors.As(err, &e)
}

type corruptedError struct {
	path   string
	reason string
}

func (e corruptedError) Error() string {
	return fmt.Sprintf("model artifact %s corrupted: %s", e.path, e.reason)
}

// IsCorrupted reports whether err means the artifact exists but failed
// validation.
func IsCorrupted(err error) bool {
	var e corruptedError
	return errors.As(err, &e)
}
