package artifact

import (
	"bytes"
	"io"
	"os"
)

// Format is a recognized model container format.
type Format string

const (
	FormatGGUF    Format = "gguf"
	FormatTask    Format = "task bundle"
	FormatTFLite  Format = "tflite"
	FormatUnknown Format = "unknown"
)

// Sniff identifies the container format by magic bytes. Diagnostic only:
// loading is left to the engine, which is the authority on what it accepts.
func Sniff(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, err
	}
	defer f.Close()
	header := make([]byte, 8)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF {
		return FormatUnknown, err
	}
	header = header[:n]
	switch {
	case bytes.HasPrefix(header, []byte("GGUF")):
		return FormatGGUF, nil
	// MediaPipe .task bundles are zip archives.
	case bytes.HasPrefix(header, []byte("PK\x03\x04")):
		return FormatTask, nil
	// TFLite flatbuffers carry their identifier at offset 4.
	case len(header) >= 8 && bytes.Equal(header[4:8], []byte("TFL3")):
		return FormatTFLite, nil
	default:
		return FormatUnknown, nil
	}
}
