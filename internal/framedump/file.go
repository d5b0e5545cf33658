package framedump

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileSink writes frames into a local directory.
type FileSink struct {
	dir string
}

var _ Sink = (*FileSink)(nil)

// NewFileSink creates dir if needed.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("framedump: create dir: %w", err)
	}
	return &FileSink{dir: dir}, nil
}

// Dir returns the target directory.
func (s *FileSink) Dir() string { return s.dir }

// Save implements Sink.
func (s *FileSink) Save(_ context.Context, f Frame) error {
	files, err := encode(f)
	if err != nil {
		return err
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
			return fmt.Errorf("framedump: write %s: %w", name, err)
		}
	}
	return nil
}
