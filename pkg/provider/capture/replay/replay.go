// Package replay serves previously recorded frames from a directory, in
// file name order. It is used to tune thresholds offline against a
// recorded round.
package replay

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/jasonnardone/voice-caddy/pkg/provider/capture"
)

// Source implements capture.Source over image files in a directory.
type Source struct {
	mu    sync.Mutex
	files []string
	next  int
	loop  bool
}

var _ capture.Source = (*Source)(nil)

// Option configures a Source.
type Option func(*Source)

// WithLoop restarts from the first frame after the last one.
func WithLoop(loop bool) Option {
	return func(s *Source) { s.loop = loop }
}

// New lists the .png, .jpg and .jpeg files in dir.
func New(dir string, opts ...Option) (*Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("capture/replay: read dir: %w", err)
	}
	s := &Source{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			s.files = append(s.files, filepath.Join(dir, e.Name()))
		}
	}
	if len(s.files) == 0 {
		return nil, fmt.Errorf("capture/replay: %s: %w", dir, capture.ErrNoFrames)
	}
	slices.Sort(s.files)
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Len returns the number of frames.
func (s *Source) Len() int { return len(s.files) }

// Capture implements capture.Source. It returns capture.ErrNoFrames once
// all frames have been served, unless looping.
func (s *Source) Capture(_ context.Context) (image.Image, error) {
	s.mu.Lock()
	if s.next >= len(s.files) {
		if !s.loop {
			s.mu.Unlock()
			return nil, capture.ErrNoFrames
		}
		s.next = 0
	}
	path := s.files[s.next]
	s.next++
	s.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("capture/replay: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("capture/replay: decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}
