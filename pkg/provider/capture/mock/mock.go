// Package mock provides a test double for capture.Source.
package mock

import (
	"context"
	"image"
	"sync"

	"github.com/jasonnardone/voice-caddy/pkg/provider/capture"
)

// Source returns Frames in order and then keeps returning the last one.
// If Err is set it is returned instead. Errs, when non-empty, supplies a
// per-call error (nil entries mean "return a frame").
type Source struct {
	mu     sync.Mutex
	Frames []image.Image
	Err    error
	Errs   []error
	calls  int
}

var _ capture.Source = (*Source)(nil)

// Capture implements capture.Source.
func (s *Source) Capture(_ context.Context) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if s.Err != nil {
		return nil, s.Err
	}
	if i < len(s.Errs) && s.Errs[i] != nil {
		return nil, s.Errs[i]
	}
	if len(s.Frames) == 0 {
		return nil, capture.ErrNoFrames
	}
	return s.Frames[min(i, len(s.Frames)-1)], nil
}

// CallCount returns how many times Capture was called.
func (s *Source) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
