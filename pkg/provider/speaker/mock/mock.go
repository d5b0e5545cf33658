// Package mock provides a test double for speaker.Speaker.
package mock

import (
	"context"
	"sync"

	"github.com/jasonnardone/voice-caddy/pkg/provider/speaker"
)

// Speaker records every spoken line. If Err is set it is returned after
// the line is recorded.
type Speaker struct {
	mu    sync.Mutex
	Err   error
	lines []string
	rate  int
}

var (
	_ speaker.Speaker    = (*Speaker)(nil)
	_ speaker.RateSetter = (*Speaker)(nil)
)

// Speak implements speaker.Speaker.
func (s *Speaker) Speak(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, text)
	return s.Err
}

// SetRate implements speaker.RateSetter.
func (s *Speaker) SetRate(wpm int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = wpm
}

// Lines returns a copy of the spoken lines.
func (s *Speaker) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

// Rate returns the last rate set.
func (s *Speaker) Rate() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}
