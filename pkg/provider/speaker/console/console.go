// Package console prints commentary to a writer instead of speaking it.
package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/jasonnardone/voice-caddy/pkg/provider/speaker"
)

// Speaker writes each line prefixed with a speaker glyph.
type Speaker struct {
	mu     sync.Mutex
	w      io.Writer
	prefix string
}

var _ speaker.Speaker = (*Speaker)(nil)

// New returns a Speaker writing to w, or stdout if w is nil.
func New(w io.Writer) *Speaker {
	if w == nil {
		w = os.Stdout
	}
	return &Speaker{w: w, prefix: "🔊 "}
}

// Speak implements speaker.Speaker.
func (s *Speaker) Speak(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "%s%s\n", s.prefix, text); err != nil {
		return fmt.Errorf("console: write: %w", err)
	}
	return nil
}
