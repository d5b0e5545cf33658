// Package mock provides a test double for the ocr.Recognizer interface.
package mock

import (
	"context"
	"image"
	"sync"

	"github.com/jasonnardone/voice-caddy/pkg/provider/ocr"
)

// Recognizer returns Texts in order, repeating the last one once exhausted.
type Recognizer struct {
	mu sync.Mutex

	// Texts are returned by successive Recognize calls.
	Texts []string

	// Err, if non-nil, is returned from every call.
	Err error

	calls int
}

var _ ocr.Recognizer = (*Recognizer)(nil)

// Recognize returns the next configured text.
func (r *Recognizer) Recognize(_ context.Context, img image.Image) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.Err != nil {
		return "", r.Err
	}
	if err := ocr.CheckImage(img); err != nil {
		return "", err
	}
	if len(r.Texts) == 0 {
		return "", nil
	}
	i := min(r.calls-1, len(r.Texts)-1)
	return r.Texts[i], nil
}

// CallCount returns how many times Recognize was called.
func (r *Recognizer) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
