package resilience

import (
	"context"

	"github.com/jasonnardone/voice-caddy/pkg/provider/tts"
)

// TTSFallback is a [tts.Provider] that fails over across several speech
// backends. Every backend must emit the primary's PCM format.
type TTSFallback struct {
	group *FallbackGroup[tts.Provider]
}

var _ tts.Provider = (*TTSFallback)(nil)

// NewTTSFallback creates a TTSFallback with primary as the preferred
// backend.
func NewTTSFallback(primary tts.Provider, primaryName string, cfg FallbackConfig) *TTSFallback {
	return &TTSFallback{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers another backend.
func (f *TTSFallback) AddFallback(name string, p tts.Provider) {
	f.group.AddFallback(name, p)
}

// Synthesize starts synthesis on the first healthy backend. Only starting
// the stream is covered; a stream that dies midway is not retried.
func (f *TTSFallback) Synthesize(ctx context.Context, text string, voice tts.Voice) (<-chan []byte, error) {
	return ExecuteWithResult(f.group, func(p tts.Provider) (<-chan []byte, error) {
		return p.Synthesize(ctx, text, voice)
	})
}

// ListVoices lists voices of the first healthy backend.
func (f *TTSFallback) ListVoices(ctx context.Context) ([]tts.Voice, error) {
	return ExecuteWithResult(f.group, func(p tts.Provider) ([]tts.Voice, error) {
		return p.ListVoices(ctx)
	})
}

// Format returns the primary's format.
func (f *TTSFallback) Format() tts.Format {
	return f.group.Primary().Format()
}
