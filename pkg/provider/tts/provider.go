// Package tts defines the Provider interface for text-to-speech backends
// that voice the commentary.
//
// Providers return raw signed 16-bit little-endian PCM in the layout
// reported by Format, so a player can be configured without sniffing
// headers. Implementations must be safe for concurrent use.
package tts

import "context"

// Voice selects a voice on a provider.
type Voice struct {
	// ID is the provider-specific voice identifier.
	ID   string
	Name string

	// Provider names the backend this voice belongs to.
	Provider string

	// SpeedFactor scales the speaking rate; 1.0 or 0 is the default.
	SpeedFactor float64

	Metadata map[string]string
}

// Format describes the PCM stream a provider emits.
type Format struct {
	SampleRate int
	Channels   int
}

// Provider is the abstraction over any TTS backend.
type Provider interface {
	// Synthesize speaks text with voice and returns a channel of PCM chunks.
	// The channel is closed when synthesis completes, fails, or ctx is
	// cancelled. A non-nil error is returned only when synthesis cannot
	// start.
	Synthesize(ctx context.Context, text string, voice Voice) (<-chan []byte, error)

	// ListVoices returns the voices available from the backend.
	ListVoices(ctx context.Context) ([]Voice, error)

	// Format returns the PCM layout of synthesised audio.
	Format() Format
}

// Collect drains audio into a single buffer. It returns ctx.Err() if the
// context ends first.
func Collect(ctx context.Context, audio <-chan []byte) ([]byte, error) {
	var buf []byte
	for {
		select {
		case chunk, ok := <-audio:
			if !ok {
				return buf, nil
			}
			buf = append(buf, chunk...)
		case <-ctx.Done():
			return buf, ctx.Err()
		}
	}
}
