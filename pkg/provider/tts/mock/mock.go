// Package mock provides a test double for the tts.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/jasonnardone/voice-caddy/pkg/provider/tts"
)

// SynthesizeCall records a single invocation of Synthesize.
type SynthesizeCall struct {
	Text  string
	Voice tts.Voice
}

// Provider is a mock tts.Provider that emits AudioChunks for every call.
type Provider struct {
	mu sync.Mutex

	// AudioChunks are sent on the returned channel in order.
	AudioChunks [][]byte

	// SynthesizeErr, if non-nil, is returned from Synthesize.
	SynthesizeErr error

	// Voices is returned by ListVoices.
	Voices []tts.Voice

	// ListVoicesErr, if non-nil, is returned from ListVoices.
	ListVoicesErr error

	// AudioFormat is returned by Format. Defaults to 16 kHz mono.
	AudioFormat tts.Format

	// SynthesizeCalls records every Synthesize invocation.
	SynthesizeCalls []SynthesizeCall
}

var _ tts.Provider = (*Provider)(nil)

// Synthesize records the call and streams AudioChunks.
func (p *Provider) Synthesize(ctx context.Context, text string, voice tts.Voice) (<-chan []byte, error) {
	p.mu.Lock()
	p.SynthesizeCalls = append(p.SynthesizeCalls, SynthesizeCall{Text: text, Voice: voice})
	if p.SynthesizeErr != nil {
		err := p.SynthesizeErr
		p.mu.Unlock()
		return nil, err
	}
	chunks := make([][]byte, len(p.AudioChunks))
	copy(chunks, p.AudioChunks)
	p.mu.Unlock()

	ch := make(chan []byte, len(chunks))
	for _, c := range chunks {
		ch <- c
	}
	close(ch)
	return ch, nil
}

// ListVoices returns Voices, ListVoicesErr.
func (p *Provider) ListVoices(context.Context) ([]tts.Voice, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Voices, p.ListVoicesErr
}

// Format returns AudioFormat.
func (p *Provider) Format() tts.Format {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.AudioFormat.SampleRate == 0 {
		return tts.Format{SampleRate: 16000, Channels: 1}
	}
	return p.AudioFormat
}

// Calls returns a copy of the recorded Synthesize calls.
func (p *Provider) Calls() []SynthesizeCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]SynthesizeCall, len(p.SynthesizeCalls))
	copy(out, p.SynthesizeCalls)
	return out
}
