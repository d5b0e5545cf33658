// Package synth speaks commentary by synthesising it with a tts.Provider
// (ElevenLabs, Coqui, or a fallback group of both) and piping the audio to
// a local player program.
package synth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/jasonnardone/voice-caddy/pkg/provider/internal/cmdrun"
	"github.com/jasonnardone/voice-caddy/pkg/provider/speaker"
	"github.com/jasonnardone/voice-caddy/pkg/provider/tts"
)

// DefaultPlayer plays raw signed 16-bit little-endian PCM from stdin.
const DefaultPlayer = "aplay -q -t raw -f S16_LE -r {sample_rate} -c {channels}"

// Speaker implements speaker.Speaker over a tts.Provider.
type Speaker struct {
	tts   tts.Provider
	name  string
	args  []string
	wav   bool
	run   cmdrun.Runner
	mu    sync.Mutex
	voice tts.Voice
}

var (
	_ speaker.Speaker    = (*Speaker)(nil)
	_ speaker.RateSetter = (*Speaker)(nil)
)

// Option configures a Speaker.
type Option func(*Speaker)

// WithPlayer sets the player command line. {sample_rate} and {channels}
// are replaced with the provider's output format.
func WithPlayer(command string) Option {
	return func(s *Speaker) {
		if name, args, err := cmdrun.Split(command); err == nil {
			s.name, s.args = name, args
		}
	}
}

// WithWAV wraps the PCM in a WAV header before piping it, for players that
// expect a container (e.g. "ffplay -nodisp -autoexit -").
func WithWAV(enabled bool) Option {
	return func(s *Speaker) { s.wav = enabled }
}

// WithRunner replaces the process runner.
func WithRunner(run cmdrun.Runner) Option {
	return func(s *Speaker) { s.run = run }
}

// New returns a Speaker that synthesises with p using voice.
func New(p tts.Provider, voice tts.Voice, opts ...Option) (*Speaker, error) {
	if p == nil {
		return nil, errors.New("speaker/synth: tts provider must not be nil")
	}
	s := &Speaker{tts: p, voice: voice, run: cmdrun.Exec}
	WithPlayer(DefaultPlayer)(s)
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// SetRate implements speaker.RateSetter by scaling the voice speed
// relative to speaker.DefaultRate.
func (s *Speaker) SetRate(wpm int) {
	if wpm <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voice.SpeedFactor = float64(wpm) / speaker.DefaultRate
}

// Speak implements speaker.Speaker.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	s.mu.Lock()
	voice := s.voice
	s.mu.Unlock()

	audio, err := s.tts.Synthesize(ctx, text, voice)
	if err != nil {
		return fmt.Errorf("speaker/synth: synthesize: %w", err)
	}
	pcm, err := tts.Collect(ctx, audio)
	if err != nil {
		return fmt.Errorf("speaker/synth: collect audio: %w", err)
	}
	if len(pcm) == 0 {
		return errors.New("speaker/synth: provider returned no audio")
	}

	f := s.tts.Format()
	if s.wav {
		pcm = tts.EncodeWAV(pcm, f)
	}
	args := cmdrun.Expand(s.args, map[string]string{
		"sample_rate": strconv.Itoa(f.SampleRate),
		"channels":    strconv.Itoa(f.Channels),
	})
	if _, err := s.run(ctx, s.name, args, pcm); err != nil {
		return fmt.Errorf("speaker/synth: play: %w", err)
	}
	return nil
}
