// Package command speaks commentary through a local text-to-speech program
// such as espeak, espeak-ng, say or festival.
//
// The configured command line may contain {text} and {rate} placeholders.
// Without {text} the line is written to the program's stdin.
package command

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/jasonnardone/voice-caddy/pkg/provider/internal/cmdrun"
	"github.com/jasonnardone/voice-caddy/pkg/provider/speaker"
)

// DefaultCommand is used when no command is configured.
const DefaultCommand = "espeak -s {rate} {text}"

// Speaker implements speaker.Speaker with an external program.
type Speaker struct {
	name string
	args []string
	rate atomic.Int64
	run  cmdrun.Runner
}

var (
	_ speaker.Speaker    = (*Speaker)(nil)
	_ speaker.RateSetter = (*Speaker)(nil)
)

// Option configures a Speaker.
type Option func(*Speaker)

// WithRate sets the speaking rate in words per minute.
func WithRate(wpm int) Option {
	return func(s *Speaker) { s.SetRate(wpm) }
}

// WithRunner replaces the process runner.
func WithRunner(run cmdrun.Runner) Option {
	return func(s *Speaker) { s.run = run }
}

// New parses command. An empty command selects DefaultCommand.
func New(command string, opts ...Option) (*Speaker, error) {
	if strings.TrimSpace(command) == "" {
		command = DefaultCommand
	}
	name, args, err := cmdrun.Split(command)
	if err != nil {
		return nil, fmt.Errorf("speaker/command: %w", err)
	}
	s := &Speaker{name: name, args: args, run: cmdrun.Exec}
	s.rate.Store(speaker.DefaultRate)
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// SetRate implements speaker.RateSetter. Non-positive values are ignored.
func (s *Speaker) SetRate(wpm int) {
	if wpm > 0 {
		s.rate.Store(int64(wpm))
	}
}

// Speak implements speaker.Speaker.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	args := cmdrun.Expand(s.args, map[string]string{
		"text": text,
		"rate": strconv.FormatInt(s.rate.Load(), 10),
	})
	var stdin []byte
	if !slices.ContainsFunc(s.args, func(a string) bool { return strings.Contains(a, "{text}") }) {
		stdin = []byte(text + "\n")
	}
	if _, err := s.run(ctx, s.name, args, stdin); err != nil {
		return fmt.Errorf("speaker/command: %w", err)
	}
	return nil
}

// Program returns the executable name.
func (s *Speaker) Program() string { return s.name }
