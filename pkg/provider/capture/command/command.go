// Package command captures the screen by running an external screenshot
// program that writes an encoded image to stdout, for example
// "grim -", "import -window root png:-" or
// "screencapture -x -t png /dev/stdout".
package command

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/jasonnardone/voice-caddy/pkg/provider/capture"
	"github.com/jasonnardone/voice-caddy/pkg/provider/internal/cmdrun"
)

// Source implements capture.Source with a screenshot command.
type Source struct {
	name string
	args []string
	run  cmdrun.Runner
}

var _ capture.Source = (*Source)(nil)

// Option configures a Source.
type Option func(*Source)

// WithRunner replaces the process runner.
func WithRunner(run cmdrun.Runner) Option {
	return func(s *Source) { s.run = run }
}

// New parses command into program and arguments.
func New(command string, opts ...Option) (*Source, error) {
	name, args, err := cmdrun.Split(command)
	if err != nil {
		return nil, fmt.Errorf("capture/command: %w", err)
	}
	s := &Source{name: name, args: args, run: cmdrun.Exec}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Capture implements capture.Source.
func (s *Source) Capture(ctx context.Context) (image.Image, error) {
	out, err := s.run(ctx, s.name, s.args, nil)
	if err != nil {
		return nil, fmt.Errorf("capture/command: run: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("capture/command: decode %d bytes: %w", len(out), err)
	}
	return img, nil
}

// Program returns the screenshot executable name.
func (s *Source) Program() string { return s.name }
