// Package demo plays a scripted round through the full monitor pipeline.
//
// Each step renders a simulator HUD with the scripted screen, so the
// change detector, parser, reconciler and commentary trigger all run
// exactly as they do against a live screen.
package demo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jasonnardone/voice-caddy/internal/commentary"
	"github.com/jasonnardone/voice-caddy/internal/monitor"
	"github.com/jasonnardone/voice-caddy/pkg/provider/capture/scripted"
	"github.com/jasonnardone/voice-caddy/pkg/provider/llm"
	"github.com/jasonnardone/voice-caddy/pkg/provider/speaker"
)

// Step is one scripted screen.
type Step struct {
	Name  string
	Frame scripted.Frame
}

// Round returns the built-in scenario: two holes, a windy approach, a
// short game, a still frame and a par five.
func Round() []Step {
	return []Step{
		{"Opening tee", scripted.Frame{Scene: 1, Lines: []string{"HOLE 1  PAR 4", "387 yds"}}},
		{"Good position", scripted.Frame{Scene: 2, Lines: []string{"HOLE 1  PAR 4", "145 yds"}}},
		{"Wind picks up", scripted.Frame{Scene: 3, Lines: []string{"HOLE 1  PAR 4", "145 yds", "Wind 18 mph"}}},
		{"Short game", scripted.Frame{Scene: 4, Lines: []string{"HOLE 1  PAR 4", "50 yds", "Wind 18 mph"}}},
		{"Pressure putt", scripted.Frame{Scene: 5, Lines: []string{"HOLE 1  PAR 4", "15 yds", "Wind 18 mph"}}},
		{"New hole, easy one", scripted.Frame{Scene: 6, Lines: []string{"HOLE 3  PAR 3", "147 yds", "Wind 18 mph"}}},
		{"Nothing moves", scripted.Frame{Scene: 6, Lines: []string{"HOLE 3  PAR 3", "147 yds", "Wind 18 mph"}}},
		{"The monster", scripted.Frame{Scene: 7, Lines: []string{"HOLE 8  PAR 5", "587 yds", "Wind 18 mph"}}},
	}
}

// Demo runs steps through a monitor built on a scripted screen.
type Demo struct {
	gen   commentary.Generator
	spk   speaker.Speaker
	out   io.Writer
	pause time.Duration
	steps []Step
}

// Option configures a Demo.
type Option func(*Demo)

// WithOutput sets where the step log is written. Default stdout.
func WithOutput(w io.Writer) Option {
	return func(d *Demo) { d.out = w }
}

// WithPause sets the delay between steps. Default 2s.
func WithPause(p time.Duration) Option {
	return func(d *Demo) { d.pause = p }
}

// WithSteps replaces the built-in round.
func WithSteps(steps []Step) Option {
	return func(d *Demo) { d.steps = steps }
}

// New returns a Demo that voices commentary from gen through spk.
func New(gen commentary.Generator, spk speaker.Speaker, opts ...Option) (*Demo, error) {
	if gen == nil || spk == nil {
		return nil, errors.New("demo: generator and speaker are required")
	}
	d := &Demo{gen: gen, spk: spk, out: os.Stdout, pause: 2 * time.Second, steps: Round()}
	for _, o := range opts {
		o(d)
	}
	return d, nil
}

// Run plays every step and returns the session stats. It stops early when
// ctx is cancelled.
func (d *Demo) Run(ctx context.Context, opts ...monitor.Option) (monitor.Snapshot, error) {
	screen := scripted.New()
	stats := monitor.NewStats()
	opts = append([]monitor.Option{monitor.WithStats(stats)}, opts...)
	mon, err := monitor.New(screen, screen, d.gen, d.spk, opts...)
	if err != nil {
		return monitor.Snapshot{}, fmt.Errorf("demo: %w", err)
	}

	for i, step := range d.steps {
		if i > 0 {
			select {
			case <-ctx.Done():
				return stats.Snapshot(), ctx.Err()
			case <-time.After(d.pause):
			}
		}
		screen.Show(step.Frame)
		res := mon.Cycle(ctx)

		fmt.Fprintf(d.out, "\n[%d/%d] %s\n", i+1, len(d.steps), step.Name)
		fmt.Fprintf(d.out, "  screen:  %s\n", strings.Join(step.Frame.Lines, " | "))
		fmt.Fprintf(d.out, "  change:  %.1f%%\n", res.Decision.Magnitude)
		fmt.Fprintf(d.out, "  outcome: %s\n", res.Outcome)
		if res.Context != "" {
			fmt.Fprintf(d.out, "  context: %s\n", res.Context)
		}
		if res.Commentary != "" {
			fmt.Fprintf(d.out, "  caddy:   %s\n", res.Commentary)
		}
		if res.Err != nil {
			fmt.Fprintf(d.out, "  error:   %v\n", res.Err)
		}
	}
	return stats.Snapshot(), nil
}

// CompareSituation is the line every personality is asked about by
// [Compare].
const CompareSituation = "Current distance: 145 yards. Second shot on a par 4."

// Compare asks each personality in keys to comment on situation and writes
// the answers to w. When spk is non-nil each answer is also spoken at the
// personality's rate.
func Compare(ctx context.Context, p llm.Provider, personas commentary.Personas, keys []string, situation string, w io.Writer, spk speaker.Speaker) error {
	if len(keys) == 0 {
		keys = personas.Keys()
	}
	fmt.Fprintf(w, "Situation: %s\n", situation)
	var errs []error
	for _, key := range keys {
		persona, _ := personas.Lookup(key)
		gen, err := commentary.NewLLMGenerator(p, persona)
		if err != nil {
			return fmt.Errorf("demo: %w", err)
		}
		line, err := gen.Generate(ctx, situation)
		if err != nil {
			fmt.Fprintf(w, "\n%s (%s): error: %v\n", persona.Name, key, err)
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		fmt.Fprintf(w, "\n%s (%s):\n  %s\n", persona.Name, key, line)
		if spk == nil {
			continue
		}
		if rs, ok := spk.(speaker.RateSetter); ok && persona.VoiceRate > 0 {
			rs.SetRate(persona.VoiceRate)
		}
		if err := spk.Speak(ctx, line); err != nil {
			errs = append(errs, fmt.Errorf("%s: speak: %w", key, err))
		}
		if ctx.Err() != nil {
			break
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("demo: compare: %w", err)
	}
	return nil
}
