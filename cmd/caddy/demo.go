package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/jasonnardone/voice-caddy/internal/commentary"
	"github.com/jasonnardone/voice-caddy/internal/config"
	"github.com/jasonnardone/voice-caddy/internal/demo"
)

type demoFlags struct {
	personality string
	plain       bool
	compare     []string
	pause       time.Duration
}

func newDemoCmd(root *rootFlags) *cobra.Command {
	f := &demoFlags{}
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Play a scripted round through the full pipeline",
		Long: `demo renders a scripted simulator screen for each step of a short round
and runs it through change detection, parsing, commentary and speech.

With --compare the same situation is given to several personalities.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemo(cmd, root, f)
		},
	}
	cmd.Flags().StringVarP(&f.personality, "personality", "p", "", "caddy personality")
	cmd.Flags().BoolVar(&f.plain, "plain", false, "speak the situation without an LLM")
	cmd.Flags().StringSliceVar(&f.compare, "compare", nil, "compare these personalities on one situation (\"all\" for every one)")
	cmd.Flags().DurationVar(&f.pause, "pause", 2*time.Second, "delay between steps")
	return cmd
}

func runDemo(cmd *cobra.Command, root *rootFlags, f *demoFlags) error {
	cfg, _, err := loadConfig(cmd, root)
	if err != nil {
		return err
	}
	if f.personality != "" {
		cfg.Commentary.Personality = f.personality
	}
	if f.plain {
		cfg.Commentary.Mode = config.ModePlain
	}
	if root.apiKey != "" {
		cfg.Providers.LLM.APIKey = root.apiKey
	}
	newLogger(cfg.Server.LogLevel, root.verbose)

	reg := config.NewRegistry()
	registerBuiltinProviders(reg)
	if cfg.Speaker.Name == "synth" {
		p, err := buildTTS(cfg.Providers, reg)
		if err != nil {
			return err
		}
		registerSynth(reg, p, cfg.Providers.TTS.Name)
	}
	spk, err := reg.CreateSpeaker(cfg.Speaker)
	if err != nil {
		return fmt.Errorf("create speaker %q: %w", cfg.Speaker.Name, err)
	}

	personas := commentary.Builtin()
	if path := cfg.Commentary.PersonalitiesFile; path != "" {
		if personas, err = commentary.LoadPersonas(path); err != nil {
			return err
		}
	}
	persona, ok := personas.Lookup(cfg.Commentary.Personality)
	if !ok {
		slog.Warn("unknown personality, using the default prompt", "personality", cfg.Commentary.Personality)
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if len(f.compare) > 0 {
		if cfg.Commentary.Mode != config.ModeAI {
			return errors.New("--compare needs ai commentary")
		}
		p, err := buildLLM(cfg.Providers, reg)
		if err != nil {
			return err
		}
		keys := f.compare
		if len(keys) == 1 && keys[0] == "all" {
			keys = nil
		}
		return demo.Compare(ctx, p, personas, keys, demo.CompareSituation, out, spk)
	}

	var gen commentary.Generator = commentary.PlainGenerator{}
	if cfg.Commentary.Mode == config.ModeAI {
		p, err := buildLLM(cfg.Providers, reg)
		if err != nil {
			return err
		}
		gen, err = commentary.NewLLMGenerator(p, persona,
			commentary.WithMaxTokens(cfg.Commentary.MaxTokens),
			commentary.WithTemperature(cfg.Commentary.Temperature),
		)
		if err != nil {
			return err
		}
	}
	if rate := cfg.Speaker.Rate; rate > 0 {
		setRate(spk, rate)
	} else {
		setRate(spk, persona.VoiceRate)
	}

	d, err := demo.New(gen, spk, demo.WithOutput(out), demo.WithPause(f.pause))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Demo round with %s (%s commentary)\n", persona.Name, cfg.Commentary.Mode)
	snap, err := d.Run(ctx)
	if werr := snap.WriteReport(out); werr != nil {
		slog.Warn("writing session report failed", "err", werr)
	}
	return err
}
