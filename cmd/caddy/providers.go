package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/jasonnardone/voice-caddy/internal/app"
	"github.com/jasonnardone/voice-caddy/internal/config"
	"github.com/jasonnardone/voice-caddy/internal/demo"
	"github.com/jasonnardone/voice-caddy/internal/resilience"
	"github.com/jasonnardone/voice-caddy/pkg/provider/capture"
	capcmd "github.com/jasonnardone/voice-caddy/pkg/provider/capture/command"
	"github.com/jasonnardone/voice-caddy/pkg/provider/capture/replay"
	"github.com/jasonnardone/voice-caddy/pkg/provider/capture/scripted"
	"github.com/jasonnardone/voice-caddy/pkg/provider/llm"
	"github.com/jasonnardone/voice-caddy/pkg/provider/llm/anyllm"
	"github.com/jasonnardone/voice-caddy/pkg/provider/llm/openai"
	"github.com/jasonnardone/voice-caddy/pkg/provider/ocr"
	"github.com/jasonnardone/voice-caddy/pkg/provider/ocr/httpocr"
	"github.com/jasonnardone/voice-caddy/pkg/provider/ocr/tesseract"
	"github.com/jasonnardone/voice-caddy/pkg/provider/speaker"
	spkcmd "github.com/jasonnardone/voice-caddy/pkg/provider/speaker/command"
	"github.com/jasonnardone/voice-caddy/pkg/provider/speaker/console"
	"github.com/jasonnardone/voice-caddy/pkg/provider/speaker/discord"
	"github.com/jasonnardone/voice-caddy/pkg/provider/speaker/synth"
	"github.com/jasonnardone/voice-caddy/pkg/provider/tts"
	"github.com/jasonnardone/voice-caddy/pkg/provider/tts/coqui"
	"github.com/jasonnardone/voice-caddy/pkg/provider/tts/elevenlabs"
)

// fallbackConfig is shared by every fallback group.
var fallbackConfig = resilience.FallbackConfig{
	CircuitBreaker: resilience.CircuitBreakerConfig{MaxFailures: 3, ResetTimeout: 30 * time.Second},
}

// defaultCaptureCommand returns a screenshot command that writes a PNG to
// stdout on the current platform, or "" when there is none.
func defaultCaptureCommand() string {
	switch runtime.GOOS {
	case "darwin":
		return "screencapture -x -t png /dev/stdout"
	case "linux":
		if os.Getenv("WAYLAND_DISPLAY") != "" {
			return "grim -t png -"
		}
		return "import -window root png:-"
	}
	return ""
}

// registerBuiltinProviders wires all built-in provider factories into reg.
// The "synth" speaker needs a TTS provider and is registered by
// buildProviders once one exists.
func registerBuiltinProviders(reg *config.Registry) {
	// ── LLM ───────────────────────────────────────────────────────────────────
	for _, providerName := range []string{
		"anthropic", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile",
	} {
		reg.RegisterLLM(providerName, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterLLM("ollama", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New("ollama", entry.Model, opts...)
	})

	reg.RegisterLLM("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []openai.Option
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		if org := optString(entry.Options, "organization"); org != "" {
			opts = append(opts, openai.WithOrganization(org))
		}
		if d := optDuration(entry.Options, "timeout"); d > 0 {
			opts = append(opts, openai.WithTimeout(d))
		}
		return openai.New(entry.APIKey, entry.Model, opts...)
	})

	// ── TTS ───────────────────────────────────────────────────────────────────

	reg.RegisterTTS("elevenlabs", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []elevenlabs.Option
		if entry.Model != "" {
			opts = append(opts, elevenlabs.WithModel(entry.Model))
		}
		if rate := optInt(entry.Options, "sample_rate"); rate > 0 {
			opts = append(opts, elevenlabs.WithSampleRate(rate))
		}
		return elevenlabs.New(entry.APIKey, opts...)
	})

	reg.RegisterTTS("coqui", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []coqui.Option
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, coqui.WithLanguage(lang))
		}
		if mode := optString(entry.Options, "api_mode"); mode != "" {
			opts = append(opts, coqui.WithAPIMode(coqui.APIMode(mode)))
		}
		if rate := optInt(entry.Options, "output_sample_rate"); rate > 0 {
			opts = append(opts, coqui.WithOutputSampleRate(rate))
		}
		return coqui.New(entry.BaseURL, opts...)
	})

	// ── Capture ───────────────────────────────────────────────────────────────

	reg.RegisterCapture("command", func(entry config.ProviderEntry) (capture.Source, error) {
		command := entry.Command
		if command == "" {
			command = defaultCaptureCommand()
		}
		if command == "" {
			return nil, fmt.Errorf("no default screenshot command on %s; set capture.command", runtime.GOOS)
		}
		return capcmd.New(command)
	})

	reg.RegisterCapture("replay", func(entry config.ProviderEntry) (capture.Source, error) {
		return replay.New(entry.Dir, replay.WithLoop(optBool(entry.Options, "loop")))
	})

	// The scripted screen is both the source and the recognizer. It shows
	// the opening tee of the demo round.
	screen := scripted.New()
	screen.Show(demo.Round()[0].Frame)
	reg.RegisterCapture("scripted", func(config.ProviderEntry) (capture.Source, error) { return screen, nil })
	reg.RegisterOCR("scripted", func(config.ProviderEntry) (ocr.Recognizer, error) { return screen, nil })

	// ── OCR ───────────────────────────────────────────────────────────────────

	reg.RegisterOCR("tesseract", func(entry config.ProviderEntry) (ocr.Recognizer, error) {
		var opts []tesseract.Option
		if entry.Command != "" {
			opts = append(opts, tesseract.WithBinary(entry.Command))
		}
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, tesseract.WithLanguage(lang))
		}
		if psm := optInt(entry.Options, "psm"); psm > 0 {
			opts = append(opts, tesseract.WithPageSegMode(psm))
		}
		return tesseract.New(opts...), nil
	})

	reg.RegisterOCR("http", func(entry config.ProviderEntry) (ocr.Recognizer, error) {
		var opts []httpocr.Option
		if entry.APIKey != "" {
			opts = append(opts, httpocr.WithAPIKey(entry.APIKey))
		}
		if field := optString(entry.Options, "field"); field != "" {
			opts = append(opts, httpocr.WithFieldName(field))
		}
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, httpocr.WithLanguage(lang))
		}
		if d := optDuration(entry.Options, "timeout"); d > 0 {
			opts = append(opts, httpocr.WithTimeout(d))
		}
		return httpocr.New(entry.BaseURL, opts...)
	})

	// ── Speaker ───────────────────────────────────────────────────────────────

	reg.RegisterSpeaker("console", func(config.SpeakerConfig) (speaker.Speaker, error) {
		return console.New(os.Stdout), nil
	})

	reg.RegisterSpeaker("command", func(sc config.SpeakerConfig) (speaker.Speaker, error) {
		var opts []spkcmd.Option
		if sc.Rate > 0 {
			opts = append(opts, spkcmd.WithRate(sc.Rate))
		}
		return spkcmd.New(sc.Command, opts...)
	})

	reg.RegisterSpeaker("discord", func(sc config.SpeakerConfig) (speaker.Speaker, error) {
		return discord.New(sc.APIKey, sc.ChannelID)
	})

	for _, kind := range []string{"llm", "tts", "capture", "ocr", "speaker"} {
		slog.Debug("registered providers", "kind", kind, "names", reg.Names(kind))
	}
}

// registerSynth registers the "synth" speaker on top of p.
func registerSynth(reg *config.Registry, p tts.Provider, providerName string) {
	reg.RegisterSpeaker("synth", func(sc config.SpeakerConfig) (speaker.Speaker, error) {
		var opts []synth.Option
		if sc.Command != "" {
			opts = append(opts, synth.WithPlayer(sc.Command))
		}
		if optBool(sc.Options, "wav") {
			opts = append(opts, synth.WithWAV(true))
		}
		return synth.New(p, tts.Voice{ID: sc.VoiceID, Provider: providerName}, opts...)
	})
}

// buildProviders instantiates all providers named in cfg using the registry
// and returns them in an [app.Providers] struct for the application to
// consume. Fallback entries are wrapped into circuit-breaking groups.
func buildProviders(cfg *config.Config, reg *config.Registry) (*app.Providers, error) {
	ps := &app.Providers{}

	src, err := reg.CreateCapture(cfg.Capture)
	if err != nil {
		return nil, fmt.Errorf("create capture source %q: %w", cfg.Capture.Name, err)
	}
	ps.Capture = src
	slog.Info("provider created", "kind", "capture", "name", cfg.Capture.Name)

	rec, err := buildOCR(cfg.OCR, reg)
	if err != nil {
		return nil, err
	}
	ps.OCR = rec

	if cfg.Commentary.Mode == config.ModeAI && cfg.Providers.LLM.Name != "" {
		p, err := buildLLM(cfg.Providers, reg)
		if err != nil {
			return nil, err
		}
		ps.LLM = p
	}

	if cfg.Speaker.Name == "synth" {
		p, err := buildTTS(cfg.Providers, reg)
		if err != nil {
			return nil, err
		}
		registerSynth(reg, p, cfg.Providers.TTS.Name)
	}
	spk, err := reg.CreateSpeaker(cfg.Speaker)
	if err != nil {
		return nil, fmt.Errorf("create speaker %q: %w", cfg.Speaker.Name, err)
	}
	ps.Speaker = spk
	slog.Info("provider created", "kind", "speaker", "name", cfg.Speaker.Name)

	return ps, nil
}

func buildOCR(c config.OCRConfig, reg *config.Registry) (ocr.Recognizer, error) {
	primary, err := reg.CreateOCR(c.ProviderEntry)
	if err != nil {
		return nil, fmt.Errorf("create ocr provider %q: %w", c.Name, err)
	}
	slog.Info("provider created", "kind", "ocr", "name", c.Name)
	if len(c.Fallbacks) == 0 {
		return primary, nil
	}
	group := resilience.NewOCRFallback(primary, c.Name, fallbackConfig)
	for _, fb := range c.Fallbacks {
		r, err := reg.CreateOCR(fb)
		if err != nil {
			return nil, fmt.Errorf("create ocr fallback %q: %w", fb.Name, err)
		}
		group.AddFallback(fb.Name, r)
		slog.Info("fallback created", "kind", "ocr", "name", fb.Name)
	}
	return group, nil
}

func buildLLM(c config.ProvidersConfig, reg *config.Registry) (llm.Provider, error) {
	primary, err := reg.CreateLLM(c.LLM)
	if err != nil {
		return nil, fmt.Errorf("create llm provider %q: %w", c.LLM.Name, err)
	}
	slog.Info("provider created", "kind", "llm", "name", c.LLM.Name, "model", c.LLM.Model)
	if len(c.LLMFallbacks) == 0 {
		return primary, nil
	}
	group := resilience.NewLLMFallback(primary, c.LLM.Name, fallbackConfig)
	for _, fb := range c.LLMFallbacks {
		p, err := reg.CreateLLM(fb)
		if err != nil {
			return nil, fmt.Errorf("create llm fallback %q: %w", fb.Name, err)
		}
		group.AddFallback(fb.Name, p)
		slog.Info("fallback created", "kind", "llm", "name", fb.Name)
	}
	return group, nil
}

func buildTTS(c config.ProvidersConfig, reg *config.Registry) (tts.Provider, error) {
	if c.TTS.Name == "" {
		return nil, errors.New("speaker synth requires providers.tts")
	}
	primary, err := reg.CreateTTS(c.TTS)
	if err != nil {
		return nil, fmt.Errorf("create tts provider %q: %w", c.TTS.Name, err)
	}
	slog.Info("provider created", "kind", "tts", "name", c.TTS.Name)
	if len(c.TTSFallbacks) == 0 {
		return primary, nil
	}
	group := resilience.NewTTSFallback(primary, c.TTS.Name, fallbackConfig)
	for _, fb := range c.TTSFallbacks {
		p, err := reg.CreateTTS(fb)
		if err != nil {
			return nil, fmt.Errorf("create tts fallback %q: %w", fb.Name, err)
		}
		group.AddFallback(fb.Name, p)
		slog.Info("fallback created", "kind", "tts", "name", fb.Name)
	}
	return group, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// optString extracts a string value from a provider Options map[string]any.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	s, _ := opts[key].(string)
	return s
}

// optInt accepts YAML integers and floats.
func optInt(opts map[string]any, key string) int {
	switch v := opts[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func optBool(opts map[string]any, key string) bool {
	b, _ := opts[key].(bool)
	return b
}

// optDuration parses strings such as "10s".
func optDuration(opts map[string]any, key string) time.Duration {
	d, err := time.ParseDuration(optString(opts, key))
	if err != nil {
		return 0
	}
	return d
}

// setRate sets the speaking rate on speakers that support it.
func setRate(spk speaker.Speaker, wpm int) {
	if rs, ok := spk.(speaker.RateSetter); ok && wpm > 0 {
		rs.SetRate(wpm)
	}
}
