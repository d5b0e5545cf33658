package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm":     {"anthropic", "openai", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"tts":     {"elevenlabs", "coqui"},
	"capture": {"command", "replay", "scripted"},
	"ocr":     {"tesseract", "http", "scripted"},
	"speaker": {"console", "command", "synth", "discord"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults applied.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and
// validates the result. An empty document yields the default config.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	m := cfg.Monitor
	if m.Interval < 0 {
		errs = append(errs, fmt.Errorf("monitor.interval %s must not be negative", m.Interval))
	}
	if m.ChangeThreshold < 0 || m.ChangeThreshold > 100 {
		errs = append(errs, fmt.Errorf("monitor.change_threshold %.2f is out of range [0, 100]", m.ChangeThreshold))
	}
	if m.ShotDeltaYards < 0 {
		errs = append(errs, fmt.Errorf("monitor.shot_delta_yards %d must not be negative", m.ShotDeltaYards))
	}
	if m.WindThresholdMph < 0 || m.WindThresholdMph > 50 {
		errs = append(errs, fmt.Errorf("monitor.wind_threshold_mph %d is out of range [0, 50]", m.WindThresholdMph))
	}
	if m.CycleTimeout < 0 {
		errs = append(errs, fmt.Errorf("monitor.cycle_timeout %s must not be negative", m.CycleTimeout))
	}

	validateProviderName("capture", cfg.Capture.Name)
	switch cfg.Capture.Name {
	case "command":
		if cfg.Capture.Command == "" {
			slog.Debug("capture.command is empty; using the platform default screenshot command")
		}
	case "replay":
		if cfg.Capture.Dir == "" {
			errs = append(errs, errors.New("capture.dir is required for the replay source"))
		}
	}

	validateProviderName("ocr", cfg.OCR.Name)
	for i, e := range append([]ProviderEntry{cfg.OCR.ProviderEntry}, cfg.OCR.Fallbacks...) {
		if e.Name == "http" && e.BaseURL == "" {
			field := "ocr.base_url"
			if i > 0 {
				field = fmt.Sprintf("ocr.fallbacks[%d].base_url", i-1)
			}
			errs = append(errs, fmt.Errorf("%s is required for the http recognizer", field))
		}
	}

	c := cfg.Commentary
	if c.Mode != "" && !c.Mode.IsValid() {
		errs = append(errs, fmt.Errorf("commentary.mode %q is invalid; valid values: ai, plain", c.Mode))
	}
	if c.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("commentary.max_tokens %d must not be negative", c.MaxTokens))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("commentary.temperature %.2f is out of range [0, 2]", c.Temperature))
	}
	if c.Mode == ModeAI && cfg.Providers.LLM.Name == "" {
		errs = append(errs, errors.New("commentary.mode ai requires providers.llm"))
	}

	validateProviderName("llm", cfg.Providers.LLM.Name)
	for i, fb := range cfg.Providers.LLMFallbacks {
		if fb.Name == "" {
			errs = append(errs, fmt.Errorf("providers.llm_fallbacks[%d].name is required", i))
		}
		validateProviderName("llm", fb.Name)
	}
	validateProviderName("tts", cfg.Providers.TTS.Name)
	for i, fb := range cfg.Providers.TTSFallbacks {
		if fb.Name == "" {
			errs = append(errs, fmt.Errorf("providers.tts_fallbacks[%d].name is required", i))
		}
		validateProviderName("tts", fb.Name)
	}

	validateProviderName("speaker", cfg.Speaker.Name)
	switch cfg.Speaker.Name {
	case "synth":
		if cfg.Providers.TTS.Name == "" {
			errs = append(errs, errors.New("speaker synth requires providers.tts"))
		}
		if cfg.Speaker.VoiceID == "" {
			errs = append(errs, errors.New("speaker.voice_id is required for the synth speaker"))
		}
	case "discord":
		if cfg.Speaker.APIKey == "" {
			errs = append(errs, errors.New("speaker.api_key (bot token) is required for the discord speaker"))
		}
		if cfg.Speaker.ChannelID == "" {
			errs = append(errs, errors.New("speaker.channel_id is required for the discord speaker"))
		}
	}
	if cfg.Speaker.Rate < 0 {
		errs = append(errs, fmt.Errorf("speaker.rate %d must not be negative", cfg.Speaker.Rate))
	}

	if cfg.Debug.S3Bucket != "" && !cfg.Debug.Enabled {
		slog.Warn("debug.s3_bucket is set but debug.enabled is false; frames will not be uploaded")
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or a custom registration",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
