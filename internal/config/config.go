// Package config provides the configuration schema, loader, and provider
// registry for the voice caddy.
package config

import "time"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// CommentaryMode selects how announcements are phrased.
type CommentaryMode string

const (
	// ModeAI phrases announcements with the configured LLM and personality.
	ModeAI CommentaryMode = "ai"

	// ModePlain speaks the situation text as is.
	ModePlain CommentaryMode = "plain"
)

// IsValid reports whether m is a recognised commentary mode.
func (m CommentaryMode) IsValid() bool {
	return m == ModeAI || m == ModePlain
}

// Defaults applied by [ApplyDefaults].
const (
	DefaultLogLevel         = LogInfo
	DefaultInterval         = time.Second
	DefaultChangeThreshold  = 5.0
	DefaultShotDeltaYards   = 20
	DefaultWindThresholdMph = 10
	DefaultCycleTimeout     = 30 * time.Second
	DefaultCaptureName      = "command"
	DefaultOCRName          = "tesseract"
	DefaultSpeakerName      = "console"
	DefaultPersonality      = "normal"
	DefaultLLMName          = "anthropic"
	DefaultLLMModel         = "claude-sonnet-4-20250514"
	DefaultMaxTokens        = 150
	DefaultTemperature      = 0.8
	DefaultDebugDir         = "debug_screenshots"
)

// Config is the root configuration structure.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Monitor    MonitorConfig    `yaml:"monitor"`
	Capture    ProviderEntry    `yaml:"capture"`
	OCR        OCRConfig        `yaml:"ocr"`
	Commentary CommentaryConfig `yaml:"commentary"`
	Providers  ProvidersConfig  `yaml:"providers"`
	Speaker    SpeakerConfig    `yaml:"speaker"`
	Debug      DebugConfig      `yaml:"debug"`
}

// ServerConfig holds logging and the optional status listener.
type ServerConfig struct {
	// ListenAddr enables the /healthz, /readyz, /statusz and /metrics
	// endpoints when set (e.g. ":9090").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// MonitorConfig holds the loop tunables. Everything except CycleTimeout
// can be changed while running.
type MonitorConfig struct {
	// Interval is the delay between captures.
	Interval time.Duration `yaml:"interval"`

	// ChangeThreshold is the percentage of changed pixels needed to process
	// a frame.
	ChangeThreshold float64 `yaml:"change_threshold"`

	// ShotDeltaYards is the distance change counted as a new shot.
	ShotDeltaYards int `yaml:"shot_delta_yards"`

	// WindThresholdMph is the lowest wind speed worth announcing.
	WindThresholdMph int `yaml:"wind_threshold_mph"`

	// CycleTimeout bounds one capture-to-speech pass.
	CycleTimeout time.Duration `yaml:"cycle_timeout"`
}

// ProviderEntry is the common configuration block shared by all provider
// types. The Name field is used to look up the constructor in the
// [Registry].
type ProviderEntry struct {
	// Name selects the registered implementation (e.g. "tesseract", "openai").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default endpoint.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider.
	Model string `yaml:"model"`

	// Command is the external program line for process-backed providers.
	Command string `yaml:"command"`

	// Dir is a directory for file-backed providers.
	Dir string `yaml:"dir"`

	// Options holds provider-specific values not covered by the fields above.
	Options map[string]any `yaml:"options"`
}

// OCRConfig selects the text recognizer and its fallbacks.
type OCRConfig struct {
	ProviderEntry `yaml:",inline"`

	// Fallbacks are tried in order when the primary recognizer fails.
	Fallbacks []ProviderEntry `yaml:"fallbacks"`
}

// CommentaryConfig controls how announcements are phrased.
type CommentaryConfig struct {
	Mode CommentaryMode `yaml:"mode"`

	// Personality is the key of the active personality (e.g. "pirate").
	Personality string `yaml:"personality"`

	// PersonalitiesFile adds to or overrides the built-in personalities.
	PersonalitiesFile string `yaml:"personalities_file"`

	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// ProvidersConfig selects the model-backed providers.
type ProvidersConfig struct {
	LLM          ProviderEntry   `yaml:"llm"`
	LLMFallbacks []ProviderEntry `yaml:"llm_fallbacks"`
	TTS          ProviderEntry   `yaml:"tts"`
	TTSFallbacks []ProviderEntry `yaml:"tts_fallbacks"`
}

// SpeakerConfig selects the speech output.
type SpeakerConfig struct {
	ProviderEntry `yaml:",inline"`

	// VoiceID is the TTS voice used by the "synth" speaker.
	VoiceID string `yaml:"voice_id"`

	// ChannelID is the Discord text channel used by the "discord" speaker.
	// APIKey holds the bot token.
	ChannelID string `yaml:"channel_id"`

	// Rate is the speaking rate in words per minute. Zero uses the
	// personality's rate.
	Rate int `yaml:"rate"`
}

// DebugConfig enables saving changed frames.
type DebugConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Dir      string `yaml:"dir"`
	S3Bucket string `yaml:"s3_bucket"`
	S3Region string `yaml:"s3_region"`
	S3Prefix string `yaml:"s3_prefix"`
}

// ApplyDefaults fills zero values with their defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = DefaultLogLevel
	}
	m := &cfg.Monitor
	if m.Interval == 0 {
		m.Interval = DefaultInterval
	}
	if m.ChangeThreshold == 0 {
		m.ChangeThreshold = DefaultChangeThreshold
	}
	if m.ShotDeltaYards == 0 {
		m.ShotDeltaYards = DefaultShotDeltaYards
	}
	if m.WindThresholdMph == 0 {
		m.WindThresholdMph = DefaultWindThresholdMph
	}
	if m.CycleTimeout == 0 {
		m.CycleTimeout = DefaultCycleTimeout
	}
	if cfg.Capture.Name == "" {
		cfg.Capture.Name = DefaultCaptureName
	}
	if cfg.OCR.Name == "" {
		cfg.OCR.Name = DefaultOCRName
	}
	c := &cfg.Commentary
	if c.Mode == "" {
		c.Mode = ModeAI
	}
	if c.Personality == "" {
		c.Personality = DefaultPersonality
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.Mode == ModeAI && cfg.Providers.LLM.Name == "" {
		cfg.Providers.LLM.Name = DefaultLLMName
		if cfg.Providers.LLM.Model == "" {
			cfg.Providers.LLM.Model = DefaultLLMModel
		}
	}
	if cfg.Speaker.Name == "" {
		cfg.Speaker.Name = DefaultSpeakerName
	}
	if cfg.Debug.Dir == "" {
		cfg.Debug.Dir = DefaultDebugDir
	}
}
