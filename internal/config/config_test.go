package config_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jasonnardone/voice-caddy/internal/config"
	"github.com/jasonnardone/voice-caddy/pkg/provider/capture"
	capturemock "github.com/jasonnardone/voice-caddy/pkg/provider/capture/mock"
	"github.com/jasonnardone/voice-caddy/pkg/provider/llm"
	llmmock "github.com/jasonnardone/voice-caddy/pkg/provider/llm/mock"
	"github.com/jasonnardone/voice-caddy/pkg/provider/ocr"
	ocrmock "github.com/jasonnardone/voice-caddy/pkg/provider/ocr/mock"
	"github.com/jasonnardone/voice-caddy/pkg/provider/speaker"
	speakermock "github.com/jasonnardone/voice-caddy/pkg/provider/speaker/mock"
	"github.com/jasonnardone/voice-caddy/pkg/provider/tts"
	ttsmock "github.com/jasonnardone/voice-caddy/pkg/provider/tts/mock"
)

const sampleYAML = `
server:
  listen_addr: ":9090"
  log_level: debug

monitor:
  interval: 500ms
  change_threshold: 7.5
  shot_delta_yards: 25
  wind_threshold_mph: 12
  cycle_timeout: 20s

capture:
  name: command
  command: "grim -t png -"

ocr:
  name: tesseract
  options:
    psm: 6
  fallbacks:
    - name: http
      base_url: http://localhost:8884/ocr

commentary:
  mode: ai
  personality: pirate
  max_tokens: 120
  temperature: 0.9

providers:
  llm:
    name: anthropic
    api_key: sk-ant-test
    model: claude-sonnet-4-20250514
  llm_fallbacks:
    - name: openai
      model: gpt-4o-mini
  tts:
    name: elevenlabs
    api_key: el-test

speaker:
  name: synth
  voice_id: abc123
  rate: 170

debug:
  enabled: true
  dir: /tmp/frames
  s3_bucket: caddy-frames
  s3_region: us-east-1
`

func TestLoadFromReader_Valid(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.ListenAddr != ":9090" || cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("server = %+v", cfg.Server)
	}
	want := config.MonitorConfig{
		Interval:         500 * time.Millisecond,
		ChangeThreshold:  7.5,
		ShotDeltaYards:   25,
		WindThresholdMph: 12,
		CycleTimeout:     20 * time.Second,
	}
	if cfg.Monitor != want {
		t.Errorf("monitor = %+v, want %+v", cfg.Monitor, want)
	}
	if cfg.Capture.Command != "grim -t png -" {
		t.Errorf("capture.command = %q", cfg.Capture.Command)
	}
	if cfg.OCR.Name != "tesseract" || cfg.OCR.Options["psm"] != 6 {
		t.Errorf("ocr = %+v", cfg.OCR.ProviderEntry)
	}
	if len(cfg.OCR.Fallbacks) != 1 || cfg.OCR.Fallbacks[0].BaseURL != "http://localhost:8884/ocr" {
		t.Errorf("ocr.fallbacks = %+v", cfg.OCR.Fallbacks)
	}
	if cfg.Commentary.Personality != "pirate" || cfg.Commentary.MaxTokens != 120 {
		t.Errorf("commentary = %+v", cfg.Commentary)
	}
	if len(cfg.Providers.LLMFallbacks) != 1 || cfg.Providers.LLMFallbacks[0].Name != "openai" {
		t.Errorf("llm_fallbacks = %+v", cfg.Providers.LLMFallbacks)
	}
	if cfg.Speaker.Name != "synth" || cfg.Speaker.VoiceID != "abc123" || cfg.Speaker.Rate != 170 {
		t.Errorf("speaker = %+v", cfg.Speaker)
	}
	if !cfg.Debug.Enabled || cfg.Debug.S3Bucket != "caddy-frames" {
		t.Errorf("debug = %+v", cfg.Debug)
	}
}

func TestLoadFromReader_EmptyAppliesDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tests := []struct {
		name      string
		got, want any
	}{
		{"log level", cfg.Server.LogLevel, config.LogInfo},
		{"interval", cfg.Monitor.Interval, time.Second},
		{"threshold", cfg.Monitor.ChangeThreshold, 5.0},
		{"shot delta", cfg.Monitor.ShotDeltaYards, 20},
		{"wind", cfg.Monitor.WindThresholdMph, 10},
		{"cycle timeout", cfg.Monitor.CycleTimeout, 30 * time.Second},
		{"capture", cfg.Capture.Name, "command"},
		{"ocr", cfg.OCR.Name, "tesseract"},
		{"mode", cfg.Commentary.Mode, config.ModeAI},
		{"personality", cfg.Commentary.Personality, "normal"},
		{"max tokens", cfg.Commentary.MaxTokens, 150},
		{"temperature", cfg.Commentary.Temperature, 0.8},
		{"llm", cfg.Providers.LLM.Name, "anthropic"},
		{"model", cfg.Providers.LLM.Model, "claude-sonnet-4-20250514"},
		{"speaker", cfg.Speaker.Name, "console"},
		{"debug dir", cfg.Debug.Dir, "debug_screenshots"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestApplyDefaults_PlainModeHasNoLLM(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{Commentary: config.CommentaryConfig{Mode: config.ModePlain}}
	config.ApplyDefaults(cfg)
	if cfg.Providers.LLM.Name != "" {
		t.Errorf("plain mode got llm %q", cfg.Providers.LLM.Name)
	}
	if err := config.Validate(cfg); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("monitor:\n  intervall: 1s\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"log level", "server:\n  log_level: verbose\n", "server.log_level"},
		{"threshold", "monitor:\n  change_threshold: 150\n", "monitor.change_threshold"},
		{"negative interval", "monitor:\n  interval: -1s\n", "monitor.interval"},
		{"wind", "monitor:\n  wind_threshold_mph: 60\n", "monitor.wind_threshold_mph"},
		{"replay dir", "capture:\n  name: replay\n", "capture.dir"},
		{"http ocr", "ocr:\n  name: http\n", "ocr.base_url"},
		{"http ocr fallback", "ocr:\n  fallbacks:\n    - name: http\n", "ocr.fallbacks[0].base_url"},
		{"mode", "commentary:\n  mode: sarcastic\n", "commentary.mode"},
		{"temperature", "commentary:\n  temperature: 3\n", "commentary.temperature"},
		{"fallback name", "providers:\n  llm_fallbacks:\n    - model: x\n", "providers.llm_fallbacks[0].name"},
		{"synth tts", "speaker:\n  name: synth\n  voice_id: v\n", "requires providers.tts"},
		{"synth voice", "speaker:\n  name: synth\nproviders:\n  tts:\n    name: coqui\n", "speaker.voice_id"},
		{"discord token", "speaker:\n  name: discord\n  channel_id: \"1\"\n", "bot token"},
		{"discord channel", "speaker:\n  name: discord\n  api_key: t\n", "speaker.channel_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := config.LoadFromReader(strings.NewReader(tt.yaml))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: loud
monitor:
  change_threshold: -1
commentary:
  mode: shouty
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"server.log_level", "monitor.change_threshold", "commentary.mode"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("joined error should mention %q, got: %v", want, err)
		}
	}
}

// ── registry ─────────────────────────────────────────────────────────────────

func TestRegistry_Unknown(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	entry := config.ProviderEntry{Name: "nope"}

	_, errLLM := reg.CreateLLM(entry)
	_, errTTS := reg.CreateTTS(entry)
	_, errCap := reg.CreateCapture(entry)
	_, errOCR := reg.CreateOCR(entry)
	_, errSpk := reg.CreateSpeaker(config.SpeakerConfig{ProviderEntry: entry})
	for i, err := range []error{errLLM, errTTS, errCap, errOCR, errSpk} {
		if !errors.Is(err, config.ErrProviderNotRegistered) {
			t.Errorf("[%d] expected ErrProviderNotRegistered, got %v", i, err)
		}
	}
}

func TestRegistry_Registered(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()

	var gotEntry config.ProviderEntry
	reg.RegisterLLM("mock", func(e config.ProviderEntry) (llm.Provider, error) {
		gotEntry = e
		return &llmmock.Provider{}, nil
	})
	reg.RegisterTTS("mock", func(config.ProviderEntry) (tts.Provider, error) { return &ttsmock.Provider{}, nil })
	reg.RegisterCapture("mock", func(config.ProviderEntry) (capture.Source, error) { return &capturemock.Source{}, nil })
	reg.RegisterOCR("mock", func(config.ProviderEntry) (ocr.Recognizer, error) { return &ocrmock.Recognizer{}, nil })
	var gotChannel string
	reg.RegisterSpeaker("mock", func(c config.SpeakerConfig) (speaker.Speaker, error) {
		gotChannel = c.ChannelID
		return &speakermock.Speaker{}, nil
	})

	entry := config.ProviderEntry{Name: "mock", APIKey: "k", Model: "m"}
	if _, err := reg.CreateLLM(entry); err != nil {
		t.Errorf("CreateLLM: %v", err)
	}
	if gotEntry.APIKey != "k" || gotEntry.Model != "m" {
		t.Errorf("factory got %+v", gotEntry)
	}
	if _, err := reg.CreateTTS(entry); err != nil {
		t.Errorf("CreateTTS: %v", err)
	}
	if _, err := reg.CreateCapture(entry); err != nil {
		t.Errorf("CreateCapture: %v", err)
	}
	if _, err := reg.CreateOCR(entry); err != nil {
		t.Errorf("CreateOCR: %v", err)
	}
	if _, err := reg.CreateSpeaker(config.SpeakerConfig{ProviderEntry: entry, ChannelID: "42"}); err != nil {
		t.Errorf("CreateSpeaker: %v", err)
	}
	if gotChannel != "42" {
		t.Errorf("speaker factory got channel %q", gotChannel)
	}
	if names := reg.Names("ocr"); len(names) != 1 || names[0] != "mock" {
		t.Errorf("Names(ocr) = %v", names)
	}
}

func TestRegistry_FactoryError(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	boom := errors.New("no display")
	reg.RegisterCapture("broken", func(config.ProviderEntry) (capture.Source, error) { return nil, boom })
	if _, err := reg.CreateCapture(config.ProviderEntry{Name: "broken"}); !errors.Is(err, boom) {
		t.Errorf("expected factory error, got %v", err)
	}
}

func TestRegistry_NamesSorted(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	for _, n := range []string{"tesseract", "http", "scripted"} {
		reg.RegisterOCR(n, func(config.ProviderEntry) (ocr.Recognizer, error) { return nil, nil })
	}
	got := strings.Join(reg.Names("ocr"), ",")
	if got != "http,scripted,tesseract" {
		t.Errorf("Names = %s", got)
	}
	if len(reg.Names("unknown")) != 0 {
		t.Error("unknown kind should have no names")
	}
}
