package config

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/jasonnardone/voice-caddy/pkg/provider/capture"
	"github.com/jasonnardone/voice-caddy/pkg/provider/llm"
	"github.com/jasonnardone/voice-caddy/pkg/provider/ocr"
	"github.com/jasonnardone/voice-caddy/pkg/provider/speaker"
	"github.com/jasonnardone/voice-caddy/pkg/provider/tts"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions for each
// provider type. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	llm     map[string]func(ProviderEntry) (llm.Provider, error)
	tts     map[string]func(ProviderEntry) (tts.Provider, error)
	capture map[string]func(ProviderEntry) (capture.Source, error)
	ocr     map[string]func(ProviderEntry) (ocr.Recognizer, error)
	speaker map[string]func(SpeakerConfig) (speaker.Speaker, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		llm:     make(map[string]func(ProviderEntry) (llm.Provider, error)),
		tts:     make(map[string]func(ProviderEntry) (tts.Provider, error)),
		capture: make(map[string]func(ProviderEntry) (capture.Source, error)),
		ocr:     make(map[string]func(ProviderEntry) (ocr.Recognizer, error)),
		speaker: make(map[string]func(SpeakerConfig) (speaker.Speaker, error)),
	}
}

// RegisterLLM registers an LLM provider factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterLLM(name string, factory func(ProviderEntry) (llm.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llm[name] = factory
}

// RegisterTTS registers a TTS provider factory under name.
func (r *Registry) RegisterTTS(name string, factory func(ProviderEntry) (tts.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tts[name] = factory
}

// RegisterCapture registers an image source factory under name.
func (r *Registry) RegisterCapture(name string, factory func(ProviderEntry) (capture.Source, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.capture[name] = factory
}

// RegisterOCR registers a text recognizer factory under name.
func (r *Registry) RegisterOCR(name string, factory func(ProviderEntry) (ocr.Recognizer, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ocr[name] = factory
}

// RegisterSpeaker registers a speech output factory under name.
func (r *Registry) RegisterSpeaker(name string, factory func(SpeakerConfig) (speaker.Speaker, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.speaker[name] = factory
}

// CreateLLM instantiates an LLM provider using the factory registered under entry.Name.
// Returns [ErrProviderNotRegistered] if no factory has been registered for that name.
func (r *Registry) CreateLLM(entry ProviderEntry) (llm.Provider, error) {
	return create(r, r.llm, "llm", entry.Name, entry)
}

// CreateTTS instantiates a TTS provider using the factory registered under entry.Name.
func (r *Registry) CreateTTS(entry ProviderEntry) (tts.Provider, error) {
	return create(r, r.tts, "tts", entry.Name, entry)
}

// CreateCapture instantiates an image source using the factory registered under entry.Name.
func (r *Registry) CreateCapture(entry ProviderEntry) (capture.Source, error) {
	return create(r, r.capture, "capture", entry.Name, entry)
}

// CreateOCR instantiates a text recognizer using the factory registered under entry.Name.
func (r *Registry) CreateOCR(entry ProviderEntry) (ocr.Recognizer, error) {
	return create(r, r.ocr, "ocr", entry.Name, entry)
}

// CreateSpeaker instantiates a speech output using the factory registered under cfg.Name.
func (r *Registry) CreateSpeaker(cfg SpeakerConfig) (speaker.Speaker, error) {
	return create(r, r.speaker, "speaker", cfg.Name, cfg)
}

// Names returns the sorted names registered for kind ("llm", "tts",
// "capture", "ocr" or "speaker").
func (r *Registry) Names(kind string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	switch kind {
	case "llm":
		names = keys(r.llm)
	case "tts":
		names = keys(r.tts)
	case "capture":
		names = keys(r.capture)
	case "ocr":
		names = keys(r.ocr)
	case "speaker":
		names = keys(r.speaker)
	}
	slices.Sort(names)
	return names
}

func create[C, T any](r *Registry, factories map[string]func(C) (T, error), kind, name string, cfg C) (T, error) {
	r.mu.RLock()
	factory, ok := factories[name]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s/%q", ErrProviderNotRegistered, kind, name)
	}
	return factory(cfg)
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
