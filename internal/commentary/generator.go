package commentary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jasonnardone/voice-caddy/pkg/provider/llm"
)

// ErrEmptyCommentary is returned when the model produced no text.
var ErrEmptyCommentary = errors.New("commentary: empty commentary")

// Generator phrases a situation description as a spoken line.
type Generator interface {
	Generate(ctx context.Context, situation string) (string, error)
}

// Request parameters used when none are configured.
const (
	DefaultMaxTokens   = 150
	DefaultTemperature = 0.8
)

// UserPrompt wraps a situation in the instruction sent to the model.
func UserPrompt(situation string) string {
	return "Golf situation: " + situation +
		"\n\nProvide brief announcer commentary (1-2 sentences max). Be entertaining and match your personality."
}

// UsageFunc observes the token usage of each successful completion.
type UsageFunc func(info llm.ModelInfo, usage llm.Usage)

// LLMGenerator generates commentary with a language model.
type LLMGenerator struct {
	provider    llm.Provider
	maxTokens   int
	temperature float64
	onUsage     UsageFunc

	mu      sync.RWMutex
	persona Persona
}

var _ Generator = (*LLMGenerator)(nil)

// Option configures an LLMGenerator.
type Option func(*LLMGenerator)

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) Option {
	return func(g *LLMGenerator) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(g *LLMGenerator) {
		if t > 0 {
			g.temperature = t
		}
	}
}

// WithUsage registers fn to receive token usage.
func WithUsage(fn UsageFunc) Option {
	return func(g *LLMGenerator) { g.onUsage = fn }
}

// NewLLMGenerator returns a generator speaking as persona.
func NewLLMGenerator(p llm.Provider, persona Persona, opts ...Option) (*LLMGenerator, error) {
	if p == nil {
		return nil, errors.New("commentary: llm provider must not be nil")
	}
	g := &LLMGenerator{
		provider:    p,
		persona:     persona,
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
	}
	for _, o := range opts {
		o(g)
	}
	return g, nil
}

// SetPersona switches personality for subsequent calls.
func (g *LLMGenerator) SetPersona(p Persona) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.persona = p
}

// Persona returns the active personality.
func (g *LLMGenerator) Persona() Persona {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.persona
}

// Generate implements Generator.
func (g *LLMGenerator) Generate(ctx context.Context, situation string) (string, error) {
	req := llm.CompletionRequest{
		SystemPrompt: g.Persona().SystemPrompt(),
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: UserPrompt(situation)}},
		Temperature:  g.temperature,
		MaxTokens:    g.maxTokens,
	}
	resp, err := g.provider.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("commentary: generate: %w", err)
	}
	if g.onUsage != nil {
		g.onUsage(g.provider.Info(), resp.Usage)
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", ErrEmptyCommentary
	}
	return text, nil
}

// PlainGenerator speaks the situation itself, for running without a model.
type PlainGenerator struct{}

var _ Generator = PlainGenerator{}

// Generate implements Generator. "#" is read out as "number" and the line
// is terminated with a period.
func (PlainGenerator) Generate(_ context.Context, situation string) (string, error) {
	text := strings.TrimSpace(strings.ReplaceAll(situation, "#", "number "))
	if text == "" {
		return "", ErrEmptyCommentary
	}
	if !strings.HasSuffix(text, ".") && !strings.HasSuffix(text, "!") && !strings.HasSuffix(text, "?") {
		text += "."
	}
	return text, nil
}
