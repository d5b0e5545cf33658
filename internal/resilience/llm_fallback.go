package resilience

import (
	"context"

	"github.com/jasonnardone/voice-caddy/pkg/provider/llm"
)

// LLMFallback is an [llm.Provider] that fails over across several backends.
type LLMFallback struct {
	group *FallbackGroup[llm.Provider]
}

var _ llm.Provider = (*LLMFallback)(nil)

// NewLLMFallback creates an LLMFallback with primary as the preferred
// backend.
func NewLLMFallback(primary llm.Provider, primaryName string, cfg FallbackConfig) *LLMFallback {
	return &LLMFallback{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers another backend.
func (f *LLMFallback) AddFallback(name string, p llm.Provider) {
	f.group.AddFallback(name, p)
}

// Complete sends req to the first healthy backend.
func (f *LLMFallback) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return ExecuteWithResult(f.group, func(p llm.Provider) (*llm.CompletionResponse, error) {
		return p.Complete(ctx, req)
	})
}

// Info returns the primary's model info.
func (f *LLMFallback) Info() llm.ModelInfo {
	return f.group.Primary().Info()
}

// Healthy reports whether any backend accepts calls.
func (f *LLMFallback) Healthy() bool { return f.group.Healthy() }

// States reports the breaker state per backend.
func (f *LLMFallback) States() map[string]State { return f.group.States() }
