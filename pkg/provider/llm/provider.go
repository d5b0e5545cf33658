// Package llm defines the Provider interface for the language model that
// turns a golf situation into a line of announcer commentary.
//
// A provider wraps a remote or local model API (Anthropic Claude, OpenAI,
// a local Ollama instance, ...) behind a single blocking completion call.
// Commentary is short, so there is no streaming path.
//
// Implementations must be safe for concurrent use.
package llm

import "context"

// Roles used in [Message].
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn sent to the model.
type Message struct {
	Role    string
	Content string
}

// Usage holds token accounting returned by the backend.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionRequest carries everything the model needs to produce a reply.
// At minimum Messages must be non-empty.
type CompletionRequest struct {
	// SystemPrompt is the announcer persona. Providers without a dedicated
	// system field prepend it as a system message.
	SystemPrompt string

	Messages []Message

	// Temperature in [0.0, 2.0]. Zero means provider default.
	Temperature float64

	// MaxTokens caps the completion length. Zero means provider default.
	MaxTokens int
}

// CompletionResponse is the model's reply.
type CompletionResponse struct {
	Content      string
	FinishReason string
	Usage        Usage
}

// ModelInfo is static metadata about the configured model.
type ModelInfo struct {
	Model           string
	ContextWindow   int
	MaxOutputTokens int

	// InputPricePerMTok and OutputPricePerMTok are list prices in USD per
	// million tokens, used for the session cost estimate. Zero when unknown.
	InputPricePerMTok  float64
	OutputPricePerMTok float64
}

// Cost estimates the USD price of u under the model's list prices.
func (m ModelInfo) Cost(u Usage) float64 {
	return (float64(u.PromptTokens)*m.InputPricePerMTok + float64(u.CompletionTokens)*m.OutputPricePerMTok) / 1e6
}

// Provider is the abstraction over any LLM backend.
type Provider interface {
	// Complete sends req to the model and waits for the full reply. It must
	// return promptly once ctx is cancelled.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Info describes the model. The result is constant for the lifetime of
	// the provider.
	Info() ModelInfo
}
