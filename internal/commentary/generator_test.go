package commentary

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jasonnardone/voice-caddy/pkg/provider/llm"
	"github.com/jasonnardone/voice-caddy/pkg/provider/llm/mock"
)

func TestLLMGenerator_Request(t *testing.T) {
	t.Parallel()
	p := &mock.Provider{
		CompleteResponse: &llm.CompletionResponse{
			Content: "  Arr, a fine breeze for sailin'!  ",
			Usage:   llm.Usage{PromptTokens: 100, CompletionTokens: 20},
		},
		ModelInfo: llm.ModelInfo{Model: "m", InputPricePerMTok: 3, OutputPricePerMTok: 15},
	}
	var gotCost float64
	pirate, _ := Builtin().Lookup("pirate")
	g, err := NewLLMGenerator(p, pirate, WithUsage(func(info llm.ModelInfo, u llm.Usage) {
		gotCost = info.Cost(u)
	}))
	if err != nil {
		t.Fatalf("NewLLMGenerator: %v", err)
	}

	text, err := g.Generate(context.Background(), "Wind: 15 mph")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "Arr, a fine breeze for sailin'!" {
		t.Errorf("text = %q", text)
	}

	calls := p.Calls()
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	req := calls[0].Req
	if req.MaxTokens != 150 || req.Temperature != 0.8 {
		t.Errorf("max_tokens=%d temperature=%v", req.MaxTokens, req.Temperature)
	}
	if !strings.HasPrefix(req.SystemPrompt, pirate.Prompt) {
		t.Errorf("system prompt = %q", req.SystemPrompt)
	}
	want := "Golf situation: Wind: 15 mph\n\nProvide brief announcer commentary (1-2 sentences max). Be entertaining and match your personality."
	if len(req.Messages) != 1 || req.Messages[0].Role != llm.RoleUser || req.Messages[0].Content != want {
		t.Errorf("messages = %+v", req.Messages)
	}
	if wantCost := (100*3.0 + 20*15.0) / 1e6; gotCost != wantCost {
		t.Errorf("cost = %v, want %v", gotCost, wantCost)
	}
}

func TestLLMGenerator_Options(t *testing.T) {
	t.Parallel()
	p := &mock.Provider{CompleteResponse: &llm.CompletionResponse{Content: "ok"}}
	g, _ := NewLLMGenerator(p, Persona{Prompt: "be brief"}, WithMaxTokens(60), WithTemperature(0.3))
	g.SetPersona(Persona{Name: "Zen", Prompt: "breathe"})
	if _, err := g.Generate(context.Background(), "x"); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	req := p.Calls()[0].Req
	if req.MaxTokens != 60 || req.Temperature != 0.3 || req.SystemPrompt != "breathe" {
		t.Errorf("req = %+v", req)
	}
	if g.Persona().Name != "Zen" {
		t.Errorf("Persona = %+v", g.Persona())
	}
}

func TestLLMGenerator_Errors(t *testing.T) {
	t.Parallel()
	boom := errors.New("overloaded")
	g, _ := NewLLMGenerator(&mock.Provider{CompleteErr: boom}, Persona{})
	if _, err := g.Generate(context.Background(), "x"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}

	empty, _ := NewLLMGenerator(&mock.Provider{}, Persona{})
	if _, err := empty.Generate(context.Background(), "x"); !errors.Is(err, ErrEmptyCommentary) {
		t.Errorf("err = %v, want ErrEmptyCommentary", err)
	}

	if _, err := NewLLMGenerator(nil, Persona{}); err == nil {
		t.Error("expected error for nil provider")
	}
}

func TestPlainGenerator(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{"New hole #3, par 3, 147 yards", "New hole number 3, par 3, 147 yards."},
		{"Wind: 18 mph", "Wind: 18 mph."},
		{"Fore!", "Fore!"},
	}
	for _, tt := range tests {
		got, err := PlainGenerator{}.Generate(context.Background(), tt.in)
		if err != nil || got != tt.want {
			t.Errorf("Generate(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
	if _, err := (PlainGenerator{}).Generate(context.Background(), "  "); !errors.Is(err, ErrEmptyCommentary) {
		t.Errorf("err = %v, want ErrEmptyCommentary", err)
	}
}
