package llm_test

import (
	"math"
	"testing"

	"github.com/jasonnardone/voice-caddy/pkg/provider/llm"
)

func TestModelInfo_Cost(t *testing.T) {
	t.Parallel()
	info := llm.ModelInfo{InputPricePerMTok: 1, OutputPricePerMTok: 5}
	got := info.Cost(llm.Usage{PromptTokens: 200, CompletionTokens: 40})
	want := (200*1.0 + 40*5.0) / 1e6
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Cost = %v, want %v", got, want)
	}
	if (llm.ModelInfo{}).Cost(llm.Usage{PromptTokens: 1000}) != 0 {
		t.Error("unknown prices should cost 0")
	}
}
