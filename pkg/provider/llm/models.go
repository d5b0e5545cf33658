package llm

import "strings"

// LookupModel returns known metadata for model. Unknown models get a
// 128k context window and zero prices.
func LookupModel(model string) ModelInfo {
	info := ModelInfo{Model: model, ContextWindow: 128_000, MaxOutputTokens: 4_096}
	lower := strings.ToLower(model)
	switch {
	case strings.Contains(lower, "claude-3-5-haiku"), strings.Contains(lower, "claude-haiku-4"):
		info.ContextWindow, info.MaxOutputTokens = 200_000, 8_192
		info.InputPricePerMTok, info.OutputPricePerMTok = 0.8, 4
	case strings.Contains(lower, "claude-3-haiku"):
		info.ContextWindow, info.MaxOutputTokens = 200_000, 4_096
		info.InputPricePerMTok, info.OutputPricePerMTok = 0.25, 1.25
	case strings.Contains(lower, "sonnet"):
		info.ContextWindow, info.MaxOutputTokens = 200_000, 8_192
		info.InputPricePerMTok, info.OutputPricePerMTok = 3, 15
	case strings.HasPrefix(lower, "claude"):
		info.ContextWindow, info.MaxOutputTokens = 200_000, 8_192
	case strings.HasPrefix(lower, "gpt-4o-mini"):
		info.MaxOutputTokens = 16_384
		info.InputPricePerMTok, info.OutputPricePerMTok = 0.15, 0.6
	case strings.HasPrefix(lower, "gpt-4o"):
		info.MaxOutputTokens = 16_384
		info.InputPricePerMTok, info.OutputPricePerMTok = 2.5, 10
	case strings.HasPrefix(lower, "gpt-4.1-mini"):
		info.ContextWindow, info.MaxOutputTokens = 1_047_576, 32_768
		info.InputPricePerMTok, info.OutputPricePerMTok = 0.4, 1.6
	case strings.HasPrefix(lower, "gemini"):
		info.ContextWindow, info.MaxOutputTokens = 1_048_576, 8_192
	}
	return info
}
