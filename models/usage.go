package models

// Usage is the token accounting of one model call.
type Usage struct {
	Model        string
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// usageFromInfo reads token counts from a langchaingo GenerationInfo map.
// Providers disagree on key names.
func usageFromInfo(model string, info map[string]any) Usage {
	u := Usage{
		Model:        model,
		InputTokens:  firstInt(info, "PromptTokens", "InputTokens", "input_tokens"),
		OutputTokens: firstInt(info, "CompletionTokens", "OutputTokens", "output_tokens"),
	}
	u.TotalTokens = firstInt(info, "TotalTokens", "total_tokens")
	if u.TotalTokens == 0 {
		u.TotalTokens = u.InputTokens + u.OutputTokens
	}
	return u
}

func firstInt(info map[string]any, keys ...string) int {
	for _, key := range keys {
		switch n := info[key].(type) {
		case int:
			if n > 0 {
				return n
			}
		case int32:
			if n > 0 {
				return int(n)
			}
		case int64:
			if n > 0 {
				return int(n)
			}
		case float64:
			if n > 0 {
				return int(n)
			}
		}
	}
	return 0
}
