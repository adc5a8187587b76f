package llm

import "codeberg.org/promptdeck/server/internal/tokens"

// fills in missing usage from the request and response text
func fillUsage(resp *CompletionResponse, req CompletionRequest) {
	if resp.Usage.InputTokens > 0 || resp.Usage.OutputTokens > 0 {
		return
	}

	texts := make([]string, 0, len(req.Messages)+1)
	texts = append(texts, req.SystemPrompt)

	for _, m := range req.Messages {
		texts = append(texts, m.Content)
	}

	resp.Usage = Usage{
		InputTokens:  tokens.EstimateAll(texts...),
		OutputTokens: tokens.Estimate(resp.Text),
	}
	resp.Estimated = true
}
