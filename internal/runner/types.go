package runner

import "github.com/shopspring/decimal"

// caller-supplied sampling parameters
type Parameters struct {
	Temperature *float32 `json:"temperature,omitempty"`
	TopP        *float32 `json:"top_p,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
}

// parameters as stored on the execution row
func (p Parameters) AsMap() map[string]any {
	m := map[string]any{}

	if p.Temperature != nil {
		m["temperature"] = *p.Temperature
	}

	if p.TopP != nil {
		m["top_p"] = *p.TopP
	}

	if p.MaxTokens > 0 {
		m["max_tokens"] = p.MaxTokens
	}

	return m
}

type ExecuteRequest struct {
	PromptID   string
	UserID     string
	Provider   string
	Model      string
	Content    string
	Parameters Parameters
}

type UsageReport struct {
	InputTokens  int             `json:"inputTokens"`
	OutputTokens int             `json:"outputTokens"`
	TotalTokens  int             `json:"totalTokens"`
	Cost         decimal.Decimal `json:"cost"`
	Currency     string          `json:"currency"`
	LatencyMS    int64           `json:"latency"`
	Estimated    bool            `json:"estimated,omitempty"`
}

type Result struct {
	ExecutionID string      `json:"executionId,omitempty"`
	Result      string      `json:"result"`
	Usage       UsageReport `json:"usage"`
}
