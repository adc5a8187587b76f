package llm

import (
	"context"
	"time"
)

const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderDeepSeek   = "deepseek"
	ProviderOpenRouter = "openrouter"
	ProviderGroq       = "groq"
)

// completes a chat conversation against one provider
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// optional sampling parameters; nil means provider default
type Parameters struct {
	Temperature *float32 `json:"temperature,omitempty"`
	TopP        *float32 `json:"top_p,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
}

type CompletionRequest struct {
	Model        string
	SystemPrompt string
	Messages     []Message
	Parameters   Parameters
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

type CompletionResponse struct {
	Text    string
	Usage   Usage
	Latency time.Duration

	// true when the provider reported no usage and counts were estimated from text
	Estimated bool
}
