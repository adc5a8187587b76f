package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI-compatible chat completion endpoints
var compatibleBaseURLs = map[string]string{
	ProviderOpenAI:     "https://api.openai.com/v1",
	ProviderDeepSeek:   "https://api.deepseek.com/v1",
	ProviderOpenRouter: "https://openrouter.ai/api/v1",
	ProviderGroq:       "https://api.groq.com/openai/v1",
}

// shared HTTP client for OpenAI-compatible providers
// reuses connection pool across providers; per-call deadlines come from the context
var compatibleHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
}

type OpenAIConfig struct {
	Provider string // registry name, e.g. "groq"
	APIKey   string
	BaseURL  string // defaults from the provider name
	Timeout  time.Duration
}

// chat client for any provider speaking the OpenAI API
type OpenAIClient struct {
	provider string
	timeout  time.Duration
	client   *openai.Client
}

func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Provider == "" {
		cfg.Provider = ProviderOpenAI
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = compatibleBaseURLs[cfg.Provider]
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	clientCfg.HTTPClient = compatibleHTTPClient

	return &OpenAIClient{
		provider: cfg.Provider,
		timeout:  cfg.Timeout,
		client:   openai.NewClientWithConfig(clientCfg),
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}

	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	chatReq := openai.ChatCompletionRequest{
		Model:     req.Model,
		Messages:  messages,
		MaxTokens: req.Parameters.MaxTokens,
	}

	if req.Parameters.Temperature != nil {
		chatReq.Temperature = *req.Parameters.Temperature
	}

	if req.Parameters.TopP != nil {
		chatReq.TopP = *req.Parameters.TopP
	}

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, c.wrapError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, newProviderError(c.provider, 0, "no choices in response", nil)
	}

	out := &CompletionResponse{
		Text: strings.TrimSpace(resp.Choices[0].Message.Content),
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
		Latency: time.Since(start),
	}

	fillUsage(out, req)

	return out, nil
}

func (c *OpenAIClient) wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return newProviderError(c.provider, apiErr.HTTPStatusCode, apiErr.Message, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return newProviderError(c.provider, reqErr.HTTPStatusCode, fmt.Sprintf("request failed: %v", reqErr.Err), err)
	}

	return newProviderError(c.provider, 0, err.Error(), err)
}
