package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	anthropicMessagesURL = "https://api.anthropic.com/v1/messages"
	anthropicVersion     = "2023-06-01"
	defaultMaxTokens     = 1024
	defaultTimeout       = 60 * time.Second
)

// shared HTTP client for Anthropic API calls
var anthropicHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
}

// rate limiter for Anthropic API calls (50 requests/second with burst capacity of 10)
var anthropicRateLimiter = rate.NewLimiter(50, 10)

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	Temperature *float32  `json:"temperature,omitempty"`
	TopP        *float32  `json:"top_p,omitempty"`
}

type messagesResponse struct {
	ID      string `json:"id"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model string `json:"model"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type AnthropicConfig struct {
	APIKey  string
	URL     string // messages endpoint; overridable for tests
	Timeout time.Duration
}

type AnthropicClient struct {
	config     AnthropicConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewAnthropicClient(config AnthropicConfig) *AnthropicClient {
	if config.URL == "" {
		config.URL = anthropicMessagesURL
	}

	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	return &AnthropicClient{
		config:     config,
		httpClient: anthropicHTTPClient,
		limiter:    anthropicRateLimiter,
	}
}

func (c *AnthropicClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	maxTokens := req.Parameters.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	reqBody := messagesRequest{
		Model:       req.Model,
		MaxTokens:   maxTokens,
		System:      req.SystemPrompt,
		Messages:    req.Messages,
		Temperature: req.Parameters.Temperature,
		TopP:        req.Parameters.TopP,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.config.APIKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, newProviderError(ProviderAnthropic, 0, "rate limiter: "+err.Error(), err)
	}

	start := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, newProviderError(ProviderAnthropic, 0, err.Error(), err)
	}

	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body) //nolint:errcheck

		msg := strings.TrimSpace(string(body))

		var apiErr anthropicErrorBody
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}

		return nil, newProviderError(ProviderAnthropic, resp.StatusCode, msg, nil)
	}

	var apiResp messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, newProviderError(ProviderAnthropic, 0, "failed to decode response", err)
	}

	var text strings.Builder
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	if text.Len() == 0 {
		return nil, newProviderError(ProviderAnthropic, 0, "no content in response", nil)
	}

	out := &CompletionResponse{
		Text: strings.TrimSpace(text.String()),
		Usage: Usage{
			InputTokens:  apiResp.Usage.InputTokens,
			OutputTokens: apiResp.Usage.OutputTokens,
		},
		Latency: time.Since(start),
	}

	fillUsage(out, req)

	return out, nil
}
