package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codeberg.org/promptdeck/server/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float32Ptr(v float32) *float32 {
	return &v
}

func TestOpenAIClient_Complete(t *testing.T) {
	var received map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": " hola mundo "}}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
		}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{Provider: ProviderGroq, APIKey: "test-key", BaseURL: server.URL})

	resp, err := client.Complete(context.Background(), CompletionRequest{
		Model:        "llama-3.1-8b",
		SystemPrompt: "be brief",
		Messages:     []Message{{Role: "user", Content: "say hi"}},
		Parameters:   Parameters{Temperature: float32Ptr(0.5), MaxTokens: 64},
	})
	require.NoError(t, err)

	assert.Equal(t, "hola mundo", resp.Text)
	assert.Equal(t, Usage{InputTokens: 12, OutputTokens: 3}, resp.Usage)
	assert.False(t, resp.Estimated)

	assert.Equal(t, "llama-3.1-8b", received["model"])
	assert.InDelta(t, 0.5, received["temperature"], 0.0001)

	messages, ok := received["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, messages, 2)
}

func TestOpenAIClient_MissingUsageIsEstimated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": [{"index": 0, "message": {"role": "assistant", "content": "12345678"}}]}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: server.URL})

	resp, err := client.Complete(context.Background(), CompletionRequest{
		Model:    "gpt-4o-mini",
		Messages: []Message{{Role: "user", Content: "abcd"}},
	})
	require.NoError(t, err)

	assert.True(t, resp.Estimated)
	assert.Equal(t, 1, resp.Usage.InputTokens)
	assert.Equal(t, 2, resp.Usage.OutputTokens)
}

func TestOpenAIClient_ErrorCarriesProviderMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "Rate limit reached", "type": "requests"}}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{Provider: ProviderDeepSeek, APIKey: "k", BaseURL: server.URL})

	_, err := client.Complete(context.Background(), CompletionRequest{Model: "deepseek-chat"})
	require.Error(t, err)

	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, ProviderDeepSeek, perr.Provider)
	assert.Equal(t, http.StatusTooManyRequests, perr.StatusCode)
	assert.Contains(t, perr.Message, "Rate limit reached")
	assert.True(t, perr.Retryable())
}

func TestOpenAIClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: server.URL, Timeout: 50 * time.Millisecond})

	_, err := client.Complete(context.Background(), CompletionRequest{Model: "gpt-4o"})
	require.Error(t, err)

	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.True(t, perr.Retryable())
	assert.Equal(t, "provider timed out", perr.Message)
}

func TestAnthropicClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var body messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "system text", body.System)
		assert.Equal(t, defaultMaxTokens, body.MaxTokens)
		assert.Nil(t, body.TopP)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"content": [{"type": "text", "text": "first "}, {"type": "text", "text": "second"}],
			"usage": {"input_tokens": 20, "output_tokens": 7}
		}`))
	}))
	defer server.Close()

	client := NewAnthropicClient(AnthropicConfig{APIKey: "secret", URL: server.URL})

	resp, err := client.Complete(context.Background(), CompletionRequest{
		Model:        "claude-3-haiku-20240307",
		SystemPrompt: "system text",
		Messages:     []Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "first second", resp.Text)
	assert.Equal(t, 27, resp.Usage.Total())
}

func TestAnthropicClient_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "invalid_request_error", "message": "model not found"}}`))
	}))
	defer server.Close()

	client := NewAnthropicClient(AnthropicConfig{APIKey: "secret", URL: server.URL})

	_, err := client.Complete(context.Background(), CompletionRequest{Model: "nope"})

	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "model not found", perr.Message)
	assert.False(t, perr.Retryable())
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(config.ProviderKeys{OpenAI: "a", Anthropic: "b"}, time.Second)

	assert.Equal(t, []string{ProviderAnthropic, ProviderOpenAI}, r.Providers())

	_, err := r.Get(ProviderOpenAI)
	assert.NoError(t, err)

	_, err = r.Get(ProviderGroq)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}
