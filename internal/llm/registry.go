package llm

import (
	"fmt"
	"sort"
	"time"

	"codeberg.org/promptdeck/server/internal/config"
)

// provider name -> client; only providers with a configured key are present
type Registry struct {
	clients map[string]Client
}

func NewRegistry(keys config.ProviderKeys, timeout time.Duration) *Registry {
	r := &Registry{clients: map[string]Client{}}

	compatible := map[string]string{
		ProviderOpenAI:     keys.OpenAI,
		ProviderDeepSeek:   keys.DeepSeek,
		ProviderOpenRouter: keys.OpenRouter,
		ProviderGroq:       keys.Groq,
	}

	for name, key := range compatible {
		if key == "" {
			continue
		}

		r.clients[name] = NewOpenAIClient(OpenAIConfig{
			Provider: name,
			APIKey:   key,
			Timeout:  timeout,
		})
	}

	if keys.Anthropic != "" {
		r.clients[ProviderAnthropic] = NewAnthropicClient(AnthropicConfig{
			APIKey:  keys.Anthropic,
			Timeout: timeout,
		})
	}

	return r
}

// registers or replaces a client
func (r *Registry) Register(provider string, client Client) {
	r.clients[provider] = client
}

func (r *Registry) Get(provider string) (Client, error) {
	client, ok := r.clients[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderUnavailable, provider)
	}

	return client, nil
}

// names of configured providers, sorted
func (r *Registry) Providers() []string {
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
