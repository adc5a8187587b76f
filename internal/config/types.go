package config

import "time"

type Config struct {
	Environment        string
	Port               string
	SupabaseConnString string
	RedisURL           string // optional; enables shared rate limits and session revocation
	JWTSecret          string
	AllowedOrigins     []string

	Providers ProviderKeys
	Assistant AssistantConfig
	Billing   BillingConfig
	SMTP      SMTPConfig

	ProviderTimeout time.Duration
	RateLimit       string // ulule/limiter formatted rate, e.g. "30-M"
}

// API keys for the LLM providers we can dispatch to; empty keys disable the provider
type ProviderKeys struct {
	OpenAI     string
	Anthropic  string
	DeepSeek   string
	OpenRouter string
	Groq       string
}

// model used for AI improve/translate
type AssistantConfig struct {
	Provider string
	Model    string
}

type BillingConfig struct {
	WebhookSecret     string
	WebhookTolerance  time.Duration
	WelcomeTemplateID string
	PaymentTemplateID string
}

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
}

// reports whether outbound email is configured
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.FromEmail != ""
}
