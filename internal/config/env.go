package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort             = "8080"
	defaultProviderTimeout  = 60 * time.Second
	defaultWebhookTolerance = 5 * time.Minute
	defaultRateLimit        = "30-M"
	defaultSMTPPort         = 587
	defaultAssistProvider   = "openai"
	defaultAssistModel      = "gpt-4o-mini"
)

// loads configuration from environment variables
func LoadEnvironmentVariables() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		_ = err // not an error - production environments may not have .env file
	}

	supabaseConnStr := os.Getenv("SUPABASE_CONNECTION_STRING")
	jwtSecret := os.Getenv("JWT_SECRET")
	webhookSecret := os.Getenv("PAYMENT_WEBHOOK_SECRET")

	if supabaseConnStr == "" {
		return nil, fmt.Errorf("SUPABASE_CONNECTION_STRING environment variable is required")
	}

	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	if webhookSecret == "" {
		return nil, fmt.Errorf("PAYMENT_WEBHOOK_SECRET environment variable is required")
	}

	environment := getEnv("ENVIRONMENT", "development")

	providerTimeout, err := getDuration("PROVIDER_TIMEOUT", defaultProviderTimeout)
	if err != nil {
		return nil, err
	}

	webhookTolerance, err := getDuration("PAYMENT_WEBHOOK_TOLERANCE", defaultWebhookTolerance)
	if err != nil {
		return nil, err
	}

	smtpPort := defaultSMTPPort
	if raw := os.Getenv("SMTP_PORT"); raw != "" {
		smtpPort, err = strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("SMTP_PORT must be an integer: %w", err)
		}
	}

	cfg := &Config{
		Environment:        environment,
		Port:               getEnv("PORT", defaultPort),
		SupabaseConnString: supabaseConnStr,
		RedisURL:           os.Getenv("REDIS_URL"),
		JWTSecret:          jwtSecret,
		AllowedOrigins:     splitList(os.Getenv("ALLOWED_ORIGINS")),
		Providers: ProviderKeys{
			OpenAI:     os.Getenv("OPENAI_API_KEY"),
			Anthropic:  os.Getenv("ANTHROPIC_API_KEY"),
			DeepSeek:   os.Getenv("DEEPSEEK_API_KEY"),
			OpenRouter: os.Getenv("OPENROUTER_API_KEY"),
			Groq:       os.Getenv("GROQ_API_KEY"),
		},
		Assistant: AssistantConfig{
			Provider: getEnv("ASSISTANT_PROVIDER", defaultAssistProvider),
			Model:    getEnv("ASSISTANT_MODEL", defaultAssistModel),
		},
		Billing: BillingConfig{
			WebhookSecret:     webhookSecret,
			WebhookTolerance:  webhookTolerance,
			WelcomeTemplateID: os.Getenv("EMAIL_TEMPLATE_WELCOME"),
			PaymentTemplateID: os.Getenv("EMAIL_TEMPLATE_PAYMENT_CONFIRMATION"),
		},
		SMTP: SMTPConfig{
			Host:      os.Getenv("SMTP_HOST"),
			Port:      smtpPort,
			Username:  os.Getenv("SMTP_USERNAME"),
			Password:  os.Getenv("SMTP_PASSWORD"),
			FromName:  getEnv("SMTP_FROM_NAME", "Promptdeck"),
			FromEmail: os.Getenv("SMTP_FROM_EMAIL"),
		},
		ProviderTimeout: providerTimeout,
		RateLimit:       getEnv("EXECUTION_RATE_LIMIT", defaultRateLimit),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration (e.g. 60s): %w", key, err)
	}

	return d, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}

	return out
}
