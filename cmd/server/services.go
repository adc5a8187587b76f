package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"codeberg.org/promptdeck/server/internal/auth"
	"codeberg.org/promptdeck/server/internal/config"
	"codeberg.org/promptdeck/server/internal/email"
	"codeberg.org/promptdeck/server/internal/improver"
	"codeberg.org/promptdeck/server/internal/llm"
	"codeberg.org/promptdeck/server/internal/logger"
	"codeberg.org/promptdeck/server/internal/pricing"
	"codeberg.org/promptdeck/server/internal/quota"
	"codeberg.org/promptdeck/server/internal/ratelimit"
	"codeberg.org/promptdeck/server/internal/reconciler"
	"codeberg.org/promptdeck/server/internal/recorder"
	"codeberg.org/promptdeck/server/internal/runner"
	"codeberg.org/promptdeck/server/internal/sessions"
	"codeberg.org/promptdeck/server/promptdeck/affiliates"
	"codeberg.org/promptdeck/server/promptdeck/audit"
	"codeberg.org/promptdeck/server/promptdeck/billing"
	"codeberg.org/promptdeck/server/promptdeck/catalog"
	"codeberg.org/promptdeck/server/promptdeck/coupons"
	"codeberg.org/promptdeck/server/promptdeck/emails"
	"codeberg.org/promptdeck/server/promptdeck/executions"
	"codeberg.org/promptdeck/server/promptdeck/prompts"
	"codeberg.org/promptdeck/server/promptdeck/settings"
	"codeberg.org/promptdeck/server/promptdeck/users"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// how often expired revocations are dropped from the in-memory store
const revocationCleanupInterval = 10 * time.Minute

func InitializeRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		Users:      users.NewRepository(db),
		Prompts:    prompts.NewRepository(db),
		Catalog:    catalog.NewRepository(db),
		Executions: executions.NewRepository(db),
		Plans:      billing.NewRepository(db),
		Billing:    billing.NewStore(db),
		Coupons:    coupons.NewRepository(db),
		Emails:     emails.NewRepository(db),
		Settings:   settings.NewRepository(db),
		Audit:      audit.NewRepository(db),
		Affiliates: affiliates.NewRepository(db),
	}
}

// creates and wires the domain services; rdb may be nil
func InitializeServices(ctx context.Context, cfg *config.Config, repos *Repositories, rdb *redis.Client) (*Services, error) {
	var revoked sessions.Store
	if rdb != nil {
		revoked = sessions.NewRedisStore(rdb)
	} else {
		revoked = sessions.NewMemoryStore(ctx, revocationCleanupInterval)
	}

	authService := auth.NewService(cfg.JWTSecret, auth.DefaultTokenTTL, revoked)

	var limiterStore redis.UniversalClient
	if rdb != nil {
		limiterStore = rdb
	}

	lim, err := ratelimit.New(cfg.RateLimit, limiterStore)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}

	registry := llm.NewRegistry(cfg.Providers, cfg.ProviderTimeout)
	if len(registry.Providers()) == 0 {
		logger.Warn("no LLM provider keys configured, executions will fail")
	}

	guard := quota.NewGuard(repos.Users)
	engine := pricing.NewEngine(repos.Catalog)
	rec := recorder.New(repos.Executions)

	run := runner.New(repos.Prompts, repos.Catalog, guard, registry, engine, rec)
	imp := improver.New(repos.Prompts, registry, guard, cfg.Assistant.Provider, cfg.Assistant.Model)

	sender := email.NewConfiguredSender(cfg.SMTP, repos.Settings)
	mailer := email.NewService(repos.Emails, repos.Emails, sender, emailDomain(cfg.SMTP.FromEmail))

	recon := reconciler.New(repos.Billing, repos.Settings, mailer, reconciler.Templates{
		Welcome:             cfg.Billing.WelcomeTemplateID,
		PaymentConfirmation: cfg.Billing.PaymentTemplateID,
	})

	logger.Info("services initialized",
		"providers", registry.Providers(),
		"assistant_model", cfg.Assistant.Model,
		"smtp_configured", cfg.SMTP.Enabled(),
		"shared_state", rdb != nil,
	)

	return &Services{
		Auth:       authService,
		LLM:        registry,
		Quota:      guard,
		Runner:     run,
		Improver:   imp,
		Email:      mailer,
		Reconciler: recon,
		Limiter:    lim,
	}, nil
}

// domain part of the sender address, used for Message-ID; empty falls back to the default
func emailDomain(from string) string {
	at := strings.LastIndex(from, "@")
	if at < 0 {
		return ""
	}

	return from[at+1:]
}
