package email

import (
	"context"

	"codeberg.org/promptdeck/server/internal/config"
	"codeberg.org/promptdeck/server/internal/logger"
	"codeberg.org/promptdeck/server/promptdeck/settings"
)

type SMTPSettings interface {
	SMTP(ctx context.Context) (settings.SMTP, bool, error)
}

// resolves the relay per send: back-office overrides win over the environment, the
// password always comes from the environment
type ConfiguredSender struct {
	base      config.SMTPConfig
	overrides SMTPSettings
}

func NewConfiguredSender(base config.SMTPConfig, overrides SMTPSettings) *ConfiguredSender {
	return &ConfiguredSender{base: base, overrides: overrides}
}

func (s *ConfiguredSender) Send(ctx context.Context, msg Message) error {
	cfg := s.resolve(ctx)
	if !cfg.Enabled() {
		return LogSender{}.Send(ctx, msg)
	}

	return NewSMTPSender(cfg).Send(ctx, msg)
}

func (s *ConfiguredSender) resolve(ctx context.Context) config.SMTPConfig {
	cfg := s.base

	if s.overrides == nil {
		return cfg
	}

	o, ok, err := s.overrides.SMTP(ctx)
	if err != nil {
		logger.ErrorErr(err, "failed to load SMTP settings, using environment")
		return cfg
	}

	if !ok {
		return cfg
	}

	cfg.Host = o.Host
	cfg.Port = o.Port
	cfg.Username = o.Username
	cfg.FromName = o.FromName
	cfg.FromEmail = o.FromEmail

	return cfg
}
