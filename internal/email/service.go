// Package email renders stored templates and delivers them over SMTP.
package email

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/textproto"
	"time"

	"codeberg.org/promptdeck/server/internal/logger"
	"codeberg.org/promptdeck/server/internal/metrics"
	"codeberg.org/promptdeck/server/promptdeck/emails"
	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
)

var ErrInvalidRecipient = errors.New("invalid recipient address")

type TemplateStore interface {
	GetTemplate(ctx context.Context, id string) (*emails.Template, error)
}

type LogStore interface {
	InsertLog(ctx context.Context, l emails.Log) error
}

type Service struct {
	templates TemplateStore
	logs      LogStore
	sender    Sender
	domain    string
	attempts  uint
	delay     time.Duration
}

func NewService(templates TemplateStore, logs LogStore, sender Sender, domain string) *Service {
	if domain == "" {
		domain = "promptdeck.local"
	}

	return &Service{
		templates: templates,
		logs:      logs,
		sender:    sender,
		domain:    domain,
		attempts:  3,
		delay:     time.Second,
	}
}

// overrides delivery retries (tests use a zero delay)
func (s *Service) WithRetry(attempts uint, delay time.Duration) *Service {
	s.attempts = attempts
	s.delay = delay

	return s
}

// renders templateID with vars, delivers it to `to` and returns the message id
func (s *Service) Send(ctx context.Context, to, templateID string, vars map[string]string) (string, error) {
	addr, err := mail.ParseAddress(to)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidRecipient, to)
	}

	tmpl, err := s.templates.GetTemplate(ctx, templateID)
	if err != nil {
		return "", err
	}

	msg := Message{
		ID:       uuid.NewString() + "@" + s.domain,
		To:       addr.Address,
		Subject:  Render(tmpl.Subject, vars, false),
		HTMLBody: Render(tmpl.HTMLBody, vars, true),
		TextBody: Render(tmpl.TextBody, vars, false),
	}

	sendErr := retry.Do(
		func() error {
			return s.sender.Send(ctx, msg)
		},
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
	)

	entry := emails.Log{
		TemplateID: tmpl.ID,
		To:         msg.To,
		Subject:    msg.Subject,
		Status:     emails.StatusSent,
		MessageID:  msg.ID,
	}

	if sendErr != nil {
		entry.Status = emails.StatusFailed
		entry.MessageID = ""
		entry.Error = sendErr.Error()
	}

	metrics.EmailsSentTotal.WithLabelValues(entry.Status).Inc()

	if err := s.logs.InsertLog(context.WithoutCancel(ctx), entry); err != nil {
		logger.ErrorErr(err, "failed to write email log", "to", msg.To, "template_id", tmpl.ID)
	}

	if sendErr != nil {
		return "", sendErr
	}

	return msg.ID, nil
}

// SMTP 5xx replies are permanent
func isTransient(err error) bool {
	var tp *textproto.Error
	if errors.As(err, &tp) {
		return tp.Code < 500
	}

	return true
}
