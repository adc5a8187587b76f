package email

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"codeberg.org/promptdeck/server/internal/config"
	"codeberg.org/promptdeck/server/internal/logger"
	"github.com/google/uuid"
)

// a rendered email ready for delivery
type Message struct {
	ID       string
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// delivers through an SMTP relay with STARTTLS (net/smtp negotiates it when offered)
type SMTPSender struct {
	cfg config.SMTPConfig
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	body := buildMIME(s.cfg.FromName, s.cfg.FromEmail, msg, time.Now())

	if err := smtp.SendMail(addr, auth, s.cfg.FromEmail, []string{msg.To}, body); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// logs instead of sending; used when SMTP is not configured
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg Message) error {
	logger.Info("email not sent, SMTP disabled",
		"to", msg.To,
		"subject", msg.Subject,
		"message_id", msg.ID,
	)

	return nil
}

func buildMIME(fromName, fromEmail string, msg Message, now time.Time) []byte {
	var b bytes.Buffer

	header := func(k, v string) {
		b.WriteString(k + ": " + v + "\r\n")
	}

	header("From", fmt.Sprintf("%s <%s>", sanitizeHeader(fromName), fromEmail))
	header("To", msg.To)
	header("Subject", sanitizeHeader(msg.Subject))
	header("Date", now.UTC().Format(time.RFC1123Z))
	header("Message-ID", "<"+msg.ID+">")
	header("MIME-Version", "1.0")

	switch {
	case msg.HTMLBody != "" && msg.TextBody != "":
		boundary := strings.ReplaceAll(uuid.NewString(), "-", "")
		header("Content-Type", `multipart/alternative; boundary="`+boundary+`"`)
		b.WriteString("\r\n")

		writePart(&b, boundary, "text/plain", msg.TextBody)
		writePart(&b, boundary, "text/html", msg.HTMLBody)

		b.WriteString("--" + boundary + "--\r\n")
	case msg.HTMLBody != "":
		header("Content-Type", `text/html; charset="UTF-8"`)
		b.WriteString("\r\n" + msg.HTMLBody)
	default:
		header("Content-Type", `text/plain; charset="UTF-8"`)
		b.WriteString("\r\n" + msg.TextBody)
	}

	return b.Bytes()
}

func writePart(b *bytes.Buffer, boundary, contentType, body string) {
	b.WriteString("--" + boundary + "\r\n")
	b.WriteString(`Content-Type: ` + contentType + `; charset="UTF-8"` + "\r\n\r\n")
	b.WriteString(body + "\r\n")
}
