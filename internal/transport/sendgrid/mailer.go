// Package sendgrid sends transactional email through the SendGrid API.
package sendgrid

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer sends plain-text email from a fixed sender address.
type Mailer struct {
	client   *sendgrid.Client
	fromName string
	fromAddr string
}

// Config holds the SendGrid settings.
type Config struct {
	APIKey      string
	FromName    string
	FromAddress string
}

// NewMailer creates a SendGrid mailer. Returns nil when no API key is
// configured; callers treat a nil mailer as dispatch disabled.
func NewMailer(cfg *Config) *Mailer {
	if cfg.APIKey == "" {
		return nil
	}
	return &Mailer{
		client:   sendgrid.NewSendClient(cfg.APIKey),
		fromName: cfg.FromName,
		fromAddr: cfg.FromAddress,
	}
}

// Send delivers one message to a single recipient.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	from := mail.NewEmail(m.fromName, m.fromAddr)
	rcpt := mail.NewEmail("", to)
	msg := mail.NewSingleEmail(from, subject, rcpt, body, body)

	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d", resp.StatusCode)
	}
	return nil
}
