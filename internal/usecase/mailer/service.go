// Package mailer dispatches confirmation email from a JSON template file.
package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/confbase/confbase/internal/domain"
)

// Sender delivers one message. Nil sender means dispatch is disabled.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Template is the content of one confirmation email type.
type Template struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Service sends templated confirmation email.
type Service struct {
	sender    Sender
	templates map[string]Template
	logger    *zap.Logger
}

// New creates a mailer service. sender may be nil (no API key configured).
func New(sender Sender, templates map[string]Template, logger *zap.Logger) *Service {
	return &Service{sender: sender, templates: templates, logger: logger}
}

// LoadTemplates reads the email templates keyed by email type
// (registration, submission, mindmatch) from a JSON file.
func LoadTemplates(path string) (map[string]Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read email templates: %w", err)
	}
	var templates map[string]Template
	if err := json.Unmarshal(data, &templates); err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	return templates, nil
}

// SendConfirmation sends the template of emailType to the given address.
// Unknown template types are rejected; a disabled sender logs and succeeds
// so the endpoint stays usable in development.
func (s *Service) SendConfirmation(ctx context.Context, emailType, email string) error {
	tpl, ok := s.templates[emailType]
	if !ok {
		return fmt.Errorf("email type %q: %w", emailType, domain.ErrBadRequest)
	}
	if s.sender == nil {
		s.logger.Info("email dispatch disabled, skipping confirmation",
			zap.String("email_type", emailType))
		return nil
	}
	if err := s.sender.Send(ctx, email, tpl.Subject, tpl.Body); err != nil {
		return fmt.Errorf("send confirmation %q: %w", emailType, err)
	}
	return nil
}
