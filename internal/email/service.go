package email

import (
	"context"
	"fmt"

	"github.com/gridt-app/gridt/internal/config"
)

// Sender delivers a provider-side template to a recipient. Template
// data carries the substitution variables (the identity flows use
// "link" and "username").
type Sender interface {
	Send(ctx context.Context, to, templateID string, data map[string]string) error
}

// NewSender creates an email sender based on configuration
func NewSender(cfg *config.EmailConfig) (Sender, error) {
	if !cfg.Enabled {
		return &NoOpSender{}, nil
	}

	switch cfg.Provider {
	case "sendgrid", "":
		return NewSendGridSender(cfg)
	case "mailgun":
		return NewMailgunSender(cfg)
	case "ses":
		return NewSESSender(cfg)
	default:
		return nil, fmt.Errorf("unsupported email provider: %s", cfg.Provider)
	}
}

// NoOpSender is used when email is disabled
type NoOpSender struct{}

// Send always fails; callers in the identity flows log and continue.
func (s *NoOpSender) Send(ctx context.Context, to, templateID string, data map[string]string) error {
	return fmt.Errorf("email service is disabled")
}
