package email

import (
	"context"
	"fmt"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/gridt-app/gridt/internal/config"
)

// MailgunSender sends template mail via Mailgun
type MailgunSender struct {
	config *config.EmailConfig
	client *mailgun.MailgunImpl
}

// NewMailgunSender creates a new Mailgun email sender
func NewMailgunSender(cfg *config.EmailConfig) (*MailgunSender, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Mailgun API key is required")
	}
	if cfg.MailgunDomain == "" {
		return nil, fmt.Errorf("Mailgun domain is required")
	}

	mg := mailgun.NewMailgun(cfg.MailgunDomain, cfg.APIKey)

	return &MailgunSender{
		config: cfg,
		client: mg,
	}, nil
}

// Send sends a stored template with substitution variables via Mailgun
func (s *MailgunSender) Send(ctx context.Context, to, templateID string, data map[string]string) error {
	message := s.client.NewMessage(
		fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromAddress),
		"", // Subject comes from the stored template
		"",
		to,
	)
	message.SetTemplate(templateID)

	for key, value := range data {
		if err := message.AddTemplateVariable(key, value); err != nil {
			return fmt.Errorf("failed to add template variable %q: %w", key, err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	resp, id, err := s.client.Send(ctx, message)
	if err != nil {
		log.Error().
			Err(err).
			Str("to", to).
			Str("template_id", templateID).
			Msg("Failed to send email via Mailgun")
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Info().
		Str("to", to).
		Str("template_id", templateID).
		Str("message_id", id).
		Str("response", resp).
		Msg("Email sent via Mailgun")

	return nil
}
