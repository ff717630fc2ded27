package email

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/gridt-app/gridt/internal/config"
)

// SendGridSender sends dynamic-template mail via SendGrid
type SendGridSender struct {
	config *config.EmailConfig
	client *sendgrid.Client
}

// NewSendGridSender creates a new SendGrid email sender
func NewSendGridSender(cfg *config.EmailConfig) (*SendGridSender, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("SendGrid API key is required")
	}

	client := sendgrid.NewSendClient(cfg.APIKey)

	return &SendGridSender{
		config: cfg,
		client: client,
	}, nil
}

// Send sends a dynamic template with substitution data via SendGrid
func (s *SendGridSender) Send(ctx context.Context, to, templateID string, data map[string]string) error {
	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(s.config.FromName, s.config.FromAddress))
	message.SetTemplateID(templateID)

	personalization := mail.NewPersonalization()
	personalization.AddTos(mail.NewEmail("", to))
	for key, value := range data {
		personalization.SetDynamicTemplateData(key, value)
	}
	message.AddPersonalizations(personalization)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		log.Error().
			Err(err).
			Str("to", to).
			Str("template_id", templateID).
			Msg("Failed to send email via SendGrid")
		return fmt.Errorf("failed to send email: %w", err)
	}

	if response.StatusCode >= 400 {
		log.Error().
			Int("status_code", response.StatusCode).
			Str("body", response.Body).
			Str("to", to).
			Msg("SendGrid API returned error")
		return fmt.Errorf("SendGrid API error: %s (status %d)", response.Body, response.StatusCode)
	}

	log.Info().
		Str("to", to).
		Str("template_id", templateID).
		Int("status_code", response.StatusCode).
		Msg("Email sent via SendGrid")

	return nil
}
