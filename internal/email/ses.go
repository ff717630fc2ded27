package email

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/rs/zerolog/log"

	"github.com/gridt-app/gridt/internal/config"
)

// SESSender sends templated mail via AWS SES
type SESSender struct {
	config *config.EmailConfig
	client *ses.Client
}

// NewSESSender creates a new AWS SES email sender
func NewSESSender(cfg *config.EmailConfig) (*SESSender, error) {
	if cfg.SESRegion == "" {
		return nil, fmt.Errorf("AWS SES region is required")
	}

	awsConfig := aws.Config{
		Region: cfg.SESRegion,
	}

	// Fall back to the default credential chain (environment, IAM role)
	// when static credentials are not configured.
	if cfg.SESAccessKey != "" && cfg.SESSecretKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentialsProvider(
			cfg.SESAccessKey,
			cfg.SESSecretKey,
			"",
		)
	}

	client := ses.NewFromConfig(awsConfig)

	return &SESSender{
		config: cfg,
		client: client,
	}, nil
}

// Send sends a stored template with substitution data via AWS SES
func (s *SESSender) Send(ctx context.Context, to, templateID string, data map[string]string) error {
	templateData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode template data: %w", err)
	}

	input := &ses.SendTemplatedEmailInput{
		Source: aws.String(fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromAddress)),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Template:     aws.String(templateID),
		TemplateData: aws.String(string(templateData)),
	}

	output, err := s.client.SendTemplatedEmail(ctx, input)
	if err != nil {
		log.Error().
			Err(err).
			Str("to", to).
			Str("template_id", templateID).
			Msg("Failed to send email via AWS SES")
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Info().
		Str("to", to).
		Str("template_id", templateID).
		Str("message_id", aws.ToString(output.MessageId)).
		Msg("Email sent via AWS SES")

	return nil
}
