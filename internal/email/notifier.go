package email

import (
	"context"
	"fmt"

	"github.com/gridt-app/gridt/internal/config"
)

// Notifier sends the identity-flow mails through the configured
// provider templates. Template data keys are "link" and "username".
type Notifier struct {
	sender    Sender
	templates config.EmailTemplates
	baseURL   string
}

// NewNotifier creates a Notifier over a sender and the template ids.
func NewNotifier(sender Sender, templates config.EmailTemplates, baseURL string) *Notifier {
	if baseURL == "" {
		baseURL = "https://app.gridt.org"
	}
	return &Notifier{
		sender:    sender,
		templates: templates,
		baseURL:   baseURL,
	}
}

// SendPasswordResetEmail mails a reset link containing the token.
func (n *Notifier) SendPasswordResetEmail(ctx context.Context, to, token string) error {
	return n.sender.Send(ctx, to, n.templates.PasswordReset, map[string]string{
		"link": fmt.Sprintf("%s/user/reset_password/confirm?token=%s", n.baseURL, token),
	})
}

// SendPasswordChangeNotification informs a user their password changed.
func (n *Notifier) SendPasswordChangeNotification(ctx context.Context, to string) error {
	return n.sender.Send(ctx, to, n.templates.PasswordChangeNotification, map[string]string{
		"link": fmt.Sprintf("%s/user/reset_password/request", n.baseURL),
	})
}

// SendEmailChangeEmail mails a confirmation link to the new address.
func (n *Notifier) SendEmailChangeEmail(ctx context.Context, to, username, token string) error {
	return n.sender.Send(ctx, to, n.templates.EmailChange, map[string]string{
		"username": username,
		"link":     fmt.Sprintf("%s/user/change_email/confirm?token=%s", n.baseURL, token),
	})
}

// SendEmailChangeNotification informs the new address the change took
// effect.
func (n *Notifier) SendEmailChangeNotification(ctx context.Context, to, username string) error {
	return n.sender.Send(ctx, to, n.templates.EmailChangeNotification, map[string]string{
		"username": username,
	})
}
