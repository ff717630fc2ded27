package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridt-app/gridt/internal/config"
)

var testTemplates = config.EmailTemplates{
	PasswordReset:              "d-reset",
	PasswordChangeNotification: "d-changed",
	EmailChange:                "d-email",
	EmailChangeNotification:    "d-email-note",
}

func TestSendPasswordResetEmail(t *testing.T) {
	recorder := NewRecorder()
	notifier := NewNotifier(recorder, testTemplates, "")

	err := notifier.SendPasswordResetEmail(context.Background(), "robin@gridt.org", "tok123")

	require.NoError(t, err)
	sent := recorder.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "robin@gridt.org", sent[0].To)
	assert.Equal(t, "d-reset", sent[0].TemplateID)
	assert.Equal(t, "https://app.gridt.org/user/reset_password/confirm?token=tok123", sent[0].Data["link"])
}

func TestSendPasswordChangeNotification(t *testing.T) {
	recorder := NewRecorder()
	notifier := NewNotifier(recorder, testTemplates, "https://staging.gridt.org")

	require.NoError(t, notifier.SendPasswordChangeNotification(context.Background(), "robin@gridt.org"))

	sent := recorder.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "d-changed", sent[0].TemplateID)
	assert.Equal(t, "https://staging.gridt.org/user/reset_password/request", sent[0].Data["link"])
}

func TestSendEmailChangeEmail(t *testing.T) {
	recorder := NewRecorder()
	notifier := NewNotifier(recorder, testTemplates, "")

	require.NoError(t, notifier.SendEmailChangeEmail(context.Background(), "new@gridt.org", "robin", "tok456"))

	sent := recorder.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "new@gridt.org", sent[0].To)
	assert.Equal(t, "robin", sent[0].Data["username"])
	assert.Equal(t, "https://app.gridt.org/user/change_email/confirm?token=tok456", sent[0].Data["link"])
}

func TestSendEmailChangeNotification(t *testing.T) {
	recorder := NewRecorder()
	notifier := NewNotifier(recorder, testTemplates, "")

	require.NoError(t, notifier.SendEmailChangeNotification(context.Background(), "new@gridt.org", "robin"))

	sent := recorder.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "d-email-note", sent[0].TemplateID)
	assert.Equal(t, map[string]string{"username": "robin"}, sent[0].Data)
}

func TestNewSenderDisabled(t *testing.T) {
	sender, err := NewSender(&config.EmailConfig{Enabled: false})

	require.NoError(t, err)
	assert.IsType(t, &NoOpSender{}, sender)
	assert.Error(t, sender.Send(context.Background(), "a@b.c", "tpl", nil))
}

func TestNewSenderUnknownProvider(t *testing.T) {
	_, err := NewSender(&config.EmailConfig{Enabled: true, Provider: "smtp"})

	assert.Error(t, err)
}
