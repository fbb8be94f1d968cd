package services

import (
	"context"
	"fmt"

	"movie-api/internal/config"
	apperrors "movie-api/internal/pkg/errors"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type Mailer interface {
	SendVerificationCode(ctx context.Context, email, code string) error
}

// NewMailer returns a SendGrid mailer, or a DisabledMailer when no API key or
// sender address is configured.
func NewMailer(cfg *config.MailConfig) Mailer {
	if cfg.SendGridAPIKey == "" || cfg.From == "" {
		return DisabledMailer{}
	}
	return &sendGridMailer{
		client:   sendgrid.NewSendClient(cfg.SendGridAPIKey),
		from:     cfg.From,
		fromName: cfg.FromName,
		ttl:      cfg.CodeTTL.String(),
	}
}

type DisabledMailer struct{}

func (DisabledMailer) SendVerificationCode(context.Context, string, string) error {
	return apperrors.Wrap(apperrors.ErrNotConfigured, "email delivery is not configured")
}

type sendGridMailer struct {
	client   *sendgrid.Client
	from     string
	fromName string
	ttl      string
}

func (m *sendGridMailer) SendVerificationCode(ctx context.Context, email, code string) error {
	from := mail.NewEmail(m.fromName, m.from)
	to := mail.NewEmail("", email)
	subject := "Verify your Movie API account"

	plainContent := fmt.Sprintf("Your verification code is %s. It expires in %s.", code, m.ttl)
	htmlContent := fmt.Sprintf(`
		<html>
		<body style="font-family: Arial, sans-serif; padding: 20px;">
			<h1>Welcome to Movie API!</h1>
			<p>Your verification code is:</p>
			<p style="font-size: 28px; letter-spacing: 6px;"><strong>%s</strong></p>
			<p>The code expires in %s. Submit it to the verify endpoint to receive your API key.</p>
		</body>
		</html>
	`, code, m.ttl)

	message := mail.NewSingleEmail(from, subject, to, plainContent, htmlContent)
	response, err := m.client.Send(message)
	if err != nil {
		return apperrors.Infra(err, "failed to send verification email")
	}
	if response.StatusCode >= 400 {
		return apperrors.Infra(fmt.Errorf("sendgrid status %d: %s", response.StatusCode, response.Body), "failed to send verification email")
	}
	return nil
}
