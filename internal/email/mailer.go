package email

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/youssefhamdan/tijara-backend/pkg/config"
	pkgerrors "github.com/youssefhamdan/tijara-backend/pkg/errors"
	"github.com/youssefhamdan/tijara-backend/pkg/logger"
)

// Message is one transactional email.
type Message struct {
	ToEmail  string
	ToName   string
	Subject  string
	HTMLBody string
}

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SendgridMailer delivers through the SendGrid v3 API.
type SendgridMailer struct {
	cfg    config.SendgridConfig
	client *sendgrid.Client
}

// NewSendgridMailer builds the SendGrid mailer.
func NewSendgridMailer(cfg config.SendgridConfig) (*SendgridMailer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("sendgrid api key required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("sendgrid from address required")
	}
	return &SendgridMailer{
		cfg:    cfg,
		client: sendgrid.NewSendClient(cfg.APIKey),
	}, nil
}

// Send implements Mailer.
func (m *SendgridMailer) Send(ctx context.Context, msg Message) error {
	if msg.ToEmail == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient email is required")
	}

	from := mail.NewEmail(m.cfg.FromName, m.cfg.From)
	to := mail.NewEmail(msg.ToName, msg.ToEmail)
	message := mail.NewSingleEmail(from, msg.Subject, to, "", msg.HTMLBody)

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sending email")
	}
	if resp.StatusCode >= 400 {
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("sendgrid returned status %d", resp.StatusCode)).
			WithDetails(map[string]any{"body": resp.Body})
	}
	return nil
}

// NoopMailer is used when no API key is configured, typically in dev.
type NoopMailer struct {
	logg *logger.Logger
}

// NewNoopMailer builds a mailer that only logs.
func NewNoopMailer(logg *logger.Logger) *NoopMailer {
	return &NoopMailer{logg: logg}
}

// Send implements Mailer.
func (m *NoopMailer) Send(ctx context.Context, msg Message) error {
	if m.logg != nil {
		ctx = m.logg.WithFields(ctx, map[string]any{
			"to":      msg.ToEmail,
			"subject": msg.Subject,
		})
		m.logg.Info(ctx, "email delivery disabled, dropping message")
	}
	return nil
}
