package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/wolfman30/contact-intake/pkg/logging"
)

// EmailSender delivers one message. Implementations must be safe for
// concurrent use.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is a single outbound notification.
type EmailMessage struct {
	To      string
	ToName  string
	ReplyTo string
	Subject string
	Body    string
	HTML    string // empty means Body is reused
}

// SendGridSender delivers through the SendGrid v3 mail API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

// SendGridConfig selects the account and the From identity.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// NewSendGridSender returns nil without an API key so callers can fall back
// to the stub.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = "AllSafe Website"
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("notify: sendgrid sender has no client")
	}

	message := buildSendGridMessage(s.fromName, s.fromEmail, msg)
	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.logger.Error("sendgrid request failed", "error", err, "to", msg.To)
		return fmt.Errorf("notify: sendgrid request: %w", err)
	}

	if response.StatusCode >= 400 {
		s.logger.Error("sendgrid rejected message", "status", response.StatusCode, "to", msg.To)
		return fmt.Errorf("notify: sendgrid status %d", response.StatusCode)
	}

	s.logger.Info("notification delivered", "to", msg.To, "status", response.StatusCode)
	return nil
}

func buildSendGridMessage(fromName, fromEmail string, msg EmailMessage) *mail.SGMailV3 {
	from := mail.NewEmail(fromName, fromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)

	html := msg.HTML
	if html == "" {
		html = msg.Body
	}
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, html)
	if msg.ReplyTo != "" {
		message.SetReplyTo(mail.NewEmail("", msg.ReplyTo))
	}
	return message
}

// StubEmailSender records that a notification was due and drops it. Used
// when SendGrid is not configured.
type StubEmailSender struct {
	logger *logging.Logger
}

func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

// Send logs the recipient and subject only; submission text stays out of logs.
func (s *StubEmailSender) Send(_ context.Context, msg EmailMessage) error {
	s.logger.Info("email disabled, notification dropped", "to", msg.To, "subject", msg.Subject)
	return nil
}
