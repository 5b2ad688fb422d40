package notify

import (
	"context"
	"fmt"
	netmail "net/mail"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/skolarrs/leadintake/pkg/logging"
)

// SendGridSender sends emails via SendGrid API.
type SendGridSender struct {
	client *sendgrid.Client
	logger *logging.Logger
}

// SendGridConfig holds configuration for SendGrid.
type SendGridConfig struct {
	APIKey string
}

// NewSendGridSender creates a new SendGrid email sender.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SendGridSender{
		client: sendgrid.NewSendClient(cfg.APIKey),
		logger: logger,
	}
}

// Send sends an email via SendGrid.
func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}
	message, err := buildSendGridMail(msg)
	if err != nil {
		return err
	}

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.logger.Error("sendgrid send failed", "error", err, "to", msg.To)
		return fmt.Errorf("notify: sendgrid send failed: %w", err)
	}

	if response.StatusCode >= 400 {
		s.logger.Error("sendgrid returned error status", "status", response.StatusCode, "body", response.Body, "to", msg.To)
		return &ProviderError{Provider: "sendgrid", Status: response.StatusCode, Detail: response.Body}
	}

	s.logger.Info("email sent via sendgrid", "to", msg.To, "subject", msg.Subject, "status", response.StatusCode)
	return nil
}

// buildSendGridMail maps an EmailMessage onto a single personalization.
func buildSendGridMail(msg EmailMessage) (*mail.SGMailV3, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	from, err := parseAddress(msg.From)
	if err != nil {
		return nil, fmt.Errorf("notify: invalid from address: %w", err)
	}

	m := mail.NewV3Mail()
	m.SetFrom(from)
	m.Subject = msg.Subject

	p := mail.NewPersonalization()
	for _, to := range msg.To {
		addr, err := parseAddress(to)
		if err != nil {
			return nil, fmt.Errorf("notify: invalid recipient %q: %w", to, err)
		}
		p.AddTos(addr)
	}
	for _, cc := range msg.CC {
		addr, err := parseAddress(cc)
		if err != nil {
			return nil, fmt.Errorf("notify: invalid cc %q: %w", cc, err)
		}
		p.AddCCs(addr)
	}
	m.AddPersonalizations(p)

	if msg.ReplyTo != "" {
		replyTo, err := parseAddress(msg.ReplyTo)
		if err != nil {
			return nil, fmt.Errorf("notify: invalid reply-to: %w", err)
		}
		m.SetReplyTo(replyTo)
	}

	text := msg.Text
	html := msg.HTML
	if html == "" {
		html = text
	}
	m.AddContent(mail.NewContent("text/plain", text), mail.NewContent("text/html", html))
	return m, nil
}

// parseAddress splits "Name <addr>" forms. Bare addresses pass through
// untouched; validation has already accepted them.
func parseAddress(raw string) (*mail.Email, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "<") {
		return mail.NewEmail("", raw), nil
	}
	addr, err := netmail.ParseAddress(raw)
	if err != nil {
		return nil, err
	}
	return mail.NewEmail(addr.Name, addr.Address), nil
}

var _ EmailSender = (*SendGridSender)(nil)
