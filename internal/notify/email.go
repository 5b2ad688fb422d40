package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/skolarrs/leadintake/pkg/logging"
)

// EmailSender defines the interface for sending emails.
// Implementations can be swapped (Resend, SendGrid, SES) without changing callers.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage represents an email to be sent.
type EmailMessage struct {
	From    string // "Name <address>" or a bare address
	To      []string
	CC      []string
	ReplyTo string
	Subject string
	Text    string // Plain text body
	HTML    string // Optional HTML body
}

// Validate checks the fields every provider needs.
func (m EmailMessage) Validate() error {
	if strings.TrimSpace(m.From) == "" {
		return fmt.Errorf("notify: from address required")
	}
	if len(m.To) == 0 {
		return fmt.Errorf("notify: at least one recipient required")
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("notify: subject required")
	}
	return nil
}

// ProviderError carries the provider's HTTP status and response detail. It is
// logged for operators and never shown to applicants.
type ProviderError struct {
	Provider string
	Status   int
	Detail   string
}

func (e *ProviderError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("notify: %s returned status %d", e.Provider, e.Status)
	}
	return fmt.Sprintf("notify: %s returned status %d: %s", e.Provider, e.Status, e.Detail)
}

// StubEmailSender is a no-op sender for local development or when email is disabled.
type StubEmailSender struct {
	logger *logging.Logger
}

// NewStubEmailSender creates a stub email sender that logs but doesn't send.
func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

// Send logs the email but doesn't actually send it.
func (s *StubEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	s.logger.Info("stub email sender: would send email", "to", msg.To, "subject", msg.Subject)
	return nil
}

var _ EmailSender = (*StubEmailSender)(nil)
