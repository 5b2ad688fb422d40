package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/skolarrs/leadintake/internal/leads"
	"github.com/skolarrs/leadintake/pkg/logging"
)

var notifyTracer = otel.Tracer("skolarrs.internal.notify")

// ErrDispatchFailed is returned when either lead email could not be sent.
var ErrDispatchFailed = errors.New("notify: failed to send email")

// Message kinds, used as metric labels.
const (
	KindOperator     = "operator"
	KindConfirmation = "confirmation"
)

// Providers understood by Settings.
const (
	ProviderResend   = "resend"
	ProviderSendGrid = "sendgrid"
	ProviderSES      = "ses"
	ProviderStub     = "stub"
)

// Settings is the email configuration needed to process a lead.
type Settings struct {
	Provider         string
	APIKey           string
	From             string
	To               []string
	CC               []string
	SendConfirmation bool
	BrandName        string
}

// ConfigError lists the configuration values that are missing.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return "notify: missing email configuration: " + strings.Join(e.Missing, ", ")
}

// Check returns a *ConfigError when a required value is absent. SES and the
// stub sender authenticate without an API key.
func (s Settings) Check() error {
	var missing []string
	switch s.Provider {
	case ProviderSES, ProviderStub:
	default:
		if strings.TrimSpace(s.APIKey) == "" {
			missing = append(missing, "api_key")
		}
	}
	if strings.TrimSpace(s.From) == "" {
		missing = append(missing, "from")
	}
	if len(s.To) == 0 {
		missing = append(missing, "to")
	}
	if len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}
	return nil
}

// DispatchRecorder receives per-message delivery outcomes.
type DispatchRecorder interface {
	ObserveEmail(kind, status string)
	ObserveDispatchLatency(kind string, seconds float64)
}

// Service sends the operator notification and the applicant confirmation for a lead.
type Service struct {
	email    EmailSender
	settings Settings
	recorder DispatchRecorder
	logger   *logging.Logger
}

// NewService creates a notification service.
func NewService(email EmailSender, settings Settings, recorder DispatchRecorder, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if settings.BrandName == "" {
		settings.BrandName = "Skolarrs Solutions"
	}
	settings.To = cleanList(settings.To)
	settings.CC = cleanList(settings.CC)
	return &Service{
		email:    email,
		settings: settings,
		recorder: recorder,
		logger:   logger,
	}
}

// Ready reports whether leads can be processed at all.
func (s *Service) Ready() error {
	if err := s.settings.Check(); err != nil {
		return err
	}
	if s.email == nil {
		return &ConfigError{Missing: []string{"sender"}}
	}
	return nil
}

// OperatorMessage builds the staff notification for lead.
func (s *Service) OperatorMessage(lead leads.LeadInput) EmailMessage {
	msg := EmailMessage{
		From:    s.settings.From,
		To:      s.settings.To,
		ReplyTo: lead.Email,
		Subject: fmt.Sprintf("New counselling enquiry from %s", lead.Name),
		Text:    RenderLeadText(lead),
		HTML:    RenderLeadHTML(lead),
	}
	if len(s.settings.CC) > 0 {
		msg.CC = s.settings.CC
	}
	return msg
}

// ConfirmationMessage builds the acknowledgement sent to the applicant.
func (s *Service) ConfirmationMessage(lead leads.LeadInput) EmailMessage {
	return EmailMessage{
		From:    s.settings.From,
		To:      []string{lead.Email},
		Subject: "We received your request",
		Text:    confirmationText(lead.Name, s.settings.BrandName),
		HTML:    confirmationHTML(lead.Name, s.settings.BrandName),
	}
}

// NotifyNewLead sends the operator notification, then the confirmation when
// enabled. Either failure yields ErrDispatchFailed; a sent operator email is
// not reported separately when the confirmation fails.
func (s *Service) NotifyNewLead(ctx context.Context, lead leads.LeadInput) error {
	if err := s.Ready(); err != nil {
		return err
	}

	ctx, span := notifyTracer.Start(ctx, "notify.new_lead")
	defer span.End()
	span.SetAttributes(
		attribute.String("lead.source", lead.Source),
		attribute.Bool("notify.confirmation_enabled", s.settings.SendConfirmation),
	)

	if err := s.dispatch(ctx, KindOperator, s.OperatorMessage(lead)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: operator notification: %w", ErrDispatchFailed, err)
	}

	if !s.settings.SendConfirmation {
		s.logger.Debug("notify: confirmation email disabled", "source", lead.Source)
		return nil
	}

	if err := s.dispatch(ctx, KindConfirmation, s.ConfirmationMessage(lead)); err != nil {
		span.RecordError(err)
		s.logger.Warn("notify: operator notified but confirmation failed", "error", err)
		return fmt.Errorf("%w: confirmation: %w", ErrDispatchFailed, err)
	}
	return nil
}

func (s *Service) dispatch(ctx context.Context, kind string, msg EmailMessage) error {
	start := time.Now()
	err := s.email.Send(ctx, msg)
	if s.recorder != nil {
		s.recorder.ObserveDispatchLatency(kind, time.Since(start).Seconds())
		status := "sent"
		if err != nil {
			status = "failed"
		}
		s.recorder.ObserveEmail(kind, status)
	}
	if err != nil {
		s.logger.Error("notify: failed to send email", "error", err, "kind", kind)
		return err
	}
	s.logger.Info("notify: lead email sent", "kind", kind, "recipients", len(msg.To)+len(msg.CC))
	return nil
}

func cleanList(in []string) []string {
	trimmed := lo.Map(in, func(s string, _ int) string { return strings.TrimSpace(s) })
	return lo.Uniq(lo.Compact(trimmed))
}

var _ leads.Notifier = (*Service)(nil)
