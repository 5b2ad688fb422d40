package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/skolarrs/leadintake/pkg/logging"
)

var resendTracer = otel.Tracer("skolarrs.internal.notify.resend")

// DefaultResendBaseURL is the public Resend API root.
const DefaultResendBaseURL = "https://api.resend.com"

// ResendSender posts emails to the Resend HTTP API.
type ResendSender struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// ResendConfig holds configuration for Resend.
type ResendConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// NewResendSender builds a Resend sender. Returns nil without an API key.
func NewResendSender(cfg ResendConfig, logger *logging.Logger) *ResendSender {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultResendBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &ResendSender{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

type resendPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	CC      []string `json:"cc,omitempty"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
	HTML    string   `json:"html"`
}

// Send dispatches a single email. There is no retry; callers decide what a
// failure means.
func (s *ResendSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.apiKey == "" {
		return fmt.Errorf("notify: resend client not configured")
	}
	if err := msg.Validate(); err != nil {
		return err
	}

	ctx, span := resendTracer.Start(ctx, "notify.resend.send")
	defer span.End()
	span.SetAttributes(
		attribute.Int("email.to_count", len(msg.To)),
		attribute.Int("email.cc_count", len(msg.CC)),
	)

	body, err := json.Marshal(resendPayload{
		From:    msg.From,
		To:      msg.To,
		CC:      msg.CC,
		ReplyTo: msg.ReplyTo,
		Subject: msg.Subject,
		Text:    msg.Text,
		HTML:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("notify: marshal resend payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build resend request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("resend send failed", "error", err, "to", msg.To)
		return fmt.Errorf("notify: resend send failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		perr := &ProviderError{Provider: "resend", Status: resp.StatusCode, Detail: strings.TrimSpace(string(respBody))}
		span.RecordError(perr)
		s.logger.Error("resend returned error status", "status", resp.StatusCode, "body", perr.Detail, "to", msg.To)
		return perr
	}

	var parsed struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(respBody, &parsed)
	s.logger.Info("email sent via resend", "to", msg.To, "subject", msg.Subject, "message_id", parsed.ID)
	return nil
}

var _ EmailSender = (*ResendSender)(nil)
