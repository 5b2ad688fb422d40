package leadform

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

	"github.com/skolarrs/leadintake/internal/leads"
	"github.com/skolarrs/leadintake/pkg/logging"
)

var clientTracer = otel.Tracer("skolarrs.internal.leadform.client")

// Submitter delivers a sanitized lead to the intake endpoint. A non-2xx
// response is returned as *APIError; any other error means the request
// never completed.
type Submitter interface {
	SubmitLead(ctx context.Context, lead leads.LeadInput) error
}

// APIError is a non-2xx response from the intake endpoint.
type APIError struct {
	Status  int
	Message string
	Errors  leads.FieldErrors
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("leadform: intake returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("leadform: intake returned %d", e.Status)
}

// Client posts leads to {BaseURL}/api/lead.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewClient builds an intake client.
func NewClient(cfg ClientConfig, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// SubmitLead posts the lead once. There is no retry.
func (c *Client) SubmitLead(ctx context.Context, lead leads.LeadInput) error {
	ctx, span := clientTracer.Start(ctx, "leadform.submit")
	defer span.End()
	span.SetAttributes(attribute.String("lead.source", lead.Source))

	body, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("leadform: marshal lead: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/lead", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("leadform: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		c.logger.Warn("lead submit failed", "error", err)
		return fmt.Errorf("leadform: post lead: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	apiErr := &APIError{Status: resp.StatusCode}
	var payload leads.SubmitResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &payload); err == nil {
		apiErr.Message = payload.Error
		apiErr.Errors = payload.Errors
	}
	span.RecordError(apiErr)
	c.logger.Warn("lead submit rejected", "status", resp.StatusCode, "error", apiErr.Message)
	return apiErr
}

var _ Submitter = (*Client)(nil)
