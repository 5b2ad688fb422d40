package leads

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/skolarrs/leadintake/pkg/logging"
)

var intakeTracer = otel.Tracer("skolarrs.internal.leads.intake")

const maxBodyBytes = 64 << 10

// Response messages returned by the intake endpoint.
const (
	MsgInvalidPayload  = "Invalid payload."
	MsgFixErrors       = "Please correct form errors and try again."
	MsgMissingConfig   = "Missing email configuration."
	MsgSendFailed      = "Failed to send email."
	MsgTooManyRequests = "Too many requests. Please try again later."
)

// Outcome labels recorded per submission.
const (
	OutcomeAccepted       = "accepted"
	OutcomeInvalidPayload = "invalid_payload"
	OutcomeInvalidFields  = "invalid_fields"
	OutcomeConfigMissing  = "config_missing"
	OutcomeSendFailed     = "send_failed"
)

// Notifier dispatches the operator notification and applicant confirmation.
type Notifier interface {
	// Ready reports a configuration error when email delivery cannot work.
	Ready() error
	NotifyNewLead(ctx context.Context, lead LeadInput) error
}

// Recorder receives one outcome per request.
type Recorder interface {
	ObserveSubmission(outcome, source string)
}

// SubmitResponse is the JSON body of every intake response.
type SubmitResponse struct {
	OK     bool        `json:"ok,omitempty"`
	Error  string      `json:"error,omitempty"`
	Errors FieldErrors `json:"errors,omitempty"`
}

// Handler serves the lead intake endpoint.
type Handler struct {
	notifier Notifier
	archive  Repository
	variant  Variant
	recorder Recorder
	logger   *logging.Logger
}

// HandlerConfig wires a Handler. Archive and Recorder are optional.
type HandlerConfig struct {
	Notifier Notifier
	Archive  Repository
	Variant  Variant
	Recorder Recorder
	Logger   *logging.Logger
}

// NewHandler creates a new leads handler
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Variant == "" {
		cfg.Variant = VariantStrict
	}
	return &Handler{
		notifier: cfg.Notifier,
		archive:  cfg.Archive,
		variant:  cfg.Variant,
		recorder: cfg.Recorder,
		logger:   cfg.Logger,
	}
}

// CreateLead handles POST /api/lead requests
func (h *Handler) CreateLead(w http.ResponseWriter, r *http.Request) {
	ctx, span := intakeTracer.Start(r.Context(), "leads.intake")
	defer span.End()

	// Configuration is checked before the body is read.
	if h.notifier == nil {
		h.logger.Error("lead intake: notifier not configured")
		h.finish(w, span, OutcomeConfigMissing, "", http.StatusInternalServerError, SubmitResponse{Error: MsgMissingConfig})
		return
	}
	if err := h.notifier.Ready(); err != nil {
		h.logger.Error("lead intake: email configuration incomplete", "error", err)
		h.finish(w, span, OutcomeConfigMissing, "", http.StatusInternalServerError, SubmitResponse{Error: MsgMissingConfig})
		return
	}

	payload, err := decodePayload(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Info("lead intake: invalid payload", "error", err)
		h.finish(w, span, OutcomeInvalidPayload, "", http.StatusBadRequest, SubmitResponse{Error: MsgInvalidPayload})
		return
	}

	lead := Sanitize(payload)
	span.SetAttributes(attribute.String("lead.source", lead.Source))

	if errs := ValidateVariant(lead, h.variant); HasErrors(errs) {
		h.logger.Info("lead intake: validation failed", "fields", len(errs), "source", lead.Source)
		h.finish(w, span, OutcomeInvalidFields, lead.Source, http.StatusBadRequest, SubmitResponse{Error: MsgFixErrors, Errors: errs})
		return
	}

	if h.archive != nil {
		if stored, err := h.archive.Create(ctx, lead); err != nil {
			h.logger.Warn("lead intake: archive write failed", "error", err)
		} else {
			span.SetAttributes(attribute.String("lead.id", stored.ID))
		}
	}

	if err := h.notifier.NotifyNewLead(ctx, lead); err != nil {
		span.RecordError(err)
		h.logger.Error("lead intake: email dispatch failed", "error", err, "source", lead.Source)
		h.finish(w, span, OutcomeSendFailed, lead.Source, http.StatusInternalServerError, SubmitResponse{Error: MsgSendFailed})
		return
	}

	h.logger.Info("lead intake: lead accepted", "source", lead.Source)
	h.finish(w, span, OutcomeAccepted, lead.Source, http.StatusOK, SubmitResponse{OK: true})
}

// decodePayload reads exactly one JSON object from body.
func decodePayload(body io.Reader) (LeadInput, error) {
	dec := json.NewDecoder(body)
	var payload *LeadInput
	if err := dec.Decode(&payload); err != nil {
		return LeadInput{}, err
	}
	if payload == nil {
		return LeadInput{}, errNullPayload
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return LeadInput{}, errTrailingData
	}
	return *payload, nil
}

func (h *Handler) finish(w http.ResponseWriter, span trace.Span, outcome, source string, status int, body SubmitResponse) {
	span.SetAttributes(
		attribute.String("lead.outcome", outcome),
		attribute.Int("http.status_code", status),
	)
	if status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, outcome)
	}
	if h.recorder != nil {
		h.recorder.ObserveSubmission(outcome, source)
	}
	writeJSON(w, status, body)
}

// ListLeadsResponse is the response for listing archived leads
type ListLeadsResponse struct {
	Leads []*Lead `json:"leads"`
	Count int     `json:"count"`
	Limit int     `json:"limit"`
}

// ListLeads handles GET /admin/leads requests
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		http.Error(w, "lead archive not configured", http.StatusNotFound)
		return
	}

	limit := DefaultListLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = ClampListLimit(parsed)
		}
	}

	leads, err := h.archive.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list leads", "error", err)
		http.Error(w, "failed to list leads", http.StatusInternalServerError)
		return
	}
	if leads == nil {
		leads = []*Lead{}
	}

	writeJSON(w, http.StatusOK, ListLeadsResponse{
		Leads: leads,
		Count: len(leads),
		Limit: limit,
	})
}

// WriteRateLimited writes the 429 body used by the rate limit middleware so the
// form sees the same response shape as every other failure.
func WriteRateLimited(w http.ResponseWriter) {
	writeJSON(w, http.StatusTooManyRequests, SubmitResponse{Error: MsgTooManyRequests})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
