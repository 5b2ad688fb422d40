// Package leadform drives one lead capture form: field edits, the presence
// check gating submit, local validation, the single in-flight submission and
// the resulting status message. The inline hero form and the modal form share
// this controller and differ only in Kind and Variant.
package leadform

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/skolarrs/leadintake/internal/leads"
	"github.com/skolarrs/leadintake/internal/visibility"
	"github.com/skolarrs/leadintake/pkg/logging"
)

// Kind is the call site of a form.
type Kind string

const (
	KindInline Kind = "inline"
	KindModal  Kind = "modal"
)

// Status is the submission status shown next to the form.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSending Status = "sending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Status messages.
const (
	MsgFixFields = "Please correct the highlighted fields."
	MsgSending   = "Sending your request..."
	MsgSuccess   = "Thanks! Our team will reach out shortly."
	MsgFailed    = "Failed to send enquiry."
	MsgNetwork   = "Something went wrong. Please try again."
)

// DefaultCloseDelay is how long a modal stays open after a successful submit.
const DefaultCloseDelay = 2200 * time.Millisecond

var (
	// ErrSubmitInFlight is returned when a submission is already sending.
	ErrSubmitInFlight = errors.New("leadform: submission already in flight")
	// ErrIncomplete is returned when a required field is empty.
	ErrIncomplete = errors.New("leadform: required fields missing")
	// ErrDetached is returned once the controller has been torn down.
	ErrDetached = errors.New("leadform: controller detached")
	// ErrDiscarded is returned when the form was reset while the request was in flight.
	ErrDiscarded = errors.New("leadform: response discarded after reset")
)

// Closer hides the modal hosting the form.
type Closer interface {
	Close()
}

// State is a snapshot of the form.
type State struct {
	Values  leads.LeadInput
	Status  Status
	Errors  leads.FieldErrors
	Message string
	Source  string
}

// Outcome is the result of a Submit call.
type Outcome struct {
	Status  Status
	Message string
	Errors  leads.FieldErrors
	// Sent reports whether the intake endpoint was called.
	Sent bool
}

// Options configures a Controller.
type Options struct {
	Kind      Kind
	Variant   leads.Variant
	Submitter Submitter
	// Source labels submissions from an inline form. Bound modals take the
	// source from the coordinator instead.
	Source     string
	Closer     Closer
	CloseDelay time.Duration
	// OnSuccess shows the success popup.
	OnSuccess func(message string)
	Logger    *logging.Logger
}

type stopper interface {
	Stop() bool
}

type scheduleFunc func(d time.Duration, f func()) stopper

func realSchedule(d time.Duration, f func()) stopper {
	return time.AfterFunc(d, f)
}

// Controller holds the state of one form instance.
type Controller struct {
	mu         sync.Mutex
	kind       Kind
	variant    leads.Variant
	submitter  Submitter
	closer     Closer
	closeDelay time.Duration
	onSuccess  func(string)
	logger     *logging.Logger
	schedule   scheduleFunc

	source  string
	values  leads.LeadInput
	status  Status
	errors  leads.FieldErrors
	message string

	// gen changes on every reset so stale responses and close timers can be ignored.
	gen        uint64
	closeTimer stopper
	detached   bool
	wasOpen    bool
	observed   bool
	unbind     func()
}

// New creates an idle Controller.
func New(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.Kind == "" {
		opts.Kind = KindInline
	}
	if opts.Variant == "" {
		opts.Variant = leads.VariantStrict
	}
	if opts.CloseDelay <= 0 {
		opts.CloseDelay = DefaultCloseDelay
	}
	return &Controller{
		kind:       opts.Kind,
		variant:    opts.Variant,
		submitter:  opts.Submitter,
		closer:     opts.Closer,
		closeDelay: opts.CloseDelay,
		onSuccess:  opts.OnSuccess,
		logger:     opts.Logger,
		schedule:   realSchedule,
		source:     opts.Source,
		status:     StatusIdle,
		errors:     leads.FieldErrors{},
	}
}

// SetField updates one value and clears that field's error only.
func (c *Controller) SetField(field leads.Field, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detached {
		return
	}
	c.values = c.values.Set(field, value)
	delete(c.errors, field)
}

// CanSubmit reports whether every field required by the variant is present.
func (c *Controller) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !leads.MissingRequired(c.values, c.variant)
}

// Snapshot returns the current form state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Values:  c.values,
		Status:  c.status,
		Errors:  copyErrors(c.errors),
		Message: c.message,
		Source:  c.source,
	}
}

// Reset returns the form to idle with empty values and cancels a pending
// auto-close. A response still in flight is discarded.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

// Detach tears the instance down. Late responses and timers become no-ops.
func (c *Controller) Detach() {
	c.mu.Lock()
	if c.detached {
		c.mu.Unlock()
		return
	}
	c.detached = true
	c.gen++
	c.cancelCloseLocked()
	unbind := c.unbind
	c.unbind = nil
	c.mu.Unlock()

	if unbind != nil {
		unbind()
	}
}

// Bind ties a modal form to the page coordinator: the form resets on every
// transition into the open state and submits with the coordinator's source.
// The coordinator also becomes the Closer unless one was configured.
func (c *Controller) Bind(coord *visibility.Coordinator) {
	c.mu.Lock()
	if c.closer == nil {
		c.closer = coord
	}
	c.observed = false
	c.mu.Unlock()

	unsubscribe := coord.Subscribe(c.observe)
	state := coord.State()

	c.mu.Lock()
	c.unbind = unsubscribe
	// A notification delivered since Subscribe is newer than this snapshot.
	if !c.observed {
		c.wasOpen = state.IsOpen
		if state.IsOpen {
			c.source = state.Source
		}
	}
	c.mu.Unlock()
}

func (c *Controller) observe(state visibility.State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detached {
		return
	}
	c.observed = true
	opening := state.IsOpen && !c.wasOpen
	c.wasOpen = state.IsOpen
	if state.IsOpen {
		c.source = state.Source
	}
	if opening {
		c.resetLocked()
	}
}

// Submit validates the form and, when valid, sends it once. Local validation
// failures return a nil error with Status error and make no network call.
// Rejected and failed submissions return the Submitter's error.
func (c *Controller) Submit(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	if c.detached {
		c.mu.Unlock()
		return Outcome{}, ErrDetached
	}
	if c.status == StatusSending {
		out := c.outcomeLocked(false)
		c.mu.Unlock()
		return out, ErrSubmitInFlight
	}
	if leads.MissingRequired(c.values, c.variant) {
		out := c.outcomeLocked(false)
		c.mu.Unlock()
		return out, ErrIncomplete
	}

	in := c.values
	in.Source = c.source
	in = leads.Sanitize(in)
	if errs := leads.ValidateVariant(in, c.variant); leads.HasErrors(errs) {
		c.status = StatusError
		c.errors = errs
		c.message = MsgFixFields
		out := c.outcomeLocked(false)
		c.mu.Unlock()
		return out, nil
	}

	c.status = StatusSending
	c.message = MsgSending
	c.errors = leads.FieldErrors{}
	gen := c.gen
	submitter := c.submitter
	c.mu.Unlock()

	var err error
	if submitter == nil {
		err = errors.New("leadform: no submitter configured")
	} else {
		err = submitter.SubmitLead(ctx, in)
	}

	c.mu.Lock()
	if c.detached || gen != c.gen {
		c.mu.Unlock()
		c.logger.Debug("lead form response discarded", "source", in.Source)
		return Outcome{Sent: true}, ErrDiscarded
	}

	if err != nil {
		c.status = StatusError
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			for field, msg := range apiErr.Errors {
				c.errors[field] = msg
			}
			c.message = apiErr.Message
			if c.message == "" {
				c.message = MsgFailed
			}
		} else {
			c.message = MsgNetwork
		}
		out := c.outcomeLocked(true)
		c.mu.Unlock()
		c.logger.Warn("lead form submit failed", "error", err, "kind", string(c.kind), "source", in.Source)
		return out, err
	}

	c.status = StatusSuccess
	c.message = MsgSuccess
	c.values = leads.LeadInput{}
	if c.kind == KindModal && c.closer != nil {
		c.cancelCloseLocked()
		c.closeTimer = c.schedule(c.closeDelay, func() { c.autoClose(gen) })
	}
	out := c.outcomeLocked(true)
	onSuccess := c.onSuccess
	c.mu.Unlock()

	c.logger.Info("lead form submitted", "kind", string(c.kind), "source", in.Source)
	if onSuccess != nil {
		onSuccess(MsgSuccess)
	}
	return out, nil
}

func (c *Controller) autoClose(gen uint64) {
	c.mu.Lock()
	if c.detached || gen != c.gen || c.closeTimer == nil {
		c.mu.Unlock()
		return
	}
	c.closeTimer = nil
	closer := c.closer
	c.mu.Unlock()

	closer.Close()
}

func (c *Controller) resetLocked() {
	c.gen++
	c.cancelCloseLocked()
	c.values = leads.LeadInput{}
	c.status = StatusIdle
	c.errors = leads.FieldErrors{}
	c.message = ""
}

func (c *Controller) cancelCloseLocked() {
	if c.closeTimer != nil {
		c.closeTimer.Stop()
		c.closeTimer = nil
	}
}

func (c *Controller) outcomeLocked(sent bool) Outcome {
	return Outcome{
		Status:  c.status,
		Message: c.message,
		Errors:  copyErrors(c.errors),
		Sent:    sent,
	}
}

func copyErrors(errs leads.FieldErrors) leads.FieldErrors {
	out := make(leads.FieldErrors, len(errs))
	for k, v := range errs {
		out[k] = v
	}
	return out
}
