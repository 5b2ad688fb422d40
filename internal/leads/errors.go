package leads

import "errors"

var (
	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")

	// ErrInvalidLead is returned when an archive write is attempted with a lead that fails validation
	ErrInvalidLead = errors.New("lead failed validation")

	errNullPayload  = errors.New("payload is not a JSON object")
	errTrailingData = errors.New("payload has trailing data")
)
