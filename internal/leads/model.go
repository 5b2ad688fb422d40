package leads

import (
	"encoding/json"
	"time"
)

// DefaultSource is recorded when the submitting UI element did not name itself.
const DefaultSource = "Website"

// Field names a LeadInput attribute. The string value is the JSON key.
type Field string

const (
	FieldName             Field = "name"
	FieldEmail            Field = "email"
	FieldPhone            Field = "phone"
	FieldCity             Field = "city"
	FieldDesiredCourse    Field = "desiredCourse"
	FieldPreferredCountry Field = "preferredCountry"
	FieldIntake           Field = "intake"
	FieldSource           Field = "source"
)

// Fields lists the validated fields in the order rules are applied.
var Fields = []Field{
	FieldName,
	FieldEmail,
	FieldPhone,
	FieldCity,
	FieldDesiredCourse,
	FieldPreferredCountry,
	FieldIntake,
}

// Label is the human-readable column title used in notification tables.
func (f Field) Label() string {
	switch f {
	case FieldName:
		return "Name"
	case FieldEmail:
		return "Email"
	case FieldPhone:
		return "Phone"
	case FieldCity:
		return "City"
	case FieldDesiredCourse:
		return "Desired Course"
	case FieldPreferredCountry:
		return "Preferred Country"
	case FieldIntake:
		return "Intake"
	case FieldSource:
		return "Source"
	default:
		return string(f)
	}
}

// LeadInput is a prospective student's submission as posted by the site.
type LeadInput struct {
	Name             string `json:"name" validate:"required,min=2"`
	Email            string `json:"email" validate:"required,leademail"`
	Phone            string `json:"phone" validate:"required,leadphone"`
	City             string `json:"city" validate:"required,max=100"`
	DesiredCourse    string `json:"desiredCourse" validate:"required"`
	PreferredCountry string `json:"preferredCountry" validate:"required"`
	Intake           string `json:"intake" validate:"required"`
	Source           string `json:"source,omitempty"`
}

// Get returns the value stored for f.
func (in LeadInput) Get(f Field) string {
	switch f {
	case FieldName:
		return in.Name
	case FieldEmail:
		return in.Email
	case FieldPhone:
		return in.Phone
	case FieldCity:
		return in.City
	case FieldDesiredCourse:
		return in.DesiredCourse
	case FieldPreferredCountry:
		return in.PreferredCountry
	case FieldIntake:
		return in.Intake
	case FieldSource:
		return in.Source
	}
	return ""
}

// Set returns a copy of in with f replaced by value. Unknown fields are ignored.
func (in LeadInput) Set(f Field, value string) LeadInput {
	switch f {
	case FieldName:
		in.Name = value
	case FieldEmail:
		in.Email = value
	case FieldPhone:
		in.Phone = value
	case FieldCity:
		in.City = value
	case FieldDesiredCourse:
		in.DesiredCourse = value
	case FieldPreferredCountry:
		in.PreferredCountry = value
	case FieldIntake:
		in.Intake = value
	case FieldSource:
		in.Source = value
	}
	return in
}

// FieldErrors maps an invalid field to its message. Empty means valid.
type FieldErrors map[Field]string

// MarshalJSON always emits an object, never null.
func (e FieldErrors) MarshalJSON() ([]byte, error) {
	out := make(map[string]string, len(e))
	for k, v := range e {
		out[string(k)] = v
	}
	return json.Marshal(out)
}

// Lead is an accepted submission as kept in the archive.
type Lead struct {
	ID        string    `json:"id"`
	LeadInput           // embedded so the JSON shape matches the request
	CreatedAt time.Time `json:"created_at"`
}

// Options offered by the site's select inputs. Values outside these lists are
// still accepted; the selects include "Other".
var (
	DesiredCourseOptions = []string{"MBA", "MS", "MTech", "MSc", "Other"}

	PreferredCountryOptions = []string{
		"United Kingdom",
		"Canada",
		"Ireland",
		"Australia",
		"USA",
		"Germany",
		"New Zealand",
		"Other",
	}

	IntakeOptions = []string{"Jan 2026", "May 2026", "Sep 2026", "Other"}
)
