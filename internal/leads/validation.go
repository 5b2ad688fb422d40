package leads

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[+]?[\d\s\-()]{7,20}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON key so errors line up with Field values.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "leademail", emailPattern)
	mustRegister(v, "leadphone", phonePattern)
	return v
}

func mustRegister(v *validator.Validate, tag string, re *regexp.Regexp) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(err)
	}
}

// minimalLead carries the relaxed tag set. It converts to and from LeadInput.
type minimalLead struct {
	Name             string `json:"name" validate:"required,min=2"`
	Email            string `json:"email" validate:"required,leademail"`
	Phone            string `json:"phone" validate:"required,leadphone"`
	City             string `json:"city" validate:"omitempty,max=100"`
	DesiredCourse    string `json:"desiredCourse"`
	PreferredCountry string `json:"preferredCountry"`
	Intake           string `json:"intake"`
	Source           string `json:"source,omitempty"`
}

var requiredMessages = map[Field]string{
	FieldName:             "Name is required.",
	FieldEmail:            "Email is required.",
	FieldPhone:            "Phone number is required.",
	FieldCity:             "City is required.",
	FieldDesiredCourse:    "Desired course is required.",
	FieldPreferredCountry: "Preferred country is required.",
	FieldIntake:           "Intake is required.",
}

func ruleMessage(f Field, tag string) string {
	switch tag {
	case "required":
		return requiredMessages[f]
	case "min":
		return "Name should be at least 2 characters."
	case "max":
		return "City is too long."
	case "leademail":
		return "Enter a valid email address."
	case "leadphone":
		return "Enter a valid phone number."
	default:
		return "Invalid value."
	}
}

// Variant selects which fields a form treats as required.
type Variant string

const (
	// VariantStrict requires every field. Used by the intake endpoint unless configured otherwise.
	VariantStrict Variant = "strict"
	// VariantMinimal requires only name, email and phone.
	VariantMinimal Variant = "minimal"
)

// ParseVariant maps a configuration value to a Variant, defaulting to strict.
func ParseVariant(s string) Variant {
	if Variant(strings.ToLower(strings.TrimSpace(s))) == VariantMinimal {
		return VariantMinimal
	}
	return VariantStrict
}

// Required lists the fields that must be non-empty for this variant.
func (v Variant) Required() []Field {
	if v == VariantMinimal {
		return []Field{FieldName, FieldEmail, FieldPhone}
	}
	return Fields
}

// Sanitize trims every field and fills in the default source. It never fails
// and Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(in LeadInput) LeadInput {
	out := LeadInput{
		Name:             strings.TrimSpace(in.Name),
		Email:            strings.TrimSpace(in.Email),
		Phone:            strings.TrimSpace(in.Phone),
		City:             strings.TrimSpace(in.City),
		DesiredCourse:    strings.TrimSpace(in.DesiredCourse),
		PreferredCountry: strings.TrimSpace(in.PreferredCountry),
		Intake:           strings.TrimSpace(in.Intake),
		Source:           strings.TrimSpace(in.Source),
	}
	if out.Source == "" {
		out.Source = DefaultSource
	}
	return out
}

// Validate applies the strict rule set. Call it on Sanitize output.
func Validate(in LeadInput) FieldErrors {
	return ValidateVariant(in, VariantStrict)
}

// ValidateVariant applies the rules for v. A field with no violation is absent
// from the result.
func ValidateVariant(in LeadInput, v Variant) FieldErrors {
	var err error
	if v == VariantMinimal {
		err = validate.Struct(minimalLead(in))
	} else {
		err = validate.Struct(in)
	}

	errs := FieldErrors{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errs
	}
	for _, fe := range verrs {
		f := Field(fe.Field())
		errs[f] = ruleMessage(f, fe.Tag())
	}
	return errs
}

// HasErrors reports whether errs holds at least one entry.
func HasErrors(errs FieldErrors) bool {
	return len(errs) > 0
}

// MissingRequired reports whether any field required by v is empty. It is a
// presence check only; full validation happens on submit.
func MissingRequired(in LeadInput, v Variant) bool {
	for _, f := range v.Required() {
		if in.Get(f) == "" {
			return true
		}
	}
	return false
}
