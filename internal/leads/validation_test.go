package leads

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func validInput() LeadInput {
	return LeadInput{
		Name:             "Jo",
		Email:            "jo@example.com",
		Phone:            "+1 555 123 4567",
		City:             "Pune",
		DesiredCourse:    "MBA",
		PreferredCountry: "Canada",
		Intake:           "Jan 2026",
	}
}

func TestSanitize_TrimsAndDefaultsSource(t *testing.T) {
	got := Sanitize(LeadInput{
		Name:   "  Asha Rao ",
		Email:  "\tasha@example.com\n",
		Phone:  " 98765 43210 ",
		City:   "  ",
		Source: "   ",
	})

	want := LeadInput{
		Name:   "Asha Rao",
		Email:  "asha@example.com",
		Phone:  "98765 43210",
		Source: DefaultSource,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Sanitize mismatch (-want +got):\n%s", diff)
	}
}

func TestSanitize_KeepsExplicitSource(t *testing.T) {
	got := Sanitize(LeadInput{Source: " Hero Form "})
	if got.Source != "Hero Form" {
		t.Fatalf("expected trimmed source, got %q", got.Source)
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []LeadInput{
		{},
		validInput(),
		{Name: "  x  ", Email: " a@b.co ", Source: " Auto Prompt "},
		{City: strings.Repeat(" ", 10), Intake: "\tSep 2026\t"},
	}
	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Fatalf("Sanitize not idempotent for %+v (-once +twice):\n%s", in, diff)
		}
	}
}

func TestValidate_AcceptsCompleteLead(t *testing.T) {
	errs := Validate(Sanitize(validInput()))
	if HasErrors(errs) {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if len(errs) != 0 {
		t.Fatalf("expected empty mapping, got %v", errs)
	}
}

func TestValidate_MissingFieldReportsOnlyThatField(t *testing.T) {
	for _, field := range Fields {
		t.Run(string(field), func(t *testing.T) {
			in := Sanitize(validInput().Set(field, ""))
			errs := Validate(in)
			if len(errs) != 1 {
				t.Fatalf("expected exactly one error, got %v", errs)
			}
			if _, ok := errs[field]; !ok {
				t.Fatalf("expected error for %s, got %v", field, errs)
			}
		})
	}
}

func TestValidate_InvalidEmailOnly(t *testing.T) {
	in := validInput()
	in.Email = "not-an-email"

	errs := Validate(Sanitize(in))
	want := FieldErrors{FieldEmail: "Enter a valid email address."}
	if diff := cmp.Diff(want, errs); diff != "" {
		t.Fatalf("unexpected errors (-want +got):\n%s", diff)
	}
}

func TestValidate_WhitespaceNameFailsRequired(t *testing.T) {
	in := validInput()
	in.Name = "    "

	errs := Validate(Sanitize(in))
	if errs[FieldName] != "Name is required." {
		t.Fatalf("expected required message, got %q", errs[FieldName])
	}
}

func TestValidate_FieldRules(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		value string
		want  string
	}{
		{"short name", FieldName, "J", "Name should be at least 2 characters."},
		{"multibyte name ok", FieldName, "李明", ""},
		{"email without tld", FieldEmail, "jo@example", "Enter a valid email address."},
		{"email with space", FieldEmail, "jo @example.com", "Enter a valid email address."},
		{"phone letters", FieldPhone, "555-CALL-NOW", "Enter a valid phone number."},
		{"phone too short", FieldPhone, "12345", "Enter a valid phone number."},
		{"phone too long", FieldPhone, "+123456789012345678901", "Enter a valid phone number."},
		{"phone with parens", FieldPhone, "(020) 7946-0958", ""},
		{"phone plus only at start", FieldPhone, "12+3456789", "Enter a valid phone number."},
		{"city at limit", FieldCity, strings.Repeat("a", 100), ""},
		{"city too long", FieldCity, strings.Repeat("a", 101), "City is too long."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(Sanitize(validInput().Set(tt.field, tt.value)))
			if got := errs[tt.field]; got != tt.want {
				t.Fatalf("expected %q, got %q (all: %v)", tt.want, got, errs)
			}
			if tt.want == "" && HasErrors(errs) {
				t.Fatalf("expected valid input, got %v", errs)
			}
		})
	}
}

func TestValidateVariant_MinimalAllowsMissingOptionalFields(t *testing.T) {
	in := LeadInput{Name: "Jo", Email: "jo@example.com", Phone: "+44 20 7946 0958"}

	if errs := ValidateVariant(Sanitize(in), VariantMinimal); HasErrors(errs) {
		t.Fatalf("expected minimal variant to accept, got %v", errs)
	}

	strict := Validate(Sanitize(in))
	for _, f := range []Field{FieldCity, FieldDesiredCourse, FieldPreferredCountry, FieldIntake} {
		if _, ok := strict[f]; !ok {
			t.Fatalf("expected strict variant to require %s", f)
		}
	}
}

func TestValidateVariant_MinimalStillLimitsCity(t *testing.T) {
	in := LeadInput{Name: "Jo", Email: "jo@example.com", Phone: "5551234567", City: strings.Repeat("b", 101)}
	errs := ValidateVariant(Sanitize(in), VariantMinimal)
	if errs[FieldCity] != "City is too long." {
		t.Fatalf("expected city length error, got %v", errs)
	}
}

func TestValidateVariant_RequiredMatchesVariant(t *testing.T) {
	for _, v := range []Variant{VariantStrict, VariantMinimal} {
		required := map[Field]bool{}
		for _, f := range v.Required() {
			required[f] = true
		}
		for _, field := range Fields {
			errs := ValidateVariant(Sanitize(validInput().Set(field, "")), v)
			_, got := errs[field]
			if got != required[field] {
				t.Fatalf("%s/%s: required error = %v, want %v (all: %v)", v, field, got, required[field], errs)
			}
			if got && errs[field] != requiredMessages[field] {
				t.Fatalf("%s/%s: unexpected message %q", v, field, errs[field])
			}
		}
	}
}

func TestHasErrors(t *testing.T) {
	if HasErrors(nil) || HasErrors(FieldErrors{}) {
		t.Fatal("empty mappings must not report errors")
	}
	if !HasErrors(FieldErrors{FieldPhone: "x"}) {
		t.Fatal("non-empty mapping must report errors")
	}
}

func TestMissingRequired(t *testing.T) {
	in := LeadInput{Name: "Jo", Email: "jo@example.com", Phone: "5551234567"}
	if MissingRequired(in, VariantMinimal) {
		t.Fatal("minimal variant should be satisfied")
	}
	if !MissingRequired(in, VariantStrict) {
		t.Fatal("strict variant should need the remaining fields")
	}
}

func TestParseVariant(t *testing.T) {
	if ParseVariant(" MINIMAL ") != VariantMinimal {
		t.Fatal("expected minimal")
	}
	if ParseVariant("") != VariantStrict || ParseVariant("bogus") != VariantStrict {
		t.Fatal("expected strict fallback")
	}
}

func TestFieldErrorsMarshalJSON(t *testing.T) {
	raw, err := FieldErrors{FieldPhone: "Enter a valid phone number."}.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"phone":"Enter a valid phone number."}` {
		t.Fatalf("unexpected json %s", raw)
	}
}
