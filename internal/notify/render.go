package notify

import (
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/skolarrs/leadintake/internal/leads"
)

// strictPolicy strips all markup and escapes the rest, so applicant-typed
// values can be dropped into the HTML body.
var strictPolicy = bluemonday.StrictPolicy()

type row struct {
	label string
	value string
}

// leadRows lists every lead field in table order; empty optional values render as "-".
func leadRows(lead leads.LeadInput) []row {
	fields := append(append([]leads.Field{}, leads.Fields...), leads.FieldSource)
	rows := make([]row, 0, len(fields))
	for _, f := range fields {
		value := lead.Get(f)
		if value == "" {
			value = "-"
		}
		rows = append(rows, row{label: f.Label(), value: value})
	}
	return rows
}

// RenderLeadText renders the lead as "Label: value" lines.
func RenderLeadText(lead leads.LeadInput) string {
	rows := leadRows(lead)
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("%s: %s", r.label, r.value))
	}
	return strings.Join(lines, "\n")
}

// RenderLeadHTML renders the lead as an HTML table for the operator inbox.
func RenderLeadHTML(lead leads.LeadInput) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family: Arial, sans-serif; color: #1a1a1a;">`)
	b.WriteString(`<h2>New Counselling Enquiry</h2>`)
	b.WriteString(`<table style="border-collapse: collapse; width: 100%;">`)
	for _, r := range leadRows(lead) {
		fmt.Fprintf(&b,
			`<tr><td style="padding: 8px 12px; border: 1px solid #eee; font-weight: 600;">%s</td><td style="padding: 8px 12px; border: 1px solid #eee;">%s</td></tr>`,
			r.label, strictPolicy.Sanitize(r.value))
	}
	b.WriteString(`</table></div>`)
	return b.String()
}

func confirmationText(name, brand string) string {
	return fmt.Sprintf("Hi %s,\n\nThank you for contacting %s. We have received your enquiry and our team will reach out shortly.\n\nRegards,\n%s",
		name, brand, brand)
}

func confirmationHTML(name, brand string) string {
	safeName := strictPolicy.Sanitize(name)
	safeBrand := strictPolicy.Sanitize(brand)
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; color: #1a1a1a; line-height: 1.6;">
<p>Hi %s,</p>
<p>Thank you for contacting %s.</p>
<p>We have received your enquiry and our team will reach out shortly.</p>
<p>Regards,<br/>%s</p>
</div>`, safeName, safeBrand, safeBrand)
}
