package visibility

import "strings"

// Trigger is a call-to-action that opens the form. Source falls back to
// Label when empty.
type Trigger struct {
	Label  string
	Source string
}

// SourceLabel returns the source recorded when the trigger fires.
func (t Trigger) SourceLabel() string {
	if source := strings.TrimSpace(t.Source); source != "" {
		return source
	}
	return t.Label
}

// Fire opens the form through o.
func (t Trigger) Fire(o Opener) {
	o.Open(t.SourceLabel())
}
