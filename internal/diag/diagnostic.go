package diag

import "github.com/kahflane/naml/internal/source"

// Note attaches supplementary context to a diagnostic at a secondary span.
type Note struct {
	Span source.Span
	Msg  string
}

// FixEdit is one textual edit a Fix would apply.
type FixEdit struct {
	Span    source.Span
	NewText string
}

// Fix is a suggested, machine-applicable correction.
type Fix struct {
	Title string
	Edits []FixEdit
}

// Diagnostic is a single rendered compiler message with a span, severity,
// and stable code (§4 Diagnostics component, §7).
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Fixes    []Fix
}
