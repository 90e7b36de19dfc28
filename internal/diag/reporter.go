package diag

import "github.com/kahflane/naml/internal/source"

// Reporter is the narrow interface compiler stages depend on so they don't
// need to know about Bag's locking or capacity limits.
type Reporter interface {
	Add(d Diagnostic)
}

// Builder provides a fluent way to assemble a Diagnostic before handing it
// to a Reporter.
type Builder struct {
	d Diagnostic
}

func New(sev Severity, code Code, msg string) *Builder {
	return &Builder{d: Diagnostic{Severity: sev, Code: code, Message: msg}}
}

func (b *Builder) At(span source.Span) *Builder {
	b.d.Primary = span
	return b
}

func (b *Builder) WithNote(n Note) *Builder {
	b.d.Notes = append(b.d.Notes, n)
	return b
}

func (b *Builder) WithFix(f Fix) *Builder {
	b.d.Fixes = append(b.d.Fixes, f)
	return b
}

func (b *Builder) Build() Diagnostic {
	return b.d
}
