// Package diagfmt renders diag.Diagnostic values as the spanned,
// color-coded terminal output described in spec §7 ("every terminating
// fault prints a single-line summary followed by the spanned source
// snippet and a stack of function names").
package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/source"
)

// Renderer formats diagnostics against a FileSet.
type Renderer struct {
	Files *source.FileSet
	// Color forces ANSI output on/off; nil means auto-detect via
	// golang.org/x/term against the destination writer.
	Color *bool
	Width int
}

func NewRenderer(files *source.FileSet) *Renderer {
	return &Renderer{Files: files}
}

func (r *Renderer) useColor(w io.Writer) bool {
	if r.Color != nil {
		return *r.Color
	}
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func (r *Renderer) width() int {
	if r.Width > 0 {
		return r.Width
	}
	return 100
}

var severityStyle = map[diag.Severity]func(string, ...interface{}) string{
	diag.SevError:   color.New(color.FgRed, color.Bold).SprintfFunc(),
	diag.SevWarning: color.New(color.FgYellow, color.Bold).SprintfFunc(),
	diag.SevInfo:    color.New(color.FgCyan).SprintfFunc(),
}

// Render writes one diagnostic to w, in the style:
//
//	error[E3002]: type mismatch
//	    --> foo.nm:12:5
//	   |
//	12 | var x: int = "hi";
//	   |     ^^^^^^^^^^^^^^
func (r *Renderer) Render(w io.Writer, d diag.Diagnostic) {
	useColor := r.useColor(w)
	header := fmt.Sprintf("%s[%s]: %s", d.Severity, d.Code, d.Message)
	if useColor {
		if style, ok := severityStyle[d.Severity]; ok {
			header = style("%s[%s]: %s", d.Severity, d.Code, d.Message)
		}
	}
	fmt.Fprintln(w, header)

	if d.Primary != source.Zero || d.Primary.File != source.NoFile {
		r.renderSnippet(w, d.Primary, useColor)
	}
	for _, n := range d.Notes {
		fmt.Fprintf(w, "  note: %s\n", n.Msg)
		if n.Span.File != source.NoFile {
			r.renderSnippet(w, n.Span, useColor)
		}
	}
}

func (r *Renderer) renderSnippet(w io.Writer, span source.Span, useColor bool) {
	f := r.Files.File(span.File)
	if f == nil {
		return
	}
	pos := f.Position(span.Start)
	line := f.LineText(pos.Line)

	gutter := fmt.Sprintf("%d", pos.Line)
	pad := strings.Repeat(" ", len(gutter))

	locLine := fmt.Sprintf("%s--> %s:%s", pad, f.Path, pos)
	fmt.Fprintln(w, indent(locLine))
	fmt.Fprintf(w, "%s |\n", pad)
	fmt.Fprintf(w, "%s | %s\n", gutter, line)

	caretStart, caretLen := caretRange(line, pos.Column-1, span)
	caret := strings.Repeat(" ", caretStart) + strings.Repeat("^", max(caretLen, 1))
	caretLine := fmt.Sprintf("%s | %s", pad, caret)
	if useColor {
		caretLine = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render(caretLine)
	}
	fmt.Fprintln(w, caretLine)
}

func indent(s string) string { return "  " + s }

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
