package diagfmt

import (
	"github.com/clipperhouse/uax29/v2/graphemes"
	"github.com/mattn/go-runewidth"

	"github.com/kahflane/naml/internal/source"
)

// caretRange computes the display-column start and display-width of a
// diagnostic's caret underline on the rendered source line. It walks the
// line grapheme cluster by grapheme cluster (via UAX#29 segmentation)
// rather than byte or rune, so a caret lands under the correct column even
// when the line contains multi-byte identifiers or combining marks in a
// string literal — a byte-offset caret would drift on such lines.
func caretRange(line string, byteCol int, span source.Span) (start, width int) {
	spanLen := int(span.Len())
	if spanLen <= 0 {
		spanLen = 1
	}
	spanEndByte := byteCol + spanLen

	seg := graphemes.FromString(line)
	col := 0
	byteOffset := 0
	for seg.Next() {
		cluster := seg.Value()
		clusterWidth := runewidth.StringWidth(cluster)
		if byteOffset < byteCol {
			start += clusterWidth
		} else if byteOffset < spanEndByte {
			width += clusterWidth
		}
		byteOffset += len(cluster)
		col++
	}
	if width == 0 {
		width = 1
	}
	return start, width
}
