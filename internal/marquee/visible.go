package marquee

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Span is the on-screen part of one item.
type Span struct {
	Index int
	Col   int
	Text  string
}

// Visible returns the clipped spans of every item intersecting the screen,
// left to right.
func (m *Marquee) Visible() []Span {
	var spans []Span
	for i, it := range m.items {
		if it.Right() < 0 || it.X >= m.width {
			continue
		}
		text := clip(it.Text, it.X, 0, m.width)
		if text == "" {
			continue
		}
		spans = append(spans, Span{Index: i, Col: max(it.X, 0), Text: text})
	}
	return spans
}

// clip returns the part of text, drawn starting at column x, that falls in
// [lo, hi). A wide rune cut by an edge is replaced by spaces.
func clip(text string, x, lo, hi int) string {
	var b strings.Builder
	col := x
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		end := col + w
		switch {
		case end <= lo:
		case col >= hi:
			return b.String()
		case col >= lo && end <= hi:
			b.WriteRune(r)
		default:
			b.WriteString(strings.Repeat(" ", min(end, hi)-max(col, lo)))
		}
		col = end
	}
	return b.String()
}
