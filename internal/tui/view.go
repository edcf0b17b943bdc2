package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/marcin-skalski/status-ticker/internal/marquee"
)

func renderView(m Model) string {
	width := m.width
	if width <= 0 {
		width = m.strip.Width()
	}

	var b strings.Builder
	b.WriteString(renderStrip(m, width))
	b.WriteString("\n")
	b.WriteString(renderStatus(m, width))
	return b.String()
}

// renderStrip draws the visible spans on a full-width background row.
func renderStrip(m Model, width int) string {
	var b strings.Builder
	items := m.strip.Items()
	col := 0
	for _, sp := range m.strip.Visible() {
		if sp.Col > col {
			b.WriteString(m.styles.bar.Render(strings.Repeat(" ", sp.Col-col)))
		}
		it := items[sp.Index]
		style := m.styles.separator
		if it.Kind != marquee.KindSeparator {
			style = m.styles.segment(it.Segment, sp.Index == m.hover)
		}
		b.WriteString(style.Render(sp.Text))
		col = sp.Col + runewidth.StringWidth(sp.Text)
	}
	if col < width {
		b.WriteString(m.styles.bar.Render(strings.Repeat(" ", width-col)))
	}
	return b.String()
}

func renderStatus(m Model, width int) string {
	line := m.status + " • " + hintText
	if runewidth.StringWidth(line) > width {
		line = runewidth.Truncate(line, width, "…")
	}
	return m.styles.status.Width(width).Render(line)
}
