package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/marcin-skalski/status-ticker/internal/config"
	"github.com/marcin-skalski/status-ticker/internal/status"
)

// Styles holds the bar palette built from the color config.
type Styles struct {
	bar       lipgloss.Style
	separator lipgloss.Style
	ok        lipgloss.Style
	degraded  lipgloss.Style
	outage    lipgloss.Style
	hover     lipgloss.Style
	status    lipgloss.Style
}

func NewStyles(c config.ColorConfig) Styles {
	bg := lipgloss.Color(c.Background)
	base := lipgloss.NewStyle().Background(bg)

	return Styles{
		bar:       base,
		separator: base.Foreground(lipgloss.Color(c.Foreground)),
		ok:        base.Foreground(lipgloss.Color(c.OK)),
		degraded:  base.Foreground(lipgloss.Color(c.Degraded)).Bold(true),
		outage:    base.Foreground(lipgloss.Color(c.Outage)).Bold(true),
		hover:     base.Foreground(lipgloss.Color(c.LinkHint)).Underline(true),
		status: base.
			Foreground(lipgloss.Color(c.Status)).
			Italic(true),
	}
}

func (s Styles) severity(sev status.Severity) lipgloss.Style {
	switch sev {
	case status.Outage:
		return s.outage
	case status.Degraded:
		return s.degraded
	default:
		return s.ok
	}
}

// segment picks the style for a segment span. Linked segments are underlined
// so they read as clickable; the hovered one switches to the link color.
func (s Styles) segment(seg status.Segment, hovered bool) lipgloss.Style {
	if hovered && seg.Linked() {
		return s.hover
	}
	st := s.severity(seg.Severity)
	if seg.Linked() {
		st = st.Underline(true)
	}
	return st
}
