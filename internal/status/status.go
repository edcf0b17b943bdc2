package status

import "strings"

type Severity int

const (
	OK Severity = iota
	Degraded
	Outage
)

func (s Severity) String() string {
	switch s {
	case OK:
		return "ok"
	case Degraded:
		return "degraded"
	case Outage:
		return "outage"
	default:
		return "unknown"
	}
}

// Header is the word used in a segment's text for a non-OK severity.
func (s Severity) Header() string {
	if s == Outage {
		return "Outage"
	}
	return "Degraded"
}

// Combine folds two severities into the worse of the two.
func Combine(a, b Severity) Severity {
	if a >= b {
		return a
	}
	return b
}

// Segment is one source's reduced status line. Segments are never mutated
// after creation; a refresh replaces the whole sequence.
type Segment struct {
	Text      string
	Severity  Severity
	URL       string
	Clickable bool
}

// Linked reports whether the segment should render as a link.
func (s Segment) Linked() bool {
	return s.Clickable && s.URL != ""
}

// Operational builds the OK segment for a source with no qualifying incidents.
func Operational(source, url string) Segment {
	return Segment{
		Text:      source + ": Operational",
		Severity:  OK,
		URL:       url,
		Clickable: url != "",
	}
}

// Incident builds the segment for a source with active incidents, listing at
// most two titles.
func Incident(source string, worst Severity, titles []string, url string) Segment {
	if len(titles) > 2 {
		titles = titles[:2]
	}
	return Segment{
		Text:      source + ": " + worst.Header() + " — " + strings.Join(titles, "; "),
		Severity:  worst,
		URL:       url,
		Clickable: url != "",
	}
}

// Unavailable builds the placeholder segment for a source whose fetch failed.
func Unavailable(source, url string) Segment {
	return Segment{
		Text:      source + ": Unavailable",
		Severity:  Degraded,
		URL:       url,
		Clickable: url != "",
	}
}
