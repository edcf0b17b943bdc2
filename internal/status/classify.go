package status

import "strings"

var (
	outageWords = []string{
		"outage", "major outage", "critical", "down", "service outage", "service disruption",
	}
	degradedWords = []string{
		"degraded", "partial", "minor", "performance", "incident", "maintenance",
		"under maintenance", "disruption",
	}
	operationalWords = []string{
		"operational", "available", "all systems operational",
	}
)

// Region hints. Watched regions are the US and anything global.
var (
	usHints = []string{
		"united states", "u.s.", " us ", "usa", "north america", "americas",
		"us-east", "us west", "us-west", "united states of america",
	}
	globalHints = []string{
		"global", "worldwide", "all regions", "all locations", "all data centers",
		"multiple regions",
	}
	nonUSHints = []string{
		"europe", "emea", "apac", "asia", "australia", "new zealand",
		"japan", "korea", "india", "singapore", "hong kong", "taiwan",
		"china", "middle east", "africa", "south america", "latin america",
		"canada", "mexico", "uk", "united kingdom", "germany", "france",
		"spain", "italy", "netherlands", "sweden", "norway", "finland",
		"poland", "brazil", "argentina", "chile",
	}
)

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

// Classify maps free text to a severity. Outage keywords win over degraded
// ones, which win over an explicit operational phrase. Text matching none of
// them is treated as degraded.
func Classify(text string) Severity {
	t := normalize(text)
	switch {
	case containsAny(t, outageWords):
		return Outage
	case containsAny(t, degradedWords):
		return Degraded
	case containsAny(t, operationalWords):
		return OK
	default:
		return Degraded
	}
}

// IsRelevant reports whether an incident concerns a watched region. US or
// global hints include it, otherwise a non-US hint excludes it. Incidents
// without any hint are included.
func IsRelevant(title, body string) bool {
	t := normalize(title + "\n" + body)
	if containsAny(t, usHints) || containsAny(t, globalHints) {
		return true
	}
	return !containsAny(t, nonUSHints)
}

// Tidy collapses runs of whitespace, including newlines, to single spaces.
func Tidy(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
