package sources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/marcin-skalski/status-ticker/internal/status"
)

const MicrosoftStatusPage = "https://status.cloud.microsoft/"

// incidentTriggers mark a page line as an incident candidate.
var incidentTriggers = []string{"outage", "degraded", "incident", "disruption"}

// Microsoft scrapes the Microsoft cloud status HTML page.
type Microsoft struct {
	client *Client
	url    string
	page   string
}

func NewMicrosoft(client *Client, url, page string) *Microsoft {
	return &Microsoft{client: client, url: url, page: page}
}

func (m *Microsoft) Name() string { return "Microsoft Cloud" }

func (m *Microsoft) StatusPage() string { return m.page }

func (m *Microsoft) Fetch(ctx context.Context) (status.Segment, error) {
	body, err := m.client.Get(ctx, m.url)
	if err != nil {
		return status.Segment{}, err
	}

	lines, err := textLines(body)
	if err != nil {
		return status.Segment{}, fmt.Errorf("parse status page: %w", err)
	}

	var incidents []string
	worst := status.OK

	for _, ln := range lines {
		l := strings.ToLower(ln)
		if !containsAny(l, incidentTriggers) {
			continue
		}
		if !status.IsRelevant(ln, ln) {
			continue
		}
		worst = status.Combine(worst, status.Classify(ln))
		incidents = append(incidents, ln)
	}

	if len(incidents) == 0 {
		return status.Operational(m.Name(), m.page), nil
	}
	return status.Incident(m.Name(), worst, incidents, m.page), nil
}

// textLines returns the non-empty, trimmed lines of visible text in an HTML
// document. Script, style and template contents are skipped.
func textLines(doc []byte) ([]string, error) {
	z := html.NewTokenizer(bytes.NewReader(doc))
	var lines []string
	skip := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return lines, nil
			}
			return nil, z.Err()
		case html.StartTagToken:
			if hidden(z) {
				skip++
			}
		case html.EndTagToken:
			if hidden(z) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			for _, ln := range strings.Split(string(z.Text()), "\n") {
				if ln = status.Tidy(ln); ln != "" {
					lines = append(lines, ln)
				}
			}
		}
	}
}

func hidden(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style", "template", "noscript":
		return true
	}
	return false
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
