package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/marcin-skalski/status-ticker/internal/status"
)

const (
	GoogleAtomURL    = "https://www.google.com/appsstatus/dashboard/en/feed.atom"
	GoogleStatusPage = "https://www.google.com/appsstatus/dashboard/"
)

type atomFeed struct {
	XMLName xml.Name    `xml:"http://www.w3.org/2005/Atom feed"`
	Entries []atomEntry `xml:"http://www.w3.org/2005/Atom entry"`
}

type atomEntry struct {
	Title   string     `xml:"http://www.w3.org/2005/Atom title"`
	Summary string     `xml:"http://www.w3.org/2005/Atom summary"`
	Links   []atomLink `xml:"http://www.w3.org/2005/Atom link"`
}

type atomLink struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
}

func (e atomEntry) alternate() string {
	for _, l := range e.Links {
		if l.Rel == "alternate" {
			return strings.TrimSpace(l.Href)
		}
	}
	return ""
}

// GoogleWorkspace reads the Workspace status dashboard Atom feed. When watch
// is non-empty only incidents naming one of those products count.
type GoogleWorkspace struct {
	client *Client
	url    string
	page   string
	watch  []string
}

func NewGoogleWorkspace(client *Client, url, page string, watch []string) *GoogleWorkspace {
	lowered := make([]string, 0, len(watch))
	for _, w := range watch {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			lowered = append(lowered, w)
		}
	}
	return &GoogleWorkspace{client: client, url: url, page: page, watch: lowered}
}

func (g *GoogleWorkspace) Name() string { return "Google Workspace" }

func (g *GoogleWorkspace) StatusPage() string { return g.page }

func (g *GoogleWorkspace) Fetch(ctx context.Context) (status.Segment, error) {
	body, err := g.client.Get(ctx, g.url)
	if err != nil {
		return status.Segment{}, err
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return status.Segment{}, fmt.Errorf("parse atom feed: %w", err)
	}

	var titles []string
	worst := status.OK
	link := ""

	for _, e := range feed.Entries {
		title := strings.TrimSpace(e.Title)
		if strings.HasPrefix(strings.ToLower(title), "resolved:") {
			continue
		}
		summary := strings.TrimSpace(e.Summary)

		if !g.watched(title + " " + summary) {
			continue
		}
		if !status.IsRelevant(title, summary) {
			continue
		}

		sev := status.Classify(title + " " + summary)
		if sev == status.OK {
			continue
		}

		if link == "" {
			link = e.alternate()
		}
		worst = status.Combine(worst, sev)
		titles = append(titles, status.Tidy(title))
	}

	if len(titles) == 0 {
		return status.Operational(g.Name(), g.page), nil
	}
	if link == "" {
		link = g.page
	}
	return status.Incident(g.Name(), worst, titles, link), nil
}

func (g *GoogleWorkspace) watched(text string) bool {
	if len(g.watch) == 0 {
		return true
	}
	t := strings.ToLower(text)
	for _, w := range g.watch {
		if strings.Contains(t, w) {
			return true
		}
	}
	return false
}
