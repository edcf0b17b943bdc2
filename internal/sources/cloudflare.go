package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/marcin-skalski/status-ticker/internal/status"
)

const (
	CloudflareSummaryURL = "https://www.cloudflarestatus.com/api/v2/summary.json"
	CloudflareStatusPage = "https://www.cloudflarestatus.com/"
)

type cloudflareSummary struct {
	Status struct {
		Indicator string `json:"indicator"`
	} `json:"status"`
	Incidents []cloudflareIncident `json:"incidents"`
}

type cloudflareIncident struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	Impact    string `json:"impact"`
	Shortlink string `json:"shortlink"`
	Updates   []struct {
		Body string `json:"body"`
	} `json:"incident_updates"`
}

// Cloudflare reads a Statuspage summary.json document.
type Cloudflare struct {
	client *Client
	url    string
	page   string
}

func NewCloudflare(client *Client, url, page string) *Cloudflare {
	return &Cloudflare{client: client, url: url, page: page}
}

func (c *Cloudflare) Name() string { return "Cloudflare" }

func (c *Cloudflare) StatusPage() string { return c.page }

func (c *Cloudflare) Fetch(ctx context.Context) (status.Segment, error) {
	body, err := c.client.Get(ctx, c.url)
	if err != nil {
		return status.Segment{}, err
	}

	var summary cloudflareSummary
	if err := json.Unmarshal(body, &summary); err != nil {
		return status.Segment{}, fmt.Errorf("parse summary: %w", err)
	}

	if strings.EqualFold(summary.Status.Indicator, "none") {
		return status.Operational(c.Name(), ""), nil
	}

	var titles []string
	worst := status.OK
	link := c.page

	for _, inc := range summary.Incidents {
		switch strings.ToLower(inc.Status) {
		case "resolved", "postmortem":
			continue
		}

		title := status.Tidy(inc.Name)
		var update string
		if len(inc.Updates) > 0 {
			update = inc.Updates[0].Body
		}
		if !status.IsRelevant(title, update) {
			continue
		}

		worst = status.Combine(worst, impactSeverity(inc.Impact, title+" "+update))

		if title != "" {
			titles = append(titles, title)
		}
		if inc.Shortlink != "" {
			link = inc.Shortlink
		}
	}

	if len(titles) == 0 {
		return status.Operational(c.Name(), ""), nil
	}
	return status.Incident(c.Name(), worst, titles, link), nil
}

// impactSeverity prefers the structured impact field and falls back to
// keyword classification of the incident text.
func impactSeverity(impact, text string) status.Severity {
	switch strings.ToLower(impact) {
	case "minor":
		return status.Degraded
	case "major", "critical":
		return status.Outage
	default:
		return status.Classify(text)
	}
}
