package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/marcin-skalski/status-ticker/internal/status"
)

const (
	SecurlyRSSURL     = "https://status.io/pages/5721276eb12b2e5843002acb/rss"
	SecurlyStatusPage = "https://securly.status.io/"
)

type rssFeed struct {
	Items []rssItem `xml:"channel>item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Description string `xml:"description"`
	Link        string `xml:"link"`
}

// Securly reads a status.io RSS 2.0 feed.
type Securly struct {
	client *Client
	url    string
	page   string
}

func NewSecurly(client *Client, url, page string) *Securly {
	return &Securly{client: client, url: url, page: page}
}

func (s *Securly) Name() string { return "Securly" }

func (s *Securly) StatusPage() string { return s.page }

func (s *Securly) Fetch(ctx context.Context) (status.Segment, error) {
	body, err := s.client.Get(ctx, s.url)
	if err != nil {
		return status.Segment{}, err
	}

	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return status.Segment{}, fmt.Errorf("parse rss feed: %w", err)
	}

	var titles []string
	worst := status.OK
	link := s.page

	for _, item := range feed.Items {
		title := status.Tidy(item.Title)
		desc := strings.ToLower(item.Description)

		if strings.Contains(desc, "resolved") {
			continue
		}
		if !status.IsRelevant(title, desc) {
			continue
		}

		worst = status.Combine(worst, status.Classify(title+" "+desc))
		if title != "" {
			titles = append(titles, title)
		}
		if l := strings.TrimSpace(item.Link); l != "" {
			link = l
		}
	}

	if len(titles) == 0 {
		return status.Operational(s.Name(), link), nil
	}
	return status.Incident(s.Name(), worst, titles, link), nil
}
