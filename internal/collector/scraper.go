package collector

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/moltpulse/moltpulse/internal/httpx"
	"github.com/moltpulse/moltpulse/internal/model"
)

// Scraper fetches pages for sources without an API. It honors
// robots.txt and extracts the row-like fragments of a page so callers
// can pattern-match them.
type Scraper struct {
	cfg    *model.Config
	client *httpx.Client
	robots *httpx.RobotsChecker
}

func NewScraper(cfg *model.Config, client *httpx.Client) *Scraper {
	return &Scraper{
		cfg:    cfg,
		client: client,
		robots: httpx.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout),
	}
}

// Enabled reports whether scraping is allowed by configuration.
func (s *Scraper) Enabled() bool { return s.cfg.Scraping.Enabled }

// scrapedRow is one candidate content row: the visible text of a
// list-like element plus the first link inside it.
type scrapedRow struct {
	Text string
	URL  string
}

// FetchRows downloads a page and returns its row-like fragments.
// Disallowed URLs return an error rather than silently skipping, so
// the caller can report why a source yielded nothing.
func (s *Scraper) FetchRows(ctx context.Context, pageURL string) ([]scrapedRow, error) {
	if !s.robots.Allowed(ctx, pageURL) {
		return nil, fmt.Errorf("disallowed by robots.txt: %s", pageURL)
	}

	body, err := s.client.GetText(ctx, pageURL, nil)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return extractRows(doc), nil
}

// Row containers, ordered from most to least specific.
var rowTags = map[string]bool{
	"li": true, "tr": true, "article": true,
}

func extractRows(doc *html.Node) []scrapedRow {
	var rows []scrapedRow

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "nav", "footer":
				return
			}
			if rowTags[n.Data] {
				text := nodeText(n)
				if len(text) >= 10 && len(text) <= 500 {
					rows = append(rows, scrapedRow{Text: text, URL: firstHref(n)})
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return rows
}

// nodeText collects the visible text under a node.
func nodeText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return strings.TrimSpace(buf.String())
}

// firstHref returns the first anchor href under a node.
func firstHref(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "a" {
		for _, attr := range n.Attr {
			if attr.Key == "href" {
				return attr.Val
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if href := firstHref(c); href != "" {
			return href
		}
	}
	return ""
}
