package collector

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/moltpulse/moltpulse/internal/domain"
	"github.com/moltpulse/moltpulse/internal/httpx"
	"github.com/moltpulse/moltpulse/internal/model"
)

// RSS polls the publication feeds declared by the domain. It needs no
// credentials and is always available.
type RSS struct {
	cfg    *model.Config
	client *httpx.Client
}

func NewRSS(cfg *model.Config, client *httpx.Client) *RSS {
	return &RSS{cfg: cfg, client: client}
}

func (r *RSS) Type() model.Category               { return model.CategoryRSS }
func (r *RSS) Name() string                       { return "RSS Feed" }
func (r *RSS) RequiredKeys() []string             { return nil }
func (r *RSS) RequiresAnyKey() bool               { return false }
func (r *RSS) IsAvailable(cfg *model.Config) bool { return true }

func (r *RSS) Collect(ctx context.Context, profile *domain.Profile, fromDate, toDate string, depth Depth) *Result {
	feeds := profile.Feeds()
	if len(feeds) == 0 {
		return Fail("no feeds configured")
	}

	maxItems := ConfigForDepth(depth).MaxItems
	perFeed := maxItems / len(feeds)
	if perFeed < 1 {
		perFeed = 1
	}

	res := &Result{}
	var errs []string
	for _, feed := range feeds {
		items, err := r.fetchFeed(ctx, feed.Feed, feed.Name, fromDate, toDate)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", feed.Name, err))
			continue
		}
		if len(items) > perFeed {
			items = items[:perFeed]
		}
		if len(items) > 0 {
			res.Items = append(res.Items, items...)
			res.Sources = append(res.Sources, model.Source{Name: feed.Name, URL: feed.Feed})
		}
	}

	if len(res.Items) == 0 && len(errs) > 0 {
		res.Err = strings.Join(errs, "; ")
	}
	return res
}

// Feed documents come in three dialects. A single struct with the
// union of fields covers RSS 2.0 and RDF; Atom entries sit at the top
// level.
type feedDocument struct {
	XMLName xml.Name
	Channel *struct {
		Items []feedEntry `xml:"item"`
	} `xml:"channel"`
	Items   []feedEntry `xml:"item"`  // RDF places items beside the channel
	Entries []feedEntry `xml:"entry"` // Atom
}

type feedEntry struct {
	Title       string     `xml:"title"`
	Links       []feedLink `xml:"link"`
	Description string     `xml:"description"`
	Summary     string     `xml:"summary"`
	PubDate     string     `xml:"pubDate"`
	DCDate      string     `xml:"date"`
	Published   string     `xml:"published"`
	Updated     string     `xml:"updated"`
}

// feedLink covers both shapes: RSS puts the URL in the element body,
// Atom in the href attribute.
type feedLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Text string `xml:",chardata"`
}

func (e *feedEntry) url() string {
	for _, l := range e.Links {
		if t := strings.TrimSpace(l.Text); t != "" {
			return t
		}
	}
	for _, l := range e.Links {
		if l.Href != "" && (l.Rel == "" || l.Rel == "alternate") {
			return l.Href
		}
	}
	for _, l := range e.Links {
		if l.Href != "" {
			return l.Href
		}
	}
	return ""
}

func (e *feedEntry) date() string {
	for _, raw := range []string{e.PubDate, e.Published, e.Updated, e.DCDate} {
		if d := isoDateFromTimestamp(raw); d != "" {
			return d
		}
	}
	return ""
}

func (e *feedEntry) snippet() string {
	if e.Description != "" {
		return e.Description
	}
	return e.Summary
}

func (r *RSS) fetchFeed(ctx context.Context, feedURL, sourceName, fromDate, toDate string) ([]model.Item, error) {
	body, err := r.client.GetText(ctx, feedURL, map[string]string{
		"Accept": "application/rss+xml, application/atom+xml, application/xml, text/xml",
	})
	if err != nil {
		return nil, err
	}

	var doc feedDocument
	decoder := xml.NewDecoder(strings.NewReader(body))
	// Feeds are frequently mislabeled latin-1; read them as-is.
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	entries := doc.Entries
	if doc.Channel != nil {
		entries = append(entries, doc.Channel.Items...)
	}
	entries = append(entries, doc.Items...)

	var items []model.Item
	for _, e := range entries {
		title := stripMarkup(e.Title)
		link := e.url()
		if title == "" || link == "" {
			continue
		}

		date := e.date()
		if date != "" && (date < fromDate || date > toDate) {
			continue
		}
		conf := model.ConfidenceHigh
		if date == "" {
			conf = model.ConfidenceLow
		}

		items = append(items, &model.NewsItem{
			ID:         itemID(link),
			Title:      title,
			Summary:    truncate(stripMarkup(e.snippet()), 300),
			URL:        link,
			Publisher:  sourceName,
			Date:       date,
			Confidence: conf,
			Relevance:  0.6,
		})
	}
	return items, nil
}
