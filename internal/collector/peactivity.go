package collector

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/moltpulse/moltpulse/internal/domain"
	"github.com/moltpulse/moltpulse/internal/httpx"
	"github.com/moltpulse/moltpulse/internal/model"
)

const intellizenceBaseURL = "https://api.intellizence.com/v1/deals"

// Deal-language markers for classifying news as M&A activity.
var maKeywords = []string{
	"acquisition", "merger", "acquired", "buys", "acquires",
	"investment", "stake", "deal", "private equity",
}

var dealValueRe = regexp.MustCompile(`(?i)\$(\d+(?:\.\d+)?)\s*(billion|million|B|M)\b`)

// PEActivity collects private-equity and M&A deals, from the
// Intellizence deal API when a key is present and from news search
// otherwise. Any one of its keys makes it available.
type PEActivity struct {
	cfg    *model.Config
	client *httpx.Client
}

func NewPEActivity(cfg *model.Config, client *httpx.Client) *PEActivity {
	return &PEActivity{cfg: cfg, client: client}
}

func (p *PEActivity) Type() model.Category { return model.CategoryPEActivity }
func (p *PEActivity) Name() string         { return "PE & M&A Activity" }

func (p *PEActivity) RequiredKeys() []string {
	return []string{"INTELLIZENCE_API_KEY", "NEWSDATA_API_KEY", "NEWSAPI_API_KEY"}
}
func (p *PEActivity) RequiresAnyKey() bool { return true }

func (p *PEActivity) IsAvailable(cfg *model.Config) bool {
	return KeysSatisfied(cfg, p.RequiredKeys(), true)
}

func (p *PEActivity) Collect(ctx context.Context, profile *domain.Profile, fromDate, toDate string, depth Depth) *Result {
	maxItems := ConfigForDepth(depth).MaxItems

	res := &Result{}
	var errs []string

	if p.cfg.Key("INTELLIZENCE_API_KEY") != "" {
		items, sources, err := p.collectIntellizence(ctx, fromDate, toDate, maxItems)
		if err != nil {
			errs = append(errs, fmt.Sprintf("intellizence: %v", err))
		} else {
			res.Items = append(res.Items, items...)
			res.Sources = append(res.Sources, sources...)
		}
	}

	if len(res.Items) < maxItems {
		items, sources, err := p.collectFromNews(ctx, profile, fromDate, maxItems-len(res.Items))
		if err != nil {
			errs = append(errs, fmt.Sprintf("news search: %v", err))
		} else {
			res.Items = append(res.Items, items...)
			res.Sources = append(res.Sources, sources...)
		}
	}

	if len(res.Items) == 0 && len(errs) > 0 {
		res.Err = strings.Join(errs, "; ")
	}
	return res
}

type intellizenceResponse struct {
	Deals []struct {
		ID         string   `json:"id"`
		TargetName string   `json:"target_name"`
		Acquirer   string   `json:"acquirer_name"`
		DealType   string   `json:"deal_type"`
		DealValue  *float64 `json:"deal_value"`
		URL        string   `json:"url"`
		Date       string   `json:"announced_date"`
	} `json:"deals"`
}

func (p *PEActivity) collectIntellizence(ctx context.Context, fromDate, toDate string, maxItems int) ([]model.Item, []model.Source, error) {
	u := fmt.Sprintf("%s?industry=advertising&from=%s&to=%s", intellizenceBaseURL, fromDate, toDate)
	headers := map[string]string{"X-API-Key": p.cfg.Key("INTELLIZENCE_API_KEY")}

	var resp intellizenceResponse
	if err := p.client.GetJSON(ctx, u, headers, &resp); err != nil {
		return nil, nil, err
	}

	var items []model.Item
	var sources []model.Source
	for _, d := range resp.Deals {
		if len(items) >= maxItems {
			break
		}
		if d.TargetName == "" {
			continue
		}

		id := d.ID
		if id == "" {
			id = itemID(d.TargetName + ":" + d.Date)
		}

		items = append(items, &model.PEActivityItem{
			ID:           id,
			TargetName:   d.TargetName,
			AcquirerName: d.Acquirer,
			DealType:     d.DealType,
			DealValue:    d.DealValue,
			URL:          d.URL,
			Provider:     "Intellizence",
			Date:         isoDateFromTimestamp(d.Date),
			Confidence:   model.ConfidenceHigh,
			Relevance:    0.8,
		})
		if d.URL != "" {
			sources = append(sources, model.Source{Name: "Intellizence", URL: d.URL})
		}
	}
	return items, sources, nil
}

func (p *PEActivity) collectFromNews(ctx context.Context, profile *domain.Profile, fromDate string, maxItems int) ([]model.Item, []model.Source, error) {
	entityTerms := focusAgencies(profile)
	if len(entityTerms) > 5 {
		entityTerms = entityTerms[:5]
	}
	terms := append(entityTerms, "advertising agency", "marketing agency")
	query := fmt.Sprintf("(%s) AND (%s)",
		strings.Join(maKeywords, " OR "), strings.Join(terms, " OR "))

	articles, err := p.searchNews(ctx, query, fromDate, maxItems)
	if err != nil {
		return nil, nil, err
	}

	var items []model.Item
	var sources []model.Source
	for _, a := range articles {
		item := parseDealArticle(a)
		if item == nil {
			continue
		}
		items = append(items, item)
		if a.link != "" {
			sources = append(sources, model.Source{Name: a.sourceName, URL: a.link})
		}
	}
	return items, sources, nil
}

type newsArticle struct {
	title       string
	link        string
	description string
	sourceName  string
	pubDate     string
}

func (p *PEActivity) searchNews(ctx context.Context, query, fromDate string, maxItems int) ([]newsArticle, error) {
	if key := p.cfg.Key("NEWSDATA_API_KEY"); key != "" {
		u := fmt.Sprintf("%s?apikey=%s&q=%s&language=en", newsDataBaseURL, key, url.QueryEscape(query))
		var resp newsDataResponse
		if err := p.client.GetJSON(ctx, u, nil, &resp); err != nil {
			return nil, err
		}

		var articles []newsArticle
		for _, r := range resp.Results {
			if len(articles) >= maxItems {
				break
			}
			name := r.SourceID
			if name == "" {
				name = "News"
			}
			articles = append(articles, newsArticle{
				title:       r.Title,
				link:        r.Link,
				description: r.Description,
				sourceName:  name,
				pubDate:     r.PubDate,
			})
		}
		return articles, nil
	}

	if key := p.cfg.Key("NEWSAPI_API_KEY"); key != "" {
		u := fmt.Sprintf("%s?q=%s&from=%s&sortBy=relevancy&language=en&pageSize=%d&apiKey=%s",
			newsAPIBaseURL, url.QueryEscape(query), fromDate, maxItems, key)
		var resp newsAPIResponse
		if err := p.client.GetJSON(ctx, u, nil, &resp); err != nil {
			return nil, err
		}

		var articles []newsArticle
		for _, a := range resp.Articles {
			articles = append(articles, newsArticle{
				title:       a.Title,
				link:        a.URL,
				description: a.Description,
				sourceName:  a.Source.Name,
				pubDate:     a.PublishedAt,
			})
		}
		return articles, nil
	}

	return nil, fmt.Errorf("no news API key configured")
}

// parseDealArticle turns a news article into a deal item, or nil when
// the article is not actually about M&A.
func parseDealArticle(a newsArticle) *model.PEActivityItem {
	content := strings.ToLower(a.title + " " + a.description)

	isDeal := false
	for _, kw := range maKeywords {
		if strings.Contains(content, kw) {
			isDeal = true
			break
		}
	}
	if !isDeal {
		return nil
	}

	dealType := "unknown"
	switch {
	case strings.Contains(content, "acquir") || strings.Contains(content, "buys") || strings.Contains(content, "bought"):
		dealType = "acquisition"
	case strings.Contains(content, "merger"):
		dealType = "merger"
	case strings.Contains(content, "invest") || strings.Contains(content, "stake") || strings.Contains(content, "funding"):
		dealType = "investment"
	}

	var dealValue *float64
	if m := dealValueRe.FindStringSubmatch(a.title + " " + a.description); m != nil {
		if num, err := strconv.ParseFloat(m[1], 64); err == nil {
			switch strings.ToLower(m[2]) {
			case "billion", "b":
				num *= 1_000_000_000
			case "million", "m":
				num *= 1_000_000
			}
			dealValue = &num
		}
	}

	date := isoDateFromTimestamp(a.pubDate)
	conf := model.ConfidenceHigh
	if date == "" {
		conf = model.ConfidenceLow
	}

	key := a.link
	if key == "" {
		key = a.title
	}

	return &model.PEActivityItem{
		ID:           itemID(key),
		TargetName:   extractCompanyName(a.title, false),
		AcquirerName: extractCompanyName(a.title, true),
		DealType:     dealType,
		DealValue:    dealValue,
		URL:          a.link,
		Provider:     a.sourceName,
		Date:         date,
		Confidence:   conf,
		Relevance:    0.7,
	}
}

// extractCompanyName pulls the party before or after the deal verb in
// a headline. Headline grammar is loose, so this is best-effort.
func extractCompanyName(title string, acquirer bool) string {
	words := strings.Fields(title)
	for i, w := range words {
		switch strings.ToLower(w) {
		case "acquires", "buys", "acquire":
			if acquirer {
				return strings.Join(words[:i], " ")
			}
			if i < len(words)-1 {
				return strings.Join(words[i+1:], " ")
			}
			return ""
		}
	}
	if !acquirer {
		return truncate(title, 80)
	}
	return ""
}
