package collector

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/moltpulse/moltpulse/internal/domain"
	"github.com/moltpulse/moltpulse/internal/httpx"
	"github.com/moltpulse/moltpulse/internal/model"
)

const (
	newsDataBaseURL = "https://newsdata.io/api/1/news"
	newsAPIBaseURL  = "https://newsapi.org/v2/everything"
)

// NewsAPI collects news articles, preferring NewsData.io and falling
// back to NewsAPI.org. Either key is enough to run.
type NewsAPI struct {
	cfg    *model.Config
	client *httpx.Client
}

func NewNewsAPI(cfg *model.Config, client *httpx.Client) *NewsAPI {
	return &NewsAPI{cfg: cfg, client: client}
}

func (n *NewsAPI) Type() model.Category { return model.CategoryNews }
func (n *NewsAPI) Name() string         { return "News" }

func (n *NewsAPI) RequiredKeys() []string {
	return []string{"NEWSDATA_API_KEY", "NEWSAPI_API_KEY"}
}
func (n *NewsAPI) RequiresAnyKey() bool { return true }

func (n *NewsAPI) IsAvailable(cfg *model.Config) bool {
	return KeysSatisfied(cfg, n.RequiredKeys(), true)
}

func (n *NewsAPI) Collect(ctx context.Context, profile *domain.Profile, fromDate, toDate string, depth Depth) *Result {
	keywords := profile.SearchKeywords()
	if len(keywords) == 0 {
		return Fail("no keywords to search in profile")
	}

	maxItems := ConfigForDepth(depth).MaxItems

	// Limit query complexity to the top keywords.
	top := keywords
	if len(top) > 5 {
		top = top[:5]
	}
	query := strings.Join(top, " OR ")

	if n.cfg.Key("NEWSDATA_API_KEY") != "" {
		res, err := n.collectNewsData(ctx, query, keywords, fromDate, toDate, maxItems)
		if err == nil {
			return res
		}
		// Primary failed: fall through to NewsAPI when it is configured.
		if n.cfg.Key("NEWSAPI_API_KEY") == "" {
			return Fail("newsdata.io: %v", err)
		}
	}

	res, err := n.collectNewsAPI(ctx, query, fromDate, maxItems)
	if err != nil {
		return Fail("newsapi.org: %v", err)
	}
	return res
}

type newsDataResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Title       string `json:"title"`
		Link        string `json:"link"`
		Description string `json:"description"`
		SourceID    string `json:"source_id"`
		SourceName  string `json:"source_name"`
		PubDate     string `json:"pubDate"`
	} `json:"results"`
}

func (n *NewsAPI) collectNewsData(ctx context.Context, query string, keywords []string, fromDate, toDate string, maxItems int) (*Result, error) {
	u := fmt.Sprintf("%s?apikey=%s&q=%s&language=en",
		newsDataBaseURL, n.cfg.Key("NEWSDATA_API_KEY"), url.QueryEscape(query))

	var resp newsDataResponse
	if err := n.client.GetJSON(ctx, u, nil, &resp); err != nil {
		return nil, err
	}

	res := &Result{}
	for _, a := range resp.Results {
		if len(res.Items) >= maxItems {
			break
		}
		if a.Title == "" || a.Link == "" {
			continue
		}

		date := isoDateFromTimestamp(a.PubDate)
		conf := model.ConfidenceHigh
		if date == "" {
			conf = model.ConfidenceLow
		}

		publisher := a.SourceID
		if publisher == "" {
			publisher = a.SourceName
		}
		if publisher == "" {
			publisher = "Unknown"
		}

		res.Items = append(res.Items, &model.NewsItem{
			ID:         itemID(a.Link),
			Title:      a.Title,
			Summary:    truncate(a.Description, 300),
			URL:        a.Link,
			Publisher:  publisher,
			Date:       date,
			Confidence: conf,
			Relevance:  keywordRelevance(a.Title+" "+a.Description, keywords),
		})
		res.Sources = append(res.Sources, model.Source{Name: publisher, URL: a.Link})
	}
	return res, nil
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		Description string `json:"description"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

func (n *NewsAPI) collectNewsAPI(ctx context.Context, query, fromDate string, maxItems int) (*Result, error) {
	u := fmt.Sprintf("%s?q=%s&from=%s&sortBy=relevancy&language=en&pageSize=%d&apiKey=%s",
		newsAPIBaseURL, url.QueryEscape(query), fromDate, maxItems, n.cfg.Key("NEWSAPI_API_KEY"))

	var resp newsAPIResponse
	if err := n.client.GetJSON(ctx, u, nil, &resp); err != nil {
		return nil, err
	}

	res := &Result{}
	for _, a := range resp.Articles {
		if a.Title == "" || a.URL == "" {
			continue
		}

		name := a.Source.Name
		if name == "" {
			name = "Unknown"
		}

		res.Items = append(res.Items, &model.NewsItem{
			ID:         itemID(a.URL),
			Title:      a.Title,
			Summary:    truncate(a.Description, 300),
			URL:        a.URL,
			Publisher:  name,
			Date:       isoDateFromTimestamp(a.PublishedAt),
			Confidence: model.ConfidenceHigh,
			Relevance:  0.7,
		})
		res.Sources = append(res.Sources, model.Source{Name: name, URL: a.URL})
	}
	return res, nil
}
