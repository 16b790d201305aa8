package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/moltpulse/moltpulse/internal/domain"
	"github.com/moltpulse/moltpulse/internal/httpx"
	"github.com/moltpulse/moltpulse/internal/model"
)

const (
	xaiBaseURL = "https://api.x.ai/v1/responses"

	// The x_search tool needs a grok model.
	xaiModel = "grok-4-1-fast"
)

// XSearch collects posts from tracked X handles via the xAI search
// tool.
type XSearch struct {
	cfg    *model.Config
	client *httpx.Client
}

func NewXSearch(cfg *model.Config, client *httpx.Client) *XSearch {
	return &XSearch{cfg: cfg, client: client}
}

func (x *XSearch) Type() model.Category   { return model.CategorySocial }
func (x *XSearch) Name() string           { return "xAI X Search" }
func (x *XSearch) RequiredKeys() []string { return []string{"XAI_API_KEY"} }
func (x *XSearch) RequiresAnyKey() bool   { return false }

func (x *XSearch) IsAvailable(cfg *model.Config) bool {
	return KeysSatisfied(cfg, x.RequiredKeys(), false)
}

// xaiPost is the per-post shape the search prompt asks the model to
// return.
type xaiPost struct {
	ID           string  `json:"id"`
	Text         string  `json:"text"`
	URL          string  `json:"url"`
	AuthorHandle string  `json:"author_handle"`
	Date         string  `json:"date"`
	Likes        int     `json:"likes"`
	Reposts      int     `json:"reposts"`
	Replies      int     `json:"replies"`
	Quotes       int     `json:"quotes"`
	Relevance    float64 `json:"relevance"`
}

func (x *XSearch) Collect(ctx context.Context, profile *domain.Profile, fromDate, toDate string, depth Depth) *Result {
	handles := profile.Handles()
	if len(handles) == 0 {
		return Fail("no thought leader handles in profile")
	}

	maxItems := ConfigForDepth(depth).MaxItems

	namesByHandle := make(map[string]string, len(profile.ThoughtLeaders))
	for _, l := range profile.ThoughtLeaders {
		h := strings.ToLower(strings.TrimPrefix(l.Handle, "@"))
		if h != "" {
			namesByHandle[h] = l.Name
		}
	}

	posts, err := x.search(ctx, buildSearchPrompt(handles, fromDate, toDate, maxItems))
	if err != nil {
		return Fail("xai: %v", err)
	}

	res := &Result{}
	for _, p := range posts {
		if p.Text == "" {
			continue
		}

		handle := strings.ToLower(strings.TrimPrefix(p.AuthorHandle, "@"))
		author := namesByHandle[handle]
		if author == "" {
			author = handle
		}

		id := p.ID
		if id == "" {
			id = itemID(p.Text)
		}
		rel := p.Relevance
		if rel == 0 {
			rel = 0.7
		}

		var eng *model.Engagement
		if p.Likes > 0 || p.Reposts > 0 {
			eng = &model.Engagement{
				Likes:   p.Likes,
				Reposts: p.Reposts,
				Replies: p.Replies,
				Quotes:  p.Quotes,
			}
		}

		res.Items = append(res.Items, &model.SocialItem{
			ID:         id,
			Text:       p.Text,
			Author:     author,
			Platform:   "x",
			URL:        p.URL,
			Date:       isoDateFromTimestamp(p.Date),
			Confidence: model.ConfidenceMed,
			Relevance:  rel,
			Engagement: eng,
		})
		if p.URL != "" {
			res.Sources = append(res.Sources, model.Source{
				Name: "X - @" + handle,
				URL:  p.URL,
			})
		}
	}
	return res
}

func buildSearchPrompt(handles []string, fromDate, toDate string, maxItems int) string {
	prefixed := make([]string, len(handles))
	for i, h := range handles {
		prefixed[i] = "@" + strings.TrimPrefix(h, "@")
	}

	return fmt.Sprintf(`Search X/Twitter for recent posts from these accounts: %s

Focus on posts from %s to %s. Return up to %d posts, prioritizing
industry trends and insights, then high engagement, then recency.

Return the results as a JSON array of objects with these fields:
id, text, url, author_handle, date (YYYY-MM-DD), likes, reposts,
replies, quotes, relevance (0.0-1.0).`,
		strings.Join(prefixed, ", "), fromDate, toDate, maxItems)
}

type xaiResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Content string `json:"content"`
	} `json:"output"`
}

func (x *XSearch) search(ctx context.Context, prompt string) ([]xaiPost, error) {
	payload := map[string]any{
		"model": xaiModel,
		"tools": []map[string]string{{"type": "x_search"}},
		"input": []map[string]string{{"role": "user", "content": prompt}},
	}
	headers := map[string]string{
		"Authorization": "Bearer " + x.cfg.Key("XAI_API_KEY"),
	}

	var resp xaiResponse
	if err := x.client.PostJSON(ctx, xaiBaseURL, headers, payload, &resp); err != nil {
		return nil, err
	}

	var posts []xaiPost
	for _, out := range resp.Output {
		switch out.Type {
		case "tool_result":
			posts = append(posts, parsePostsJSON(out.Content)...)
		case "text":
			// The model may wrap the array in prose.
			start := strings.Index(out.Content, "[")
			end := strings.LastIndex(out.Content, "]")
			if start >= 0 && end > start {
				posts = append(posts, parsePostsJSON(out.Content[start:end+1])...)
			}
		}
	}
	return posts, nil
}

func parsePostsJSON(content string) []xaiPost {
	var posts []xaiPost
	if err := json.Unmarshal([]byte(content), &posts); err == nil {
		return posts
	}

	var wrapped struct {
		Posts []xaiPost `json:"posts"`
	}
	if err := json.Unmarshal([]byte(content), &wrapped); err == nil {
		return wrapped.Posts
	}
	return nil
}
