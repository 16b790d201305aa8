// Package model holds the item taxonomy, the report shape, and runtime
// configuration shared by every other package.
package model

// Category tags an item with its kind. The tag drives which scoring
// path and dedup strategy apply.
type Category string

const (
	CategoryFinancial  Category = "financial"
	CategoryNews       Category = "news"
	CategorySocial     Category = "social"
	CategoryRSS        Category = "rss"
	CategoryAwards     Category = "awards"
	CategoryPEActivity Category = "pe_activity"
)

// DateConfidence grades how much an item's date can be trusted. Lower
// confidence draws a scoring penalty.
type DateConfidence string

const (
	ConfidenceHigh DateConfidence = "high"
	ConfidenceMed  DateConfidence = "medium"
	ConfidenceLow  DateConfidence = "low"
)

// Source is a citation attached to a report section.
type Source struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Engagement carries the raw interaction counters a collector saw.
// A nil *Engagement means the source exposes no signal at all, which
// is different from all-zero counters.
type Engagement struct {
	Score       int `json:"score,omitempty"`
	NumComments int `json:"num_comments,omitempty"`
	Likes       int `json:"likes,omitempty"`
	Reposts     int `json:"reposts,omitempty"`
	Replies     int `json:"replies,omitempty"`
	Quotes      int `json:"quotes,omitempty"`
}

// SubScores are the explainable components behind a composite score.
// Engagement and Materiality are mutually exclusive per kind.
type SubScores struct {
	Relevance   int `json:"relevance"`
	Recency     int `json:"recency"`
	Engagement  int `json:"engagement,omitempty"`
	Materiality int `json:"materiality,omitempty"`
}

// Ranking is the mutable scoring state embedded in every item.
type Ranking struct {
	Subs  SubScores `json:"sub_scores"`
	Score int       `json:"score"`
}

// Rank exposes the embedded ranking for in-place scoring.
func (r *Ranking) Rank() *Ranking { return r }

// Item is what the scoring, dedup, and report layers operate on.
// Dates are ISO yyyy-mm-dd strings; "" means unknown.
type Item interface {
	ItemID() string
	Kind() Category
	ItemDate() string
	DateTrust() DateConfidence
	RelevanceEstimate() float64
	CitationURL() string
	SourceLabel() string

	// CompareText is the text the near-duplicate detector fingerprints.
	CompareText() string

	// DisplayText is the one-line rendering used in reports and as the
	// final sort tie-break.
	DisplayText() string

	Rank() *Ranking
}

// NewsItem is an article from a news API or an RSS feed.
type NewsItem struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Summary    string         `json:"summary,omitempty"`
	URL        string         `json:"url"`
	Publisher  string         `json:"publisher"`
	Date       string         `json:"date"`
	Confidence DateConfidence `json:"date_confidence"`
	Relevance  float64        `json:"relevance"`
	Engagement *Engagement    `json:"engagement,omitempty"`
	Ranking
}

func (n *NewsItem) ItemID() string             { return n.ID }
func (n *NewsItem) Kind() Category             { return CategoryNews }
func (n *NewsItem) ItemDate() string           { return n.Date }
func (n *NewsItem) DateTrust() DateConfidence  { return n.Confidence }
func (n *NewsItem) RelevanceEstimate() float64 { return n.Relevance }
func (n *NewsItem) CitationURL() string        { return n.URL }
func (n *NewsItem) SourceLabel() string        { return n.Publisher }
func (n *NewsItem) CompareText() string        { return n.Title }
func (n *NewsItem) DisplayText() string        { return n.Title }

// FinancialItem is one quote or metric observation for an entity.
type FinancialItem struct {
	ID         string         `json:"id"`
	EntityName string         `json:"entity_name"`
	Symbol     string         `json:"symbol"`
	MetricType string         `json:"metric_type"`
	Value      float64        `json:"value"`
	ChangePct  *float64       `json:"change_pct,omitempty"`
	URL        string         `json:"url,omitempty"`
	Provider   string         `json:"provider"`
	Date       string         `json:"date"`
	Confidence DateConfidence `json:"date_confidence"`
	Relevance  float64        `json:"relevance"`
	Ranking
}

func (f *FinancialItem) ItemID() string             { return f.ID }
func (f *FinancialItem) Kind() Category             { return CategoryFinancial }
func (f *FinancialItem) ItemDate() string           { return f.Date }
func (f *FinancialItem) DateTrust() DateConfidence  { return f.Confidence }
func (f *FinancialItem) RelevanceEstimate() float64 { return f.Relevance }
func (f *FinancialItem) CitationURL() string        { return f.URL }
func (f *FinancialItem) SourceLabel() string        { return f.Provider }
func (f *FinancialItem) CompareText() string        { return f.EntityName + " " + f.MetricType }
func (f *FinancialItem) DisplayText() string        { return f.EntityName + " " + f.MetricType }

// SocialItem is a post from a social platform.
type SocialItem struct {
	ID         string         `json:"id"`
	Text       string         `json:"text"`
	Author     string         `json:"author"`
	Platform   string         `json:"platform"`
	URL        string         `json:"url"`
	Date       string         `json:"date"`
	Confidence DateConfidence `json:"date_confidence"`
	Relevance  float64        `json:"relevance"`
	Engagement *Engagement    `json:"engagement,omitempty"`
	Ranking
}

func (s *SocialItem) ItemID() string             { return s.ID }
func (s *SocialItem) Kind() Category             { return CategorySocial }
func (s *SocialItem) ItemDate() string           { return s.Date }
func (s *SocialItem) DateTrust() DateConfidence  { return s.Confidence }
func (s *SocialItem) RelevanceEstimate() float64 { return s.Relevance }
func (s *SocialItem) CitationURL() string        { return s.URL }
func (s *SocialItem) SourceLabel() string        { return "@" + s.Author }
func (s *SocialItem) CompareText() string        { return s.Text }
func (s *SocialItem) DisplayText() string        { return s.Text }

// AwardItem is one win at an industry award show. Award results come
// from published winner lists, so the date is always trusted.
type AwardItem struct {
	ID           string  `json:"id"`
	AwardShow    string  `json:"award_show"`
	Medal        string  `json:"medal"`
	CategoryName string  `json:"category_name,omitempty"`
	WinnerAgency string  `json:"winner_agency"`
	CampaignName string  `json:"campaign_name"`
	ClientBrand  string  `json:"client_brand,omitempty"`
	URL          string  `json:"url,omitempty"`
	Date         string  `json:"date"`
	Relevance    float64 `json:"relevance"`
	Ranking
}

func (a *AwardItem) ItemID() string             { return a.ID }
func (a *AwardItem) Kind() Category             { return CategoryAwards }
func (a *AwardItem) ItemDate() string           { return a.Date }
func (a *AwardItem) DateTrust() DateConfidence  { return ConfidenceHigh }
func (a *AwardItem) RelevanceEstimate() float64 { return a.Relevance }
func (a *AwardItem) CitationURL() string        { return a.URL }
func (a *AwardItem) SourceLabel() string        { return a.AwardShow }
func (a *AwardItem) CompareText() string        { return a.WinnerAgency + " " + a.CampaignName }
func (a *AwardItem) DisplayText() string        { return a.WinnerAgency + " " + a.CampaignName }

// PEActivityItem is a private-equity deal touching a tracked entity.
type PEActivityItem struct {
	ID           string         `json:"id"`
	TargetName   string         `json:"target_name"`
	AcquirerName string         `json:"acquirer_name,omitempty"`
	DealType     string         `json:"deal_type,omitempty"`
	DealValue    *float64       `json:"deal_value,omitempty"`
	URL          string         `json:"url,omitempty"`
	Provider     string         `json:"provider"`
	Date         string         `json:"date"`
	Confidence   DateConfidence `json:"date_confidence"`
	Relevance    float64        `json:"relevance"`
	Ranking
}

func (p *PEActivityItem) ItemID() string             { return p.ID }
func (p *PEActivityItem) Kind() Category             { return CategoryPEActivity }
func (p *PEActivityItem) ItemDate() string           { return p.Date }
func (p *PEActivityItem) DateTrust() DateConfidence  { return p.Confidence }
func (p *PEActivityItem) RelevanceEstimate() float64 { return p.Relevance }
func (p *PEActivityItem) CitationURL() string        { return p.URL }
func (p *PEActivityItem) SourceLabel() string        { return p.Provider }
func (p *PEActivityItem) CompareText() string        { return p.TargetName + " " + p.AcquirerName }
func (p *PEActivityItem) DisplayText() string        { return p.TargetName + " " + p.AcquirerName }
