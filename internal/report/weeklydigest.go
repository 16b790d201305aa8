package report

import (
	"fmt"
	"strings"

	"github.com/moltpulse/moltpulse/internal/domain"
	"github.com/moltpulse/moltpulse/internal/model"
)

// WeeklyDigest is the comprehensive weekly report with a market
// overview and a simple keyword trend readout.
type WeeklyDigest struct {
	profile *domain.Profile
}

func NewWeeklyDigest(profile *domain.Profile) *WeeklyDigest {
	return &WeeklyDigest{profile: profile}
}

func (w *WeeklyDigest) ReportType() string { return "weekly_digest" }
func (w *WeeklyDigest) Name() string       { return "Weekly Digest" }

func (w *WeeklyDigest) Generate(data map[model.Category][]model.Item, fromDate, toDate string) *model.Report {
	rep := newReport(w.profile, w.ReportType(), "WEEKLY DIGEST - Week of "+fromDate, fromDate, toDate)

	if stocks := data[model.CategoryFinancial]; len(stocks) > 0 {
		rep.Sections = append(rep.Sections, model.ReportSection{
			Title:   "MARKET OVERVIEW",
			Items:   stocks,
			Sources: model.CollectSources(stocks),
			Insight: marketInsight(stocks),
		})
		rep.AllSources = append(rep.AllSources, model.CollectSources(stocks)...)
	}

	news := append([]model.Item{}, data[model.CategoryNews]...)
	news = append(news, data[model.CategoryRSS]...)
	if top := topN(news, 15); len(top) > 0 {
		rep.Sections = append(rep.Sections, model.ReportSection{
			Title:   "NEWS ROUNDUP",
			Items:   top,
			Sources: model.CollectSources(top),
		})
		rep.AllSources = append(rep.AllSources, model.CollectSources(top)...)
	}

	if awards := data[model.CategoryAwards]; len(awards) > 0 {
		rep.Sections = append(rep.Sections, model.ReportSection{
			Title:   "AGENCY MOMENTUM",
			Items:   awards,
			Sources: model.CollectSources(awards),
		})
		rep.AllSources = append(rep.AllSources, model.CollectSources(awards)...)
	}

	social := topN(data[model.CategorySocial], 10)
	if len(social) > 0 {
		rep.Sections = append(rep.Sections, model.ReportSection{
			Title:   "THOUGHT LEADERSHIP",
			Items:   social,
			Sources: model.CollectSources(social),
		})
		rep.AllSources = append(rep.AllSources, model.CollectSources(social)...)
	}

	if deals := data[model.CategoryPEActivity]; len(deals) > 0 {
		rep.Sections = append(rep.Sections, model.ReportSection{
			Title:   "M&A ACTIVITY",
			Items:   deals,
			Sources: model.CollectSources(deals),
		})
		rep.AllSources = append(rep.AllSources, model.CollectSources(deals)...)
	}

	if insight := trendInsight(news, social); insight != "" {
		rep.Sections = append(rep.Sections, model.ReportSection{
			Title:   "TREND SPOTTING",
			Insight: insight,
		})
	}

	rep.AllSources = dedupeSources(rep.AllSources)
	return rep
}

// marketInsight summarizes the week's direction across tracked stocks.
func marketInsight(items []model.Item) string {
	var total float64
	counted, gainers, losers := 0, 0, 0
	for _, it := range items {
		f, ok := it.(*model.FinancialItem)
		if !ok || f.ChangePct == nil {
			continue
		}
		counted++
		total += *f.ChangePct
		if *f.ChangePct > 0 {
			gainers++
		} else if *f.ChangePct < 0 {
			losers++
		}
	}
	if counted == 0 {
		return ""
	}
	return fmt.Sprintf("Average change %.1f%% across %d tracked stocks (%d up, %d down).",
		total/float64(counted), counted, gainers, losers)
}

// Trend terms worth flagging when they recur across the week.
var trendTerms = []string{
	"ai", "artificial intelligence", "programmatic", "retail media",
	"streaming", "privacy", "first-party data", "creator", "consolidation",
}

// trendInsight counts recurring industry terms across news and social
// text and names the ones that kept coming up.
func trendInsight(news, social []model.Item) string {
	counts := make(map[string]int)
	scan := func(text string) {
		lower := strings.ToLower(text)
		for _, term := range trendTerms {
			if strings.Contains(lower, term) {
				counts[term]++
			}
		}
	}
	for _, it := range news {
		scan(it.DisplayText())
	}
	for _, it := range social {
		scan(it.CompareText())
	}

	var recurring []string
	for _, term := range trendTerms {
		if counts[term] >= 3 {
			recurring = append(recurring, fmt.Sprintf("%s (%d mentions)", term, counts[term]))
		}
	}
	if len(recurring) == 0 {
		return ""
	}
	return "Recurring themes this week: " + strings.Join(recurring, ", ") + "."
}
