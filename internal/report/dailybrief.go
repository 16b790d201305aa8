package report

import (
	"github.com/moltpulse/moltpulse/internal/domain"
	"github.com/moltpulse/moltpulse/internal/model"
)

// DailyBrief is the short morning report: stocks, top news, thought
// leaders, and deal alerts.
type DailyBrief struct {
	profile *domain.Profile
}

func NewDailyBrief(profile *domain.Profile) *DailyBrief {
	return &DailyBrief{profile: profile}
}

func (d *DailyBrief) ReportType() string { return "daily_brief" }
func (d *DailyBrief) Name() string       { return "Daily Brief" }

func (d *DailyBrief) Generate(data map[model.Category][]model.Item, fromDate, toDate string) *model.Report {
	rep := newReport(d.profile, d.ReportType(), "DAILY BRIEF - "+toDate, fromDate, toDate)

	if stocks := topN(data[model.CategoryFinancial], 6); len(stocks) > 0 {
		rep.Sections = append(rep.Sections, model.ReportSection{
			Title:   "STOCKS",
			Items:   stocks,
			Sources: model.CollectSources(stocks),
		})
		rep.AllSources = append(rep.AllSources, model.CollectSources(stocks)...)
	}

	news := append([]model.Item{}, data[model.CategoryNews]...)
	news = append(news, data[model.CategoryRSS]...)
	if top := topN(news, 5); len(top) > 0 {
		rep.Sections = append(rep.Sections, model.ReportSection{
			Title:   "TOP NEWS",
			Items:   top,
			Sources: model.CollectSources(top),
		})
		rep.AllSources = append(rep.AllSources, model.CollectSources(top)...)
	}

	if social := topN(data[model.CategorySocial], 3); len(social) > 0 {
		rep.Sections = append(rep.Sections, model.ReportSection{
			Title:   "THOUGHT LEADERS",
			Items:   social,
			Sources: model.CollectSources(social),
		})
		rep.AllSources = append(rep.AllSources, model.CollectSources(social)...)
	}

	if deals := topN(data[model.CategoryPEActivity], 3); len(deals) > 0 {
		rep.Sections = append(rep.Sections, model.ReportSection{
			Title:   "PE ALERTS",
			Items:   deals,
			Sources: model.CollectSources(deals),
		})
		rep.AllSources = append(rep.AllSources, model.CollectSources(deals)...)
	}

	rep.AllSources = dedupeSources(rep.AllSources)
	return rep
}
