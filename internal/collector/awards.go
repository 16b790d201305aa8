package collector

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/moltpulse/moltpulse/internal/domain"
	"github.com/moltpulse/moltpulse/internal/httpx"
	"github.com/moltpulse/moltpulse/internal/model"
)

// awardShow is one scrapable award show: where its winner lists live
// and which medal words appear in them.
type awardShow struct {
	id         string
	name       string
	winnersURL string
	medals     []string
}

var awardShows = []awardShow{
	{
		id:         "cannes_lions",
		name:       "Cannes Lions",
		winnersURL: "https://www.canneslions.com/news",
		medals:     []string{"Grand Prix", "Gold", "Silver", "Bronze"},
	},
	{
		id:         "effie",
		name:       "Effie Awards",
		winnersURL: "https://www.effie.org/case_database",
		medals:     []string{"Grand", "Gold", "Silver", "Bronze"},
	},
	{
		id:         "clio",
		name:       "Clio Awards",
		winnersURL: "https://clios.com/awards/winners",
		medals:     []string{"Grand", "Gold", "Silver", "Bronze"},
	},
}

// Awards scrapes award-show winner pages for wins by the tracked
// agencies. It needs no API key but is gated on scraping being
// enabled.
type Awards struct {
	cfg     *model.Config
	scraper *Scraper
}

func NewAwards(cfg *model.Config, client *httpx.Client) *Awards {
	return &Awards{cfg: cfg, scraper: NewScraper(cfg, client)}
}

func (a *Awards) Type() model.Category   { return model.CategoryAwards }
func (a *Awards) Name() string           { return "Industry Awards" }
func (a *Awards) RequiredKeys() []string { return nil }
func (a *Awards) RequiresAnyKey() bool   { return false }

func (a *Awards) IsAvailable(cfg *model.Config) bool {
	return cfg.Scraping.Enabled
}

// focusAgencies returns every focused entity name across the domain,
// in deterministic order.
func focusAgencies(profile *domain.Profile) []string {
	types := make([]string, 0, len(profile.Domain.EntityTypes))
	for t := range profile.Domain.EntityTypes {
		types = append(types, t)
	}
	sort.Strings(types)

	var agencies []string
	seen := make(map[string]bool)
	for _, t := range types {
		for _, e := range profile.FocusedEntities(t) {
			if e.Name != "" && !seen[e.Name] {
				seen[e.Name] = true
				agencies = append(agencies, e.Name)
			}
		}
	}
	return agencies
}

func (a *Awards) Collect(ctx context.Context, profile *domain.Profile, fromDate, toDate string, depth Depth) *Result {
	if !a.scraper.Enabled() {
		return Fail("scraping disabled")
	}

	agencies := focusAgencies(profile)
	if len(agencies) == 0 {
		return Fail("no agencies to track in profile")
	}

	perShow := ConfigForDepth(depth).MaxItems / len(awardShows)
	if perShow < 1 {
		perShow = 1
	}

	// Award announcements rarely carry a full date on listing pages;
	// approximate with the end of the requested range.
	approxDate := toDate

	res := &Result{}
	var errs []string
	for _, show := range awardShows {
		items, err := a.collectShow(ctx, show, agencies, approxDate)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", show.name, err))
			continue
		}
		if len(items) > perShow {
			items = items[:perShow]
		}
		if len(items) > 0 {
			res.Items = append(res.Items, items...)
			res.Sources = append(res.Sources, model.Source{Name: show.name, URL: show.winnersURL})
		}
	}

	if len(res.Items) == 0 && len(errs) > 0 {
		res.Err = strings.Join(errs, "; ")
	}
	return res
}

func (a *Awards) collectShow(ctx context.Context, show awardShow, agencies []string, approxDate string) ([]model.Item, error) {
	rows, err := a.scraper.FetchRows(ctx, show.winnersURL)
	if err != nil {
		return nil, err
	}

	var items []model.Item
	for _, row := range rows {
		lower := strings.ToLower(row.Text)

		agency := ""
		for _, name := range agencies {
			if strings.Contains(lower, strings.ToLower(name)) {
				agency = name
				break
			}
		}
		if agency == "" {
			continue
		}

		medal := ""
		for _, m := range show.medals {
			if strings.Contains(lower, strings.ToLower(m)) {
				medal = strings.ToLower(strings.ReplaceAll(m, " ", "_"))
				break
			}
		}
		if medal == "" {
			continue
		}

		campaign := truncate(row.Text, 120)
		cite := resolveLink(show.winnersURL, row.URL)

		items = append(items, &model.AwardItem{
			ID:           itemID(show.id + ":" + agency + ":" + campaign + ":" + medal),
			AwardShow:    show.id,
			Medal:        medal,
			WinnerAgency: agency,
			CampaignName: campaign,
			URL:          cite,
			Date:         approxDate,
			Relevance:    0.8,
		})
	}
	return items, nil
}

// resolveLink absolutizes a scraped href against its page.
func resolveLink(pageURL, href string) string {
	if href == "" {
		return pageURL
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return pageURL
	}
	return base.ResolveReference(ref).String()
}
