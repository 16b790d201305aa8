// Package report turns processed items into structured reports.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/moltpulse/moltpulse/internal/domain"
	"github.com/moltpulse/moltpulse/internal/model"
)

// Generator builds one report type from the per-category item map.
// Every generator must cite sources for the items it includes.
type Generator interface {
	ReportType() string
	Name() string
	Generate(data map[model.Category][]model.Item, fromDate, toDate string) *model.Report
}

// Factory builds a generator bound to a profile.
type Factory func(profile *domain.Profile) Generator

// Registry maps report types to factories. Duplicate registration is
// a configuration error.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

func (r *Registry) Register(reportType string, f Factory) error {
	if _, exists := r.factories[reportType]; exists {
		return fmt.Errorf("report type %q already registered", reportType)
	}
	r.factories[reportType] = f
	return nil
}

func (r *Registry) Resolve(reportType string) (Factory, bool) {
	f, ok := r.factories[reportType]
	return f, ok
}

func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// DefaultRegistry returns the built-in report types.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register("daily_brief", func(p *domain.Profile) Generator { return NewDailyBrief(p) })
	_ = r.Register("weekly_digest", func(p *domain.Profile) Generator { return NewWeeklyDigest(p) })
	return r
}

// newReport stamps the shared report metadata.
func newReport(profile *domain.Profile, reportType, title, fromDate, toDate string) *model.Report {
	return model.NewReport(title, profile.Domain.Name, profile.Name, reportType, fromDate, toDate)
}

// dedupeSources keeps the first source per URL.
func dedupeSources(sources []model.Source) []model.Source {
	seen := make(map[string]bool)
	var out []model.Source
	for _, s := range sources {
		if s.URL == "" || seen[s.URL] {
			continue
		}
		seen[s.URL] = true
		out = append(out, s)
	}
	return out
}

// topN returns at most n items.
func topN(items []model.Item, n int) []model.Item {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// Generic is the fallback generator used when a domain declares a
// report type no generator implements: one section per category that
// produced items.
type Generic struct {
	profile    *domain.Profile
	reportType string
}

func NewGeneric(profile *domain.Profile, reportType string) *Generic {
	return &Generic{profile: profile, reportType: reportType}
}

func (g *Generic) ReportType() string { return g.reportType }

func (g *Generic) Name() string {
	words := strings.Split(g.reportType, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Section order for the generic layout.
var genericOrder = []model.Category{
	model.CategoryFinancial,
	model.CategoryNews,
	model.CategoryRSS,
	model.CategorySocial,
	model.CategoryAwards,
	model.CategoryPEActivity,
}

func (g *Generic) Generate(data map[model.Category][]model.Item, fromDate, toDate string) *model.Report {
	title := g.profile.Domain.DisplayName + " - " + g.Name()
	rep := newReport(g.profile, g.reportType, title, fromDate, toDate)

	for _, cat := range genericOrder {
		items := data[cat]
		if len(items) == 0 {
			continue
		}
		rep.Sections = append(rep.Sections, model.ReportSection{
			Title:   strings.ToUpper(strings.ReplaceAll(string(cat), "_", " ")),
			Items:   items,
			Sources: model.CollectSources(items),
		})
		rep.AllSources = append(rep.AllSources, model.CollectSources(items)...)
	}

	rep.AllSources = dedupeSources(rep.AllSources)
	return rep
}
