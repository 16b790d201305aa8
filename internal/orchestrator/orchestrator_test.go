package orchestrator

import (
	"context"
	"strings"
	"testing"

	"github.com/moltpulse/moltpulse/internal/collector"
	"github.com/moltpulse/moltpulse/internal/domain"
	"github.com/moltpulse/moltpulse/internal/httpx"
	"github.com/moltpulse/moltpulse/internal/model"
	"github.com/moltpulse/moltpulse/internal/trace"
)

// fakeCollector is a scriptable collector for pipeline tests.
type fakeCollector struct {
	typ       model.Category
	name      string
	required  []string
	anyKey    bool
	available bool
	result    *collector.Result
	panicMsg  string
}

func (f *fakeCollector) Type() model.Category               { return f.typ }
func (f *fakeCollector) Name() string                       { return f.name }
func (f *fakeCollector) RequiredKeys() []string             { return f.required }
func (f *fakeCollector) RequiresAnyKey() bool               { return f.anyKey }
func (f *fakeCollector) IsAvailable(cfg *model.Config) bool { return f.available }

func (f *fakeCollector) Collect(ctx context.Context, profile *domain.Profile, fromDate, toDate string, depth collector.Depth) *collector.Result {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.result
}

func registryOf(t *testing.T, fakes ...*fakeCollector) *collector.Registry {
	t.Helper()
	r := collector.NewRegistry()
	for _, f := range fakes {
		f := f
		err := r.Register(f.typ, func(cfg *model.Config, client *httpx.Client) collector.Collector {
			return f
		})
		if err != nil {
			t.Fatalf("register %s: %v", f.typ, err)
		}
	}
	return r
}

func testOrchestrator(t *testing.T, reg *collector.Registry, decls ...string) *Orchestrator {
	t.Helper()

	d := &domain.Domain{Name: "test"}
	for _, decl := range decls {
		d.Collectors = append(d.Collectors, domain.CollectorDecl{Type: decl})
	}
	p := &domain.Profile{Name: "default", Domain: d}

	return New(Options{
		Config:   model.DefaultConfig(),
		Domain:   d,
		Profile:  p,
		Registry: reg,
		Client:   httpx.New(httpx.Options{}),
		FromDate: "2025-06-01",
		ToDate:   "2025-06-15",
		Depth:    collector.DepthQuick,
	})
}

func news(id, title, url, date string) *model.NewsItem {
	return &model.NewsItem{
		ID: id, Title: title, URL: url, Publisher: "Example",
		Date: date, Confidence: model.ConfidenceHigh, Relevance: 0.8,
	}
}

func TestRun_PartialFailureStillProducesReport(t *testing.T) {
	good := &fakeCollector{
		typ: model.CategoryNews, name: "news", available: true,
		result: &collector.Result{
			Items: []model.Item{
				news("1", "WPP wins account", "https://a.example/1", "2025-06-10"),
				news("2", "Omnicom restructures", "https://a.example/2", "2025-06-12"),
			},
		},
	}
	bad := &fakeCollector{
		typ: model.CategorySocial, name: "social", available: true,
		result: collector.Fail("rate limited"),
	}

	o := testOrchestrator(t, registryOf(t, good, bad), "news", "social")
	res, err := o.Run(context.Background(), "daily_brief")
	if err != nil {
		t.Fatalf("one failing collector must not fail the run: %v", err)
	}

	if res.Report == nil {
		t.Fatal("expected a report")
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "rate limited") {
		t.Errorf("Errors = %v", res.Errors)
	}
	if len(res.Report.Errors) != 1 {
		t.Errorf("failure should surface as a report warning, got %v", res.Report.Errors)
	}
	if res.CollectorResults[model.CategoryNews].Count() != 2 {
		t.Errorf("news result lost items: %d", res.CollectorResults[model.CategoryNews].Count())
	}

	if res.Trace == nil || len(res.Trace.Collectors) != 2 {
		t.Fatalf("expected 2 collector traces")
	}
	if res.Trace.FailedCollectors() != 1 {
		t.Errorf("FailedCollectors = %d, want 1", res.Trace.FailedCollectors())
	}
}

func TestRun_NoCollectorsAvailable(t *testing.T) {
	off := &fakeCollector{typ: model.CategoryNews, name: "news", available: false}

	o := testOrchestrator(t, registryOf(t, off), "news")
	res, err := o.Run(context.Background(), "daily_brief")
	if err == nil {
		t.Fatal("expected an error when nothing can run")
	}
	if res == nil || len(res.Errors) == 0 {
		t.Error("result should carry the error for display")
	}
}

func TestRun_PanicContained(t *testing.T) {
	angry := &fakeCollector{
		typ: model.CategoryNews, name: "news", available: true,
		panicMsg: "nil map write",
	}
	calm := &fakeCollector{
		typ: model.CategoryRSS, name: "rss", available: true,
		result: &collector.Result{
			Items: []model.Item{news("1", "Feed story", "https://f.example/1", "2025-06-10")},
		},
	}

	o := testOrchestrator(t, registryOf(t, angry, calm), "news", "rss")
	res, err := o.Run(context.Background(), "daily_brief")
	if err != nil {
		t.Fatalf("panic should be contained, got run error: %v", err)
	}

	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "panic") {
		t.Errorf("panic not surfaced as a collector error: %v", res.Errors)
	}
	if res.CollectorResults[model.CategoryRSS].Count() != 1 {
		t.Error("healthy collector lost its items")
	}
}

func TestDiscoverCollectors(t *testing.T) {
	avail := &fakeCollector{typ: model.CategoryNews, name: "news", available: true}
	off := &fakeCollector{typ: model.CategorySocial, name: "social", available: false}

	// "awards" is declared but never registered.
	o := testOrchestrator(t, registryOf(t, avail, off), "news", "social", "awards")
	got := o.DiscoverCollectors()
	if len(got) != 1 || got[0].Name() != "news" {
		t.Errorf("DiscoverCollectors = %v", got)
	}
}

func TestProcessItems(t *testing.T) {
	results := map[model.Category]*collector.Result{
		// Two of these are the same story behind the same URL.
		model.CategoryNews: {
			Items: []model.Item{
				news("1", "WPP wins account", "https://a.example/1", "2025-06-10"),
				news("2", "WPP wins account", "https://a.example/1", "2025-06-10"),
				news("3", "Out of range story", "https://a.example/3", "2025-03-01"),
			},
		},
		model.CategorySocial: collector.Fail("boom"),
	}

	o := testOrchestrator(t, collector.NewRegistry())
	processed := o.ProcessItems(results)

	if got := processed[model.CategoryNews]; len(got) != 1 {
		t.Errorf("expected dedupe and date filter to leave 1 item, got %d", len(got))
	}
	// Failed collectors map to an empty list, never a missing key.
	got, ok := processed[model.CategorySocial]
	if !ok || got == nil || len(got) != 0 {
		t.Errorf("failed collector should yield empty list, got %v (present=%v)", got, ok)
	}
}

func TestProcessItems_PartialFailureDropsItems(t *testing.T) {
	// A collector that errored mid-run may still carry partial items;
	// those are dropped rather than ranked.
	results := map[model.Category]*collector.Result{
		model.CategoryNews: {
			Items: []model.Item{
				news("1", "WPP wins account", "https://a.example/1", "2025-06-10"),
			},
			Err: "upstream timed out after page 1",
		},
	}

	o := testOrchestrator(t, collector.NewRegistry())
	processed := o.ProcessItems(results)

	got, ok := processed[model.CategoryNews]
	if !ok || got == nil {
		t.Fatalf("category missing from processed map: %v (present=%v)", got, ok)
	}
	if len(got) != 0 {
		t.Errorf("unsuccessful collector result should yield an empty list, got %d items", len(got))
	}
}

func TestProcessItems_RecordsPostFilterCount(t *testing.T) {
	o := testOrchestrator(t, collector.NewRegistry())
	ct := trace.NewCollectorTrace("news", "news")
	ct.Start()
	ct.Complete(2, 2, true, "")
	o.traces = map[model.Category]*trace.CollectorTrace{model.CategoryNews: ct}

	o.ProcessItems(map[model.Category]*collector.Result{
		model.CategoryNews: {
			Items: []model.Item{
				news("1", "In range", "https://a.example/1", "2025-06-10"),
				news("2", "Out of range", "https://a.example/2", "2024-01-01"),
			},
		},
	})

	if ct.ItemsAfterFilter != 1 {
		t.Errorf("ItemsAfterFilter = %d, want 1", ct.ItemsAfterFilter)
	}
}

func TestPreflight(t *testing.T) {
	fakes := []*fakeCollector{
		{typ: model.CategoryRSS, name: "rss", available: true},
		{typ: model.CategoryNews, name: "news", available: false,
			required: []string{"NEWSDATA_API_KEY", "NEWSAPI_API_KEY"}, anyKey: true},
		{typ: model.CategoryFinancial, name: "financial", available: false,
			required: []string{"ALPHA_VANTAGE_API_KEY"}},
		{typ: model.CategoryAwards, name: "awards", available: false},
	}

	o := testOrchestrator(t, registryOf(t, fakes...),
		"rss", "news", "financial", "awards", "pe_activity")
	pre := o.Preflight()

	if len(pre.Available) != 1 || pre.Available[0].Name != "rss" {
		t.Errorf("Available = %v", pre.Available)
	}
	if len(pre.Unavailable) != 4 {
		t.Fatalf("Unavailable = %d entries, want 4", len(pre.Unavailable))
	}

	byName := make(map[string]CollectorStatus)
	for _, s := range pre.Unavailable {
		byName[s.Name] = s
	}

	if s := byName["news"]; !s.RequiresAny || len(s.MissingKeys) != 2 {
		t.Errorf("any-of collector misclassified: %+v", s)
	}
	if s := byName["financial"]; len(s.MissingKeys) != 1 || s.MissingKeys[0] != "ALPHA_VANTAGE_API_KEY" {
		t.Errorf("missing-key collector misclassified: %+v", s)
	}
	if s := byName["awards"]; s.Reason != "disabled by configuration" {
		t.Errorf("keyless unavailable collector misclassified: %+v", s)
	}
	if s := byName["pe_activity"]; s.Reason != "no collector registered" {
		t.Errorf("unregistered category misclassified: %+v", s)
	}

	if len(pre.Warnings) != 4 {
		t.Errorf("expected 4 warnings, got %v", pre.Warnings)
	}
}
