package delivery

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/moltpulse/moltpulse/internal/model"
)

func sampleReport() *model.Report {
	change := 2.3
	deal := 1_500_000_000.0
	rep := model.NewReport("DAILY BRIEF - 2025-06-14", "advertising", "default", "daily_brief", "2025-06-14", "2025-06-14")

	rep.Sections = []model.ReportSection{
		{
			Title: "STOCKS",
			Items: []model.Item{
				&model.FinancialItem{EntityName: "WPP", Symbol: "WPP", Value: 45.12, ChangePct: &change, Provider: "Alpha Vantage"},
			},
		},
		{
			Title:   "TOP NEWS",
			Insight: "A heavy pitch week.",
			Items: []model.Item{
				&model.NewsItem{Title: "WPP wins global account", URL: "https://news.example/wpp", Publisher: "Ad Age"},
			},
		},
		{
			Title: "THOUGHT LEADERS",
			Items: []model.Item{
				&model.SocialItem{Text: strings.Repeat("x", 120), Author: "markritson", URL: "https://x.com/markritson/1"},
			},
		},
		{
			Title: "PE ALERTS",
			Items: []model.Item{
				&model.PEActivityItem{TargetName: "Flywheel", AcquirerName: "Omnicom", DealType: "acquisition", DealValue: &deal, Provider: "Reuters", URL: "https://r.example/deal"},
			},
		},
	}
	rep.AllSources = []model.Source{
		{Name: "Ad Age", URL: "https://news.example/wpp"},
		{Name: "Reuters", URL: "https://r.example/deal"},
	}
	rep.Errors = []string{"social: rate limited"}
	return rep
}

func TestRenderMarkdown(t *testing.T) {
	out := RenderMarkdown(sampleReport())

	for _, want := range []string{
		"# DAILY BRIEF - 2025-06-14",
		"**Date Range:** 2025-06-14 to 2025-06-14",
		"## STOCKS",
		"- **WPP** (WPP): 45.12 (+2.3%)",
		"## TOP NEWS",
		"A heavy pitch week.",
		"[WPP wins global account](https://news.example/wpp)",
		"## PE ALERTS",
		"- Omnicom acquisition Flywheel ($1.5B)",
		"1. [Ad Age](https://news.example/wpp)",
		"2. [Reuters](https://r.example/deal)",
		"## Collection Warnings",
		"- social: rate limited",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q", want)
		}
	}

	// Long social posts are truncated with an ellipsis.
	if !strings.Contains(out, strings.Repeat("x", 100)+"...") {
		t.Error("social text not truncated at 100 chars")
	}
	if strings.Contains(out, strings.Repeat("x", 101)) {
		t.Error("social text exceeded the truncation cap")
	}
}

func TestCacheNote(t *testing.T) {
	note := CacheNote(3.5)
	if !strings.Contains(note, "Served from cache (3.5h old)") {
		t.Errorf("note = %q", note)
	}
	if !strings.HasSuffix(note, "\n\n") {
		t.Errorf("note should end with a blank line, got %q", note)
	}
}

func TestRenderMarkdown_Enhancements(t *testing.T) {
	rep := sampleReport()
	rep.ExecutiveSummary = "Quiet week for the holding companies."
	rep.StrategicRecommendations = []string{"Watch the WPP account wins.", "Track Omnicom integration."}

	out := RenderMarkdown(rep)
	if !strings.Contains(out, "## EXECUTIVE SUMMARY") {
		t.Error("executive summary section missing")
	}
	if !strings.Contains(out, "## RECOMMENDATIONS") || !strings.Contains(out, "- Watch the WPP account wins.") {
		t.Error("recommendations missing")
	}

	// The summary must precede the item sections.
	if strings.Index(out, "## EXECUTIVE SUMMARY") > strings.Index(out, "## STOCKS") {
		t.Error("executive summary should lead the report")
	}
}

func TestFormatDealValue(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{2_500_000_000, "$2.5B"},
		{750_000_000, "$750M"},
		{500_000, "$500000"},
	}
	for _, tt := range tests {
		if got := formatDealValue(tt.in); got != tt.want {
			t.Errorf("formatDealValue(%f) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderJSON(t *testing.T) {
	data, err := RenderJSON(sampleReport())
	if err != nil {
		t.Fatalf("RenderJSON failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["title"] != "DAILY BRIEF - 2025-06-14" {
		t.Errorf("title = %v", decoded["title"])
	}
	sections, ok := decoded["sections"].([]interface{})
	if !ok || len(sections) != 4 {
		t.Errorf("sections = %v", decoded["sections"])
	}
}

func TestFileDeliverer(t *testing.T) {
	dir := t.TempDir()
	d := &FileDeliverer{Dir: dir}
	rep := sampleReport()

	path, err := d.Deliver(rep, "# rendered\n", "markdown")
	if err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}

	if filepath.Dir(path) != dir {
		t.Errorf("wrote outside the configured dir: %s", path)
	}
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "advertising_daily_brief_") || !strings.HasSuffix(base, ".md") {
		t.Errorf("filename = %q", base)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(content) != "# rendered\n" {
		t.Errorf("content = %q", content)
	}

	// JSON format switches the extension.
	jsonPath, err := d.Deliver(rep, "{}", "json")
	if err != nil {
		t.Fatalf("Deliver json failed: %v", err)
	}
	if !strings.HasSuffix(jsonPath, ".json") {
		t.Errorf("json filename = %q", jsonPath)
	}
}

func TestConsoleDeliverer(t *testing.T) {
	var buf bytes.Buffer
	d := &ConsoleDeliverer{Out: &buf}

	where, err := d.Deliver(sampleReport(), "# rendered", "markdown")
	if err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if where != "console" {
		t.Errorf("destination = %q", where)
	}
	if !strings.Contains(buf.String(), "# rendered") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestForChannel(t *testing.T) {
	if d := ForChannel("file", "/tmp/x"); d.Channel() != "file" {
		t.Errorf("file channel resolved to %q", d.Channel())
	}
	// Unknown channels fall back to console rather than failing.
	if d := ForChannel("carrier-pigeon", ""); d.Channel() != "console" {
		t.Errorf("unknown channel resolved to %q", d.Channel())
	}
}
