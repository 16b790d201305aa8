package model

import "time"

// ReportSection groups processed items under a titled heading with the
// sources consulted for them.
type ReportSection struct {
	Title   string   `json:"title"`
	Items   []Item   `json:"items"`
	Sources []Source `json:"sources"`
	Insight string   `json:"insight,omitempty"`
}

// DateRange bounds the collection window.
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Report is the fully assembled output of one orchestrator run.
// Every report carries a deduplicated-by-URL AllSources bibliography.
type Report struct {
	Title       string          `json:"title"`
	Domain      string          `json:"domain"`
	Profile     string          `json:"profile"`
	ReportType  string          `json:"report_type"`
	GeneratedAt string          `json:"generated_at"`
	DateRange   DateRange       `json:"date_range"`
	Sections    []ReportSection `json:"sections"`
	AllSources  []Source        `json:"all_sources"`
	Errors      []string        `json:"errors"`

	// Hit metadata. A fresh run emits from_cache=false; the report
	// cache rewrites both fields when serving a stored report.
	FromCache     bool     `json:"from_cache"`
	CacheAgeHours *float64 `json:"cache_age_hours,omitempty"`

	// LLM enhancement; filled after scoring, never feeds back into it.
	ExecutiveSummary         string   `json:"executive_summary,omitempty"`
	StrategicRecommendations []string `json:"strategic_recommendations,omitempty"`
	LLMEnhanced              bool     `json:"llm_enhanced"`
	LLMProvider              string   `json:"llm_provider,omitempty"`
}

// NewReport creates a report shell with run metadata stamped in.
func NewReport(title, domain, profile, reportType, fromDate, toDate string) *Report {
	return &Report{
		Title:       title,
		Domain:      domain,
		Profile:     profile,
		ReportType:  reportType,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		DateRange:   DateRange{From: fromDate, To: toDate},
		Errors:      []string{},
	}
}

// CollectSources gathers unique citation sources from items, keyed by
// URL, preserving first appearance.
func CollectSources(items []Item) []Source {
	seen := make(map[string]bool)
	var sources []Source

	for _, item := range items {
		url := item.CitationURL()
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true

		name := item.SourceLabel()
		if name == "" {
			name = "Source"
		}
		sources = append(sources, Source{Name: name, URL: url})
	}

	return sources
}
