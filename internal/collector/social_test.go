package collector

import (
	"strings"
	"testing"

	"github.com/moltpulse/moltpulse/internal/domain"
)

func TestBuildSearchPrompt(t *testing.T) {
	prompt := buildSearchPrompt([]string{"markritson", "@profgalloway"}, "2025-06-09", "2025-06-15", 25)

	for _, want := range []string{
		"@markritson, @profgalloway",
		"from 2025-06-09 to 2025-06-15",
		"up to 25 posts",
		"JSON array",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	// A handle already carrying @ is not doubled.
	if strings.Contains(prompt, "@@") {
		t.Error("prompt double-prefixed a handle")
	}
}

func TestParsePostsJSON(t *testing.T) {
	bare := `[{"text":"Marketing is the whole business","author_handle":"markritson","likes":420}]`
	posts := parsePostsJSON(bare)
	if len(posts) != 1 || posts[0].Likes != 420 {
		t.Errorf("bare array: %+v", posts)
	}

	wrapped := `{"posts":[{"text":"Brand beats activation","author_handle":"profgalloway"}]}`
	posts = parsePostsJSON(wrapped)
	if len(posts) != 1 || posts[0].AuthorHandle != "profgalloway" {
		t.Errorf("wrapped object: %+v", posts)
	}

	if got := parsePostsJSON("not json at all"); got != nil {
		t.Errorf("garbage input: %+v", got)
	}
}

func TestTrackedSymbols(t *testing.T) {
	d := &domain.Domain{
		Name: "advertising",
		EntityTypes: map[string][]domain.Entity{
			"holding_companies": {
				{ID: "wpp", Name: "WPP", Symbol: "WPP"},
				{ID: "omnicom", Name: "Omnicom", Symbol: "OMC"},
				{ID: "wpp2", Name: "WPP Media", Symbol: "WPP"}, // duplicate ticker
			},
			"independent_agencies": {
				{ID: "wk", Name: "Wieden+Kennedy"}, // no symbol
			},
		},
	}
	p := &domain.Profile{Name: "default", Domain: d}

	got := trackedSymbols(p)
	if len(got) != 2 {
		t.Fatalf("expected 2 unique symbols, got %d: %+v", len(got), got)
	}
	if got[0].symbol != "WPP" || got[0].name != "WPP" {
		t.Errorf("first symbol = %+v", got[0])
	}
	if got[1].symbol != "OMC" || got[1].name != "Omnicom" {
		t.Errorf("second symbol = %+v", got[1])
	}
}

func TestFocusAgencies(t *testing.T) {
	d := &domain.Domain{
		Name: "advertising",
		EntityTypes: map[string][]domain.Entity{
			"holding_companies":    {{ID: "wpp", Name: "WPP", Symbol: "WPP"}},
			"independent_agencies": {{ID: "wk", Name: "Wieden+Kennedy"}, {ID: "mother", Name: "Mother"}},
		},
	}
	p := &domain.Profile{
		Name:   "default",
		Domain: d,
		Focus: map[string]domain.Focus{
			"independent_agencies": {Exclude: []string{"Mother"}},
		},
	}

	got := focusAgencies(p)
	// Sorted entity types: holding_companies before independent_agencies;
	// Mother is excluded by the profile.
	if len(got) != 2 || got[0] != "WPP" || got[1] != "Wieden+Kennedy" {
		t.Errorf("focusAgencies = %v", got)
	}
}
