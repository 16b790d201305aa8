// Package delivery renders finished reports and writes them to their
// configured channel.
package delivery

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/moltpulse/moltpulse/internal/model"
)

// RenderMarkdown formats a report as markdown.
func RenderMarkdown(rep *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", rep.Title)
	fmt.Fprintf(&b, "**Generated:** %s\n", rep.GeneratedAt)
	fmt.Fprintf(&b, "**Date Range:** %s to %s\n\n", rep.DateRange.From, rep.DateRange.To)

	if rep.ExecutiveSummary != "" {
		b.WriteString("## EXECUTIVE SUMMARY\n\n")
		b.WriteString(rep.ExecutiveSummary)
		b.WriteString("\n\n")
	}

	for _, section := range rep.Sections {
		fmt.Fprintf(&b, "## %s\n\n", section.Title)

		if section.Insight != "" {
			fmt.Fprintf(&b, "%s\n\n", section.Insight)
		}

		for _, item := range section.Items {
			b.WriteString(renderItem(item))
		}
	}

	if len(rep.StrategicRecommendations) > 0 {
		b.WriteString("## RECOMMENDATIONS\n\n")
		for _, rec := range rep.StrategicRecommendations {
			fmt.Fprintf(&b, "- %s\n", rec)
		}
		b.WriteString("\n")
	}

	if len(rep.AllSources) > 0 {
		b.WriteString("---\n\n## Sources\n\n")
		for i, src := range rep.AllSources {
			fmt.Fprintf(&b, "%d. [%s](%s)\n", i+1, src.Name, src.URL)
		}
	}

	if len(rep.Errors) > 0 {
		b.WriteString("\n---\n\n## Collection Warnings\n\n")
		for _, e := range rep.Errors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}

	return b.String()
}

// renderItem emits one bullet line per item, shaped by its kind.
func renderItem(item model.Item) string {
	var b strings.Builder

	switch it := item.(type) {
	case *model.FinancialItem:
		change := ""
		if it.ChangePct != nil {
			sign := ""
			if *it.ChangePct > 0 {
				sign = "+"
			}
			change = fmt.Sprintf(" (%s%.1f%%)", sign, *it.ChangePct)
		}
		fmt.Fprintf(&b, "- **%s** (%s): %.2f%s\n", it.EntityName, it.Symbol, it.Value, change)

	case *model.SocialItem:
		text := it.Text
		if len(text) > 100 {
			text = text[:100] + "..."
		}
		fmt.Fprintf(&b, "- %s\n", text)
		if it.URL != "" {
			fmt.Fprintf(&b, "  [@%s](%s)\n", it.Author, it.URL)
		}

	case *model.AwardItem:
		fmt.Fprintf(&b, "- **%s** - %s (%s)\n", it.WinnerAgency, it.CampaignName, it.Medal)
		if it.URL != "" {
			fmt.Fprintf(&b, "  [%s](%s)\n", it.AwardShow, it.URL)
		}

	case *model.PEActivityItem:
		value := ""
		if it.DealValue != nil {
			value = " (" + formatDealValue(*it.DealValue) + ")"
		}
		line := it.TargetName
		if it.AcquirerName != "" {
			line = it.AcquirerName + " " + it.DealType + " " + it.TargetName
		}
		fmt.Fprintf(&b, "- %s%s\n", line, value)
		if it.URL != "" {
			fmt.Fprintf(&b, "  [%s](%s)\n", it.SourceLabel(), it.URL)
		}

	default:
		title := item.DisplayText()
		if url := item.CitationURL(); url != "" {
			fmt.Fprintf(&b, "- [%s](%s)\n", title, url)
			if label := item.SourceLabel(); label != "" {
				fmt.Fprintf(&b, "  *[%s]*\n", label)
			}
		} else {
			fmt.Fprintf(&b, "- %s\n", title)
		}
	}

	b.WriteString("\n")
	return b.String()
}

func formatDealValue(v float64) string {
	switch {
	case v >= 1_000_000_000:
		return fmt.Sprintf("$%.1fB", v/1_000_000_000)
	case v >= 1_000_000:
		return fmt.Sprintf("$%.0fM", v/1_000_000)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}

// CacheNote is the line prepended to a markdown rendering served from
// the report cache.
func CacheNote(ageHours float64) string {
	return fmt.Sprintf("*Served from cache (%.1fh old). Use --no-cache to refresh.*\n\n", ageHours)
}

// RenderJSON formats a report as indented JSON.
func RenderJSON(rep *model.Report) ([]byte, error) {
	return json.MarshalIndent(rep, "", "  ")
}
