// Package dedupe collapses near-identical items, keeping the
// highest-scored survivor. Near-duplicate detection uses character
// 3-gram Jaccard similarity over normalized text; exact detection uses
// citation URLs. The pairwise pass is quadratic on purpose: batches are
// bounded by per-collector item caps.
package dedupe

import (
	"regexp"
	"strings"

	"github.com/moltpulse/moltpulse/internal/model"
)

// DefaultThreshold is the Jaccard similarity at or above which two
// items count as duplicates.
const DefaultThreshold = 0.7

var (
	punctRe = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// NormalizeText lowercases, strips punctuation, and collapses
// whitespace for comparison.
func NormalizeText(text string) string {
	text = strings.ToLower(text)
	text = punctRe.ReplaceAllString(text, " ")
	text = spaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// NGrams returns the set of character n-grams of the normalized text.
// Strings shorter than n become a single-element set.
func NGrams(text string, n int) map[string]struct{} {
	runes := []rune(NormalizeText(text))
	set := make(map[string]struct{})
	if len(runes) < n {
		set[string(runes)] = struct{}{}
		return set
	}
	for i := 0; i+n <= len(runes); i++ {
		set[string(runes[i:i+n])] = struct{}{}
	}
	return set
}

// Jaccard computes intersection-over-union of two sets.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for g := range a {
		if _, ok := b[g]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// FindDuplicates returns every index pair (i, j), i < j, whose
// representative texts are at or above the similarity threshold.
func FindDuplicates(items []model.Item, threshold float64) [][2]int {
	ngrams := make([]map[string]struct{}, len(items))
	for i, item := range items {
		ngrams[i] = NGrams(item.CompareText(), 3)
	}

	var pairs [][2]int
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if Jaccard(ngrams[i], ngrams[j]) >= threshold {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	}
	return pairs
}

// Items removes near-duplicates, keeping the higher-scored member of
// each duplicate pair. On equal scores the earlier index survives.
func Items(items []model.Item, threshold float64) []model.Item {
	if len(items) <= 1 {
		return items
	}

	toRemove := make(map[int]bool)
	for _, pair := range FindDuplicates(items, threshold) {
		i, j := pair[0], pair[1]
		if items[i].Rank().Score >= items[j].Rank().Score {
			toRemove[j] = true
		} else {
			toRemove[i] = true
		}
	}

	if len(toRemove) == 0 {
		return items
	}

	result := make([]model.Item, 0, len(items)-len(toRemove))
	for idx, item := range items {
		if !toRemove[idx] {
			result = append(result, item)
		}
	}
	return result
}

// ByURL collapses items sharing an identical citation URL to the single
// highest-scored one. Survivors keep their first-appearance position;
// items without a URL always pass through.
func ByURL(items []model.Item) []model.Item {
	if len(items) <= 1 {
		return items
	}

	seen := make(map[string]int)
	result := make([]model.Item, 0, len(items))

	for _, item := range items {
		url := item.CitationURL()
		if url == "" {
			result = append(result, item)
			continue
		}

		if idx, ok := seen[url]; ok {
			if item.Rank().Score > result[idx].Rank().Score {
				result[idx] = item
			}
			continue
		}
		seen[url] = len(result)
		result = append(result, item)
	}

	return result
}

// ForCategory applies the category's dedupe policy: news-like
// categories run the exact-URL pass before the n-gram pass, since the
// same content frequently carries a shared canonical link.
func ForCategory(category model.Category, items []model.Item, threshold float64) []model.Item {
	switch category {
	case model.CategoryNews, model.CategoryRSS, model.CategorySocial:
		items = ByURL(items)
	}
	return Items(items, threshold)
}
