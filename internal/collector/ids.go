package collector

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strings"
	"time"
)

// itemID derives a stable short id from the item's canonical key,
// usually its URL.
func itemID(key string) string {
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])[:12]
}

// truncate caps s at n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	for len(string(runes)) > n {
		runes = runes[:len(runes)-1]
	}
	return string(runes)
}

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
	htmlEntityRe = regexp.MustCompile(`&\w+;`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

// stripMarkup removes HTML tags and entities from feed text.
func stripMarkup(s string) string {
	s = htmlTagRe.ReplaceAllString(s, "")
	s = htmlEntityRe.ReplaceAllString(s, " ")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// isoDateFromTimestamp extracts yyyy-mm-dd from a timestamp string in
// any of the formats the upstream APIs emit. Returns "" when nothing
// parses.
func isoDateFromTimestamp(ts string) string {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return ""
	}

	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
		time.RFC1123Z,
		time.RFC1123,
		time.RFC822Z,
		time.RFC822,
		"January 2, 2006",
		"Jan 2, 2006",
		"2 January 2006",
		"2 Jan 2006",
		"01/02/2006",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.Format("2006-01-02")
		}
	}
	if len(ts) >= 10 {
		if _, err := time.Parse("2006-01-02", ts[:10]); err == nil {
			return ts[:10]
		}
	}
	return ""
}

// keywordRelevance scores how many keywords appear in the text: a 0.5
// base plus 0.1 per match, capped at 1.0.
func keywordRelevance(text string, keywords []string) float64 {
	lower := strings.ToLower(text)
	matches := 0
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			matches++
		}
	}
	rel := 0.5 + float64(matches)*0.1
	if rel > 1.0 {
		rel = 1.0
	}
	return rel
}
