// Package score converts raw item attributes into one comparable 0-100
// integer per item. Sub-scores are kept on the item so reports can
// explain a ranking.
package score

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/moltpulse/moltpulse/internal/model"
)

// Weight vectors per item kind. Each vector sums to 1.0.
type weights struct {
	relevance float64
	recency   float64
	signal    float64 // engagement, materiality, prestige or deal size
}

var weightsByKind = map[model.Category]weights{
	model.CategoryNews:       {relevance: 0.45, recency: 0.25, signal: 0.30},
	model.CategoryFinancial:  {relevance: 0.40, recency: 0.35, signal: 0.25},
	model.CategorySocial:     {relevance: 0.40, recency: 0.30, signal: 0.30},
	model.CategoryAwards:     {relevance: 0.35, recency: 0.25, signal: 0.40},
	model.CategoryPEActivity: {relevance: 0.45, recency: 0.25, signal: 0.30},
}

// Award prestige by (show, medal), matched case-insensitively.
var awardPrestige = map[string]map[string]int{
	"cannes_lions": {"grand_prix": 100, "gold": 80, "silver": 60, "bronze": 40},
	"effie":        {"grand": 90, "gold": 75, "silver": 55, "bronze": 35},
	"clio":         {"grand": 85, "gold": 70, "silver": 50, "bronze": 30},
	"one_show":     {"best_of": 95, "gold": 75, "silver": 55, "bronze": 35},
	"dnad":         {"black_pencil": 100, "yellow_pencil": 80, "graphite_pencil": 60, "wood_pencil": 40},
}

const (
	defaultAwardPrestige = 50

	unknownEngagementPenalty = 10
	lowConfidencePenalty     = 10
	medConfidencePenalty     = 5

	// Engagement fallback when some items in the batch carry a signal
	// but this one does not.
	missingEngagementScore = 35
	neutralSignalScore     = 50

	// DefaultRecencyHorizonDays is the age at which recency decays to 0.
	DefaultRecencyHorizonDays = 30
)

// log1pSafe is log(1+x) guarded against negative input.
func log1pSafe(x float64) float64 {
	if x < 0 {
		return 0
	}
	return math.Log1p(x)
}

// RecencyScore decays linearly from 100 (today) to 0 at the horizon.
// Future dates are clamped to 100; missing or unparseable dates score 0.
func RecencyScore(date string, horizonDays int) int {
	return recencyScoreAt(date, horizonDays, time.Now())
}

func recencyScoreAt(date string, horizonDays int, now time.Time) int {
	if date == "" {
		return 0
	}
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0
	}
	if horizonDays <= 0 {
		horizonDays = DefaultRecencyHorizonDays
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	ageDays := int(today.Sub(d).Hours() / 24)
	if ageDays <= 0 {
		return 100
	}
	if ageDays >= horizonDays {
		return 0
	}
	return 100 - (100*ageDays)/horizonDays
}

// newsEngagementRaw blends the available news counters. The second
// return is false when the item carries no usable signal.
func newsEngagementRaw(e *model.Engagement) (float64, bool) {
	if e == nil {
		return 0, false
	}

	score := log1pSafe(float64(e.Score))
	comments := log1pSafe(float64(e.NumComments))
	likes := log1pSafe(float64(e.Likes))

	if score == 0 && comments == 0 && likes == 0 {
		return 0, false
	}
	return 0.5*math.Max(score, likes) + 0.5*comments, true
}

// socialEngagementRaw blends the X-style counters.
func socialEngagementRaw(e *model.Engagement) (float64, bool) {
	if e == nil {
		return 0, false
	}

	likes := log1pSafe(float64(e.Likes))
	reposts := log1pSafe(float64(e.Reposts))
	replies := log1pSafe(float64(e.Replies))
	quotes := log1pSafe(float64(e.Quotes))

	if likes == 0 && reposts == 0 && replies == 0 {
		return 0, false
	}
	return 0.55*likes + 0.25*reposts + 0.15*replies + 0.05*quotes, true
}

// normalizeTo100 min-max scales the valid entries of raw to 0-100
// across the batch. A batch with no valid signal, or with zero spread,
// degenerates to the neutral midpoint for every item.
func normalizeTo100(raw []float64, valid []bool) ([]float64, []bool) {
	norm := make([]float64, len(raw))
	ok := make([]bool, len(raw))

	minV, maxV := math.Inf(1), math.Inf(-1)
	count := 0
	for i, v := range raw {
		if !valid[i] {
			continue
		}
		count++
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}

	if count == 0 || maxV == minV {
		for i := range norm {
			norm[i] = neutralSignalScore
			ok[i] = true
		}
		return norm, ok
	}

	for i, v := range raw {
		if valid[i] {
			norm[i] = (v - minV) / (maxV - minV) * 100
			ok[i] = true
		}
	}
	return norm, ok
}

func clampScore(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}

func confidencePenalty(conf model.DateConfidence) float64 {
	switch conf {
	case model.ConfidenceLow:
		return lowConfidencePenalty
	case model.ConfidenceMed:
		return medConfidencePenalty
	default:
		return 0
	}
}

// Items scores a single category's batch in place. RSS feeds produce
// news items and share the news scoring path.
func Items(category model.Category, items []model.Item, horizonDays int) {
	itemsAt(category, items, horizonDays, time.Now())
}

func itemsAt(category model.Category, items []model.Item, horizonDays int, now time.Time) {
	if len(items) == 0 {
		return
	}

	switch category {
	case model.CategoryNews, model.CategoryRSS:
		scoreEngagementBatch(model.CategoryNews, items, horizonDays, now, func(it model.Item) (float64, bool) {
			if n, ok := it.(*model.NewsItem); ok {
				return newsEngagementRaw(n.Engagement)
			}
			return 0, false
		})
	case model.CategorySocial:
		scoreEngagementBatch(model.CategorySocial, items, horizonDays, now, func(it model.Item) (float64, bool) {
			if s, ok := it.(*model.SocialItem); ok {
				return socialEngagementRaw(s.Engagement)
			}
			return 0, false
		})
	case model.CategoryFinancial:
		scoreFinancial(items, horizonDays, now)
	case model.CategoryAwards:
		scoreAwards(items, horizonDays, now)
	case model.CategoryPEActivity:
		scorePEActivity(items, horizonDays, now)
	}
}

// scoreEngagementBatch handles the news/social shape: batch-normalized
// engagement with the unknown-engagement and date-confidence penalties.
func scoreEngagementBatch(
	kind model.Category,
	items []model.Item,
	horizonDays int,
	now time.Time,
	rawFn func(model.Item) (float64, bool),
) {
	w := weightsByKind[kind]

	raw := make([]float64, len(items))
	valid := make([]bool, len(items))
	for i, it := range items {
		raw[i], valid[i] = rawFn(it)
	}
	norm, ok := normalizeTo100(raw, valid)

	for i, it := range items {
		rel := int(it.RelevanceEstimate() * 100)
		rec := recencyScoreAt(it.ItemDate(), horizonDays, now)

		eng := missingEngagementScore
		if ok[i] {
			eng = int(norm[i])
		}

		r := it.Rank()
		r.Subs = model.SubScores{Relevance: rel, Recency: rec, Engagement: eng}

		overall := w.relevance*float64(rel) + w.recency*float64(rec) + w.signal*float64(eng)
		if !valid[i] {
			overall -= unknownEngagementPenalty
		}
		overall -= confidencePenalty(it.DateTrust())

		r.Score = clampScore(overall)
	}
}

func scoreFinancial(items []model.Item, horizonDays int, now time.Time) {
	w := weightsByKind[model.CategoryFinancial]

	raw := make([]float64, len(items))
	valid := make([]bool, len(items))
	for i, it := range items {
		if f, ok := it.(*model.FinancialItem); ok && f.ChangePct != nil {
			raw[i] = math.Abs(*f.ChangePct) * 10
			valid[i] = true
		}
	}
	norm, ok := normalizeTo100(raw, valid)

	for i, it := range items {
		rel := int(it.RelevanceEstimate() * 100)
		rec := recencyScoreAt(it.ItemDate(), horizonDays, now)

		mat := neutralSignalScore
		if ok[i] {
			mat = int(norm[i])
		}

		r := it.Rank()
		r.Subs = model.SubScores{Relevance: rel, Recency: rec, Materiality: mat}

		overall := w.relevance*float64(rel) + w.recency*float64(rec) + w.signal*float64(mat)
		r.Score = clampScore(overall)
	}
}

func scoreAwards(items []model.Item, horizonDays int, now time.Time) {
	w := weightsByKind[model.CategoryAwards]

	for _, it := range items {
		rel := int(it.RelevanceEstimate() * 100)
		rec := recencyScoreAt(it.ItemDate(), horizonDays, now)

		prestige := defaultAwardPrestige
		if a, ok := it.(*model.AwardItem); ok {
			if medals, found := awardPrestige[strings.ToLower(a.AwardShow)]; found {
				if p, found := medals[strings.ToLower(a.Medal)]; found {
					prestige = p
				}
			}
		}

		r := it.Rank()
		r.Subs = model.SubScores{Relevance: rel, Recency: rec, Engagement: prestige}

		overall := w.relevance*float64(rel) + w.recency*float64(rec) + w.signal*float64(prestige)
		r.Score = clampScore(overall)
	}
}

func scorePEActivity(items []model.Item, horizonDays int, now time.Time) {
	w := weightsByKind[model.CategoryPEActivity]

	raw := make([]float64, len(items))
	valid := make([]bool, len(items))
	for i, it := range items {
		if p, ok := it.(*model.PEActivityItem); ok && p.DealValue != nil {
			raw[i] = log1pSafe(*p.DealValue / 1_000_000)
			valid[i] = true
		}
	}
	norm, ok := normalizeTo100(raw, valid)

	for i, it := range items {
		rel := int(it.RelevanceEstimate() * 100)
		rec := recencyScoreAt(it.ItemDate(), horizonDays, now)

		deal := neutralSignalScore
		if ok[i] {
			deal = int(norm[i])
		}

		r := it.Rank()
		r.Subs = model.SubScores{Relevance: rel, Recency: rec, Materiality: deal}

		overall := w.relevance*float64(rel) + w.recency*float64(rec) + w.signal*float64(deal)
		overall -= confidencePenalty(it.DateTrust())

		r.Score = clampScore(overall)
	}
}

// Cross-category tie-break ordering.
var kindPriority = map[model.Category]int{
	model.CategoryFinancial:  0,
	model.CategoryNews:       1,
	model.CategorySocial:     2,
	model.CategoryAwards:     3,
	model.CategoryPEActivity: 4,
}

func priorityOf(it model.Item) int {
	if p, ok := kindPriority[it.Kind()]; ok {
		return p
	}
	return 5
}

// Sort orders items by composite score descending, then date descending
// (missing dates sort oldest), then kind priority, then display text.
// The result is fully deterministic under equal keys.
func Sort(items []model.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]

		if a.Rank().Score != b.Rank().Score {
			return a.Rank().Score > b.Rank().Score
		}

		da, db := a.ItemDate(), b.ItemDate()
		if da != db {
			// ISO dates compare lexically; "" is older than any date.
			return da > db
		}

		pa, pb := priorityOf(a), priorityOf(b)
		if pa != pb {
			return pa < pb
		}

		return a.DisplayText() < b.DisplayText()
	})
}

// FilterByDateRange drops items dated outside [from, to]. Undated items
// pass unless requireDate is set. Dates are ISO strings so lexical
// comparison is ordering-correct.
func FilterByDateRange(items []model.Item, fromDate, toDate string, requireDate bool) []model.Item {
	result := make([]model.Item, 0, len(items))
	for _, it := range items {
		d := it.ItemDate()
		if d == "" {
			if !requireDate {
				result = append(result, it)
			}
			continue
		}
		if d < fromDate || d > toDate {
			continue
		}
		result = append(result, it)
	}
	return result
}
