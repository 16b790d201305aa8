package cache

import (
	"encoding/json"
	"time"
)

// reportEnvelope is what the report cache persists. The rendered
// markdown travels alongside the report JSON so a cache hit never has
// to re-render or re-decode items.
type reportEnvelope struct {
	CachedAt   time.Time       `json:"cached_at"`
	ReportJSON json.RawMessage `json:"report"`
	Markdown   string          `json:"markdown"`
}

// CachedReport is a report cache hit.
type CachedReport struct {
	ReportJSON json.RawMessage
	Markdown   string
	AgeHours   float64
}

// ReportCache stores finished reports keyed by run parameters.
type ReportCache struct {
	cache Cache
	ttl   time.Duration
}

// NewReportCache builds a report cache over a layered backend.
func NewReportCache(dir string, ttl time.Duration) *ReportCache {
	return &ReportCache{
		cache: NewLayeredCache(ttl, dir, ttl),
		ttl:   ttl,
	}
}

// Store caches a finished report with its rendering.
func (rc *ReportCache) Store(key string, reportJSON []byte, markdown string) error {
	env := reportEnvelope{
		CachedAt:   time.Now().UTC(),
		ReportJSON: reportJSON,
		Markdown:   markdown,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return rc.cache.Set(key, data, rc.ttl)
}

// Load returns the cached report for a key, if still fresh. The
// report JSON comes back with from_cache and cache_age_hours stamped
// as of load time.
func (rc *ReportCache) Load(key string) (*CachedReport, bool) {
	data, found := rc.cache.Get(key)
	if !found {
		return nil, false
	}

	var env reportEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, false
	}

	age := time.Since(env.CachedAt).Hours()
	return &CachedReport{
		ReportJSON: stampCacheHit(env.ReportJSON, age),
		Markdown:   env.Markdown,
		AgeHours:   age,
	}, true
}

// stampCacheHit rewrites the hit metadata fields in the stored report
// JSON without decoding the item payload. Malformed JSON is returned
// untouched.
func stampCacheHit(reportJSON json.RawMessage, ageHours float64) json.RawMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(reportJSON, &fields); err != nil {
		return reportJSON
	}

	fields["from_cache"] = json.RawMessage("true")
	age, err := json.Marshal(ageHours)
	if err != nil {
		return reportJSON
	}
	fields["cache_age_hours"] = age

	stamped, err := json.Marshal(fields)
	if err != nil {
		return reportJSON
	}
	return stamped
}

// Invalidate drops a cached report.
func (rc *ReportCache) Invalidate(key string) {
	_ = rc.cache.Delete(key)
}

// Clear drops every cached report.
func (rc *ReportCache) Clear() error {
	return rc.cache.Clear()
}
