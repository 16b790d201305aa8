package cache

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	a := Key("advertising", "default", "daily_brief", "2025-06-14", "2025-06-14", "default")
	b := Key("advertising", "default", "daily_brief", "2025-06-14", "2025-06-14", "default")
	c := Key("advertising", "default", "daily_brief", "2025-06-15", "2025-06-15", "default")

	if a != b {
		t.Errorf("same parameters produced different keys: %s vs %s", a, b)
	}
	if a == c {
		t.Error("different parameters produced the same key")
	}
	if got := a[:len("moltpulse:v1:")]; got != "moltpulse:v1:" {
		t.Errorf("key prefix = %q", got)
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("empty cache reported a hit")
	}

	if err := c.Set("k", []byte("value"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, found := c.Get("k")
	if !found || !bytes.Equal(got, []byte("value")) {
		t.Errorf("Get = %q, %v", got, found)
	}

	if err := c.Delete("k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("deleted key still present")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("k", []byte("v"), 10*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	if _, found := c.Get("k"); found {
		t.Error("expired entry still served")
	}
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	if err := c.Set("report-key", []byte(`{"title":"x"}`), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// A fresh instance over the same dir sees the entry.
	c2 := NewDiskCache(dir, time.Hour)
	got, found := c2.Get("report-key")
	if !found || !bytes.Equal(got, []byte(`{"title":"x"}`)) {
		t.Errorf("Get after restart = %q, %v", got, found)
	}

	if err := c.Delete("report-key"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found := c.Get("report-key"); found {
		t.Error("deleted entry still present")
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	_ = c.Set("k", []byte("v"), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, found := c.Get("k"); found {
		t.Error("expired entry still served")
	}
	// The expired file is removed on read.
	if _, err := os.Stat(dir + "/k.cache"); !os.IsNotExist(err) {
		t.Error("expired entry not cleaned up")
	}
}

func TestDiskCache_CorruptEntry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	if err := os.WriteFile(dir+"/bad.cache", []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, found := c.Get("bad"); found {
		t.Error("corrupt entry served as a hit")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()

	// Seed disk only, then read through a layered cache.
	disk := NewDiskCache(dir, time.Hour)
	_ = disk.Set("k", []byte("persisted"), time.Hour)

	layered := NewLayeredCache(time.Hour, dir, time.Hour)
	got, found := layered.Get("k")
	if !found || !bytes.Equal(got, []byte("persisted")) {
		t.Fatalf("disk fallthrough failed: %q, %v", got, found)
	}

	// The hit is now in memory: removing the disk file no longer hides it.
	_ = disk.Delete("k")
	if _, found := layered.Get("k"); !found {
		t.Error("disk hit was not promoted to memory")
	}
}

func TestLayeredCache_WritesBothLayers(t *testing.T) {
	dir := t.TempDir()
	layered := NewLayeredCache(time.Hour, dir, time.Hour)

	if err := layered.Set("k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	disk := NewDiskCache(dir, time.Hour)
	if _, found := disk.Get("k"); !found {
		t.Error("layered Set did not reach disk")
	}

	_ = layered.Delete("k")
	if _, found := layered.Get("k"); found {
		t.Error("Delete left the entry behind")
	}
	if _, found := disk.Get("k"); found {
		t.Error("Delete left the disk entry behind")
	}
}

func TestReportCache(t *testing.T) {
	rc := NewReportCache(t.TempDir(), time.Hour)
	key := Key("advertising", "default", "daily_brief", "2025-06-14", "2025-06-14", "default")

	reportJSON := []byte(`{"title":"DAILY BRIEF - 2025-06-14","sections":[],"from_cache":false}`)
	if err := rc.Store(key, reportJSON, "# DAILY BRIEF\n"); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	hit, found := rc.Load(key)
	if !found {
		t.Fatal("expected a cache hit")
	}
	if hit.Markdown != "# DAILY BRIEF\n" {
		t.Errorf("Markdown = %q", hit.Markdown)
	}
	if hit.AgeHours < 0 || hit.AgeHours > 1 {
		t.Errorf("AgeHours = %f", hit.AgeHours)
	}

	// The hit carries the stored payload with from_cache and
	// cache_age_hours rewritten, item payload untouched.
	var decoded struct {
		Title         string            `json:"title"`
		Sections      []json.RawMessage `json:"sections"`
		FromCache     bool              `json:"from_cache"`
		CacheAgeHours *float64          `json:"cache_age_hours"`
	}
	if err := json.Unmarshal(hit.ReportJSON, &decoded); err != nil {
		t.Fatalf("cached report JSON invalid: %v", err)
	}
	if decoded.Title != "DAILY BRIEF - 2025-06-14" {
		t.Errorf("Title = %q", decoded.Title)
	}
	if !decoded.FromCache {
		t.Error("served report should carry from_cache=true")
	}
	if decoded.CacheAgeHours == nil {
		t.Error("served report should carry cache_age_hours")
	} else if *decoded.CacheAgeHours != hit.AgeHours {
		t.Errorf("cache_age_hours = %f, want %f", *decoded.CacheAgeHours, hit.AgeHours)
	}

	rc.Invalidate(key)
	if _, found := rc.Load(key); found {
		t.Error("invalidated report still served")
	}
}

func TestReportCache_MissingKey(t *testing.T) {
	rc := NewReportCache(t.TempDir(), time.Hour)
	if _, found := rc.Load(Key("nothing")); found {
		t.Error("empty cache reported a hit")
	}
}
