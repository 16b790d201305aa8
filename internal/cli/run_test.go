package cli

import (
	"testing"
	"time"
)

func TestResolveDates_Explicit(t *testing.T) {
	from, to := resolveDates("2025-06-01", "2025-06-14", 7)
	if from != "2025-06-01" || to != "2025-06-14" {
		t.Errorf("explicit dates overridden: %s to %s", from, to)
	}
}

func TestResolveDates_DaysBack(t *testing.T) {
	from, to := resolveDates("", "", 7)

	today := time.Now().Format("2006-01-02")
	weekAgo := time.Now().AddDate(0, 0, -7).Format("2006-01-02")
	if to != today {
		t.Errorf("to = %s, want today %s", to, today)
	}
	if from != weekAgo {
		t.Errorf("from = %s, want %s", from, weekAgo)
	}
}

func TestResolveDates_ClampsDays(t *testing.T) {
	from, _ := resolveDates("", "", 0)
	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	if from != yesterday {
		t.Errorf("non-positive days should clamp to 1, from = %s", from)
	}
}

func TestResolveDates_PartialFlags(t *testing.T) {
	// An explicit end date still gets the days-back start.
	from, to := resolveDates("", "2025-06-14", 3)
	if to != "2025-06-14" {
		t.Errorf("to = %s", to)
	}
	if from == "" {
		t.Error("from not filled")
	}
}
