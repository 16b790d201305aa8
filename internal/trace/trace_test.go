package trace

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestCollectorTrace_Window(t *testing.T) {
	ct := NewCollectorTrace("news", "news")
	ct.Start()
	time.Sleep(5 * time.Millisecond)
	ct.Complete(12, 9, true, "")

	if ct.StartedAt == "" || ct.EndedAt == "" {
		t.Error("expected both window timestamps to be set")
	}
	if ct.DurationMS < 0 {
		t.Errorf("negative duration: %d", ct.DurationMS)
	}
	if ct.ItemsCollected != 12 || ct.ItemsAfterFilter != 9 {
		t.Errorf("item counts not recorded: %d/%d", ct.ItemsCollected, ct.ItemsAfterFilter)
	}
	if !ct.Success || ct.Error != "" {
		t.Errorf("unexpected failure state: %v %q", ct.Success, ct.Error)
	}

	if _, err := time.Parse(time.RFC3339Nano, ct.StartedAt); err != nil {
		t.Errorf("started_at not RFC3339Nano: %v", err)
	}
}

func TestCollectorTrace_Failure(t *testing.T) {
	ct := NewCollectorTrace("financial", "financial")
	ct.Start()
	ct.Complete(0, 0, false, "quote endpoint returned 503")

	if ct.Success {
		t.Error("expected success=false")
	}
	if ct.Error != "quote endpoint returned 503" {
		t.Errorf("error not recorded: %q", ct.Error)
	}
}

func TestCollectorTrace_AddCallConcurrent(t *testing.T) {
	ct := NewCollectorTrace("social", "social")
	ct.Start()

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			ct.AddCall(APICall{Endpoint: "https://api.example.com/v1", Method: "GET", Status: 200})
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	if len(ct.APICalls) != 10 {
		t.Errorf("expected 10 calls, got %d", len(ct.APICalls))
	}
	// A missing timestamp is filled in at record time.
	if ct.APICalls[0].Timestamp == "" {
		t.Error("expected timestamp to be backfilled")
	}
}

func TestContext_Scoping(t *testing.T) {
	ct := NewCollectorTrace("news", "news")
	ctx := NewContext(context.Background(), ct)

	RecordCall(ctx, APICall{Endpoint: "https://newsdata.io/api/1/news", Method: "GET", Status: 200})
	if len(ct.APICalls) != 1 {
		t.Fatalf("expected 1 recorded call, got %d", len(ct.APICalls))
	}

	// Outside any collector window RecordCall is a no-op.
	RecordCall(context.Background(), APICall{Endpoint: "https://example.com", Method: "GET"})
	if len(ct.APICalls) != 1 {
		t.Errorf("call outside the window leaked into the trace: %d", len(ct.APICalls))
	}

	if FromContext(context.Background()) != nil {
		t.Error("FromContext on a bare context should return nil")
	}
	if FromContext(ctx) != ct {
		t.Error("FromContext should return the carried trace")
	}
}

func TestContext_ConcurrentCollectorsIsolated(t *testing.T) {
	a := NewCollectorTrace("news", "news")
	b := NewCollectorTrace("social", "social")
	ctxA := NewContext(context.Background(), a)
	ctxB := NewContext(context.Background(), b)

	RecordCall(ctxA, APICall{Endpoint: "https://a.example", Method: "GET"})
	RecordCall(ctxB, APICall{Endpoint: "https://b.example", Method: "POST"})
	RecordCall(ctxA, APICall{Endpoint: "https://a.example/2", Method: "GET"})

	if len(a.APICalls) != 2 || len(b.APICalls) != 1 {
		t.Errorf("traces bled across contexts: a=%d b=%d", len(a.APICalls), len(b.APICalls))
	}
}

func TestRunTrace_DerivedMetrics(t *testing.T) {
	rt := NewRunTrace("advertising", "default", "daily_brief", "default")
	rt.Start()

	ok := NewCollectorTrace("news", "news")
	ok.Start()
	ok.AddCall(APICall{Endpoint: "https://newsdata.io", Method: "GET", Status: 200})
	ok.AddCall(APICall{Endpoint: "https://newsapi.org", Method: "GET", Status: 200})
	ok.Complete(10, 7, true, "")

	failed := NewCollectorTrace("financial", "financial")
	failed.Start()
	failed.Complete(0, 0, false, "no tracked symbols")

	rt.AddCollector(ok)
	rt.AddCollector(failed)
	rt.Complete()

	if rt.RunID == "" {
		t.Error("expected a run ID")
	}
	if got := rt.TotalItemsCollected(); got != 10 {
		t.Errorf("TotalItemsCollected = %d, want 10", got)
	}
	if got := rt.TotalItemsAfterFilter(); got != 7 {
		t.Errorf("TotalItemsAfterFilter = %d, want 7", got)
	}
	if got := rt.TotalAPICalls(); got != 2 {
		t.Errorf("TotalAPICalls = %d, want 2", got)
	}
	if got := rt.SuccessfulCollectors(); got != 1 {
		t.Errorf("SuccessfulCollectors = %d, want 1", got)
	}
	if got := rt.FailedCollectors(); got != 1 {
		t.Errorf("FailedCollectors = %d, want 1", got)
	}
}

func TestRunTrace_JSONOmitsAbsentFields(t *testing.T) {
	rt := NewRunTrace("advertising", "default", "daily_brief", "quick")
	rt.Start()
	ct := NewCollectorTrace("news", "news")
	ct.Start()
	ct.Complete(3, 3, true, "")
	rt.AddCollector(ct)
	rt.Complete()

	data, err := rt.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}

	// No delivery happened, and no errors occurred: neither key should
	// appear at all.
	if _, present := decoded["delivery"]; present {
		t.Error("delivery should be omitted when unset")
	}
	if strings.Contains(string(data), `"error"`) {
		t.Error("empty errors should be omitted from export")
	}
	if strings.Contains(string(data), "null") {
		t.Errorf("export contains null: %s", data)
	}
}

func TestRunTrace_Summary(t *testing.T) {
	rt := NewRunTrace("advertising", "default", "daily_brief", "default")
	rt.Start()

	ct := NewCollectorTrace("news", "news")
	ct.Start()
	ct.AddCall(APICall{Endpoint: "https://newsdata.io/api/1/news", Method: "GET", Status: 200, LatencyMS: 120})
	ct.Complete(5, 4, true, "")
	rt.AddCollector(ct)

	bad := NewCollectorTrace("social", "social")
	bad.Start()
	bad.Complete(0, 0, false, "missing XAI_API_KEY")
	rt.AddCollector(bad)

	dt := NewDeliveryTrace("file")
	dt.Start()
	dt.Complete(true, "")
	rt.SetDelivery(dt)
	rt.Complete()

	out := rt.Summary()
	for _, want := range []string{
		"Run: " + rt.RunID,
		"✓ news",
		"✗ social",
		"missing XAI_API_KEY",
		"Total Items: 5",
		"Total API Calls: 1",
		"Delivery: ✓ file",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
