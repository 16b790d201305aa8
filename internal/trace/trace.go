// Package trace records what happened during a run: which collectors
// ran, how long they took, and every outbound API call they made. The
// trace is assembled live and read-only afterwards; export is purely
// derived from stored fields.
package trace

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// APICall is the record of a single outbound call.
type APICall struct {
	Endpoint  string `json:"endpoint"`
	Method    string `json:"method"`
	Status    int    `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Timestamp string `json:"timestamp"`
	Cached    bool   `json:"cached"`
	Error     string `json:"error,omitempty"`
}

// CollectorTrace tracks one collector's execution window.
type CollectorTrace struct {
	Name             string    `json:"name"`
	Type             string    `json:"type"`
	StartedAt        string    `json:"started_at"`
	EndedAt          string    `json:"ended_at"`
	DurationMS       int64     `json:"duration_ms"`
	ItemsCollected   int       `json:"items_collected"`
	ItemsAfterFilter int       `json:"items_after_filter"`
	APICalls         []APICall `json:"api_calls"`
	Success          bool      `json:"success"`
	Error            string    `json:"error,omitempty"`

	mu    sync.Mutex
	start time.Time
}

// NewCollectorTrace creates an unstarted trace for a collector.
func NewCollectorTrace(name, collectorType string) *CollectorTrace {
	return &CollectorTrace{
		Name:     name,
		Type:     collectorType,
		Success:  true,
		APICalls: []APICall{},
	}
}

// Start marks the beginning of the collector's execution window.
func (c *CollectorTrace) Start() {
	c.start = time.Now()
	c.StartedAt = c.start.UTC().Format(time.RFC3339Nano)
}

// Complete marks the end of the window. The trace is immutable after
// this except for reads.
func (c *CollectorTrace) Complete(itemsCollected, itemsAfterFilter int, success bool, errMsg string) {
	now := time.Now()
	c.EndedAt = now.UTC().Format(time.RFC3339Nano)
	c.DurationMS = now.Sub(c.start).Milliseconds()
	c.ItemsCollected = itemsCollected
	c.ItemsAfterFilter = itemsAfterFilter
	c.Success = success
	c.Error = errMsg
}

// AddCall appends an API call record. Safe for concurrent use, since an
// adapter may fan out its own requests inside the execution window.
func (c *CollectorTrace) AddCall(call APICall) {
	if call.Timestamp == "" {
		call.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}
	c.mu.Lock()
	c.APICalls = append(c.APICalls, call)
	c.mu.Unlock()
}

// DeliveryTrace tracks report delivery.
type DeliveryTrace struct {
	Channel    string `json:"channel"`
	StartedAt  string `json:"started_at"`
	EndedAt    string `json:"ended_at"`
	DurationMS int64  `json:"duration_ms"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`

	start time.Time
}

// NewDeliveryTrace creates an unstarted delivery trace.
func NewDeliveryTrace(channel string) *DeliveryTrace {
	return &DeliveryTrace{Channel: channel, Success: true}
}

// Start marks delivery start.
func (d *DeliveryTrace) Start() {
	d.start = time.Now()
	d.StartedAt = d.start.UTC().Format(time.RFC3339Nano)
}

// Complete marks delivery end.
func (d *DeliveryTrace) Complete(success bool, errMsg string) {
	now := time.Now()
	d.EndedAt = now.UTC().Format(time.RFC3339Nano)
	d.DurationMS = now.Sub(d.start).Milliseconds()
	d.Success = success
	d.Error = errMsg
}

// RunTrace is the whole-run trace: one per orchestrator invocation.
type RunTrace struct {
	RunID      string            `json:"run_id"`
	Domain     string            `json:"domain"`
	Profile    string            `json:"profile"`
	ReportType string            `json:"report_type"`
	Depth      string            `json:"depth"`
	StartedAt  string            `json:"started_at"`
	EndedAt    string            `json:"ended_at"`
	DurationMS int64             `json:"duration_ms"`
	Collectors []*CollectorTrace `json:"collectors"`
	Delivery   *DeliveryTrace    `json:"delivery,omitempty"`

	start time.Time
}

// NewRunTrace creates a run trace with a fresh run ID.
func NewRunTrace(domain, profile, reportType, depth string) *RunTrace {
	return &RunTrace{
		RunID:      uuid.NewString(),
		Domain:     domain,
		Profile:    profile,
		ReportType: reportType,
		Depth:      depth,
		Collectors: []*CollectorTrace{},
	}
}

// Start marks the run start.
func (r *RunTrace) Start() {
	r.start = time.Now()
	r.StartedAt = r.start.UTC().Format(time.RFC3339Nano)
}

// Complete marks the run end.
func (r *RunTrace) Complete() {
	now := time.Now()
	r.EndedAt = now.UTC().Format(time.RFC3339Nano)
	r.DurationMS = now.Sub(r.start).Milliseconds()
}

// AddCollector appends a completed collector trace.
func (r *RunTrace) AddCollector(ct *CollectorTrace) {
	r.Collectors = append(r.Collectors, ct)
}

// SetDelivery attaches the delivery trace.
func (r *RunTrace) SetDelivery(dt *DeliveryTrace) {
	r.Delivery = dt
}

// TotalItemsCollected sums items across collectors.
func (r *RunTrace) TotalItemsCollected() int {
	total := 0
	for _, c := range r.Collectors {
		total += c.ItemsCollected
	}
	return total
}

// TotalItemsAfterFilter sums post-filter items across collectors.
func (r *RunTrace) TotalItemsAfterFilter() int {
	total := 0
	for _, c := range r.Collectors {
		total += c.ItemsAfterFilter
	}
	return total
}

// TotalAPICalls counts API calls across collectors.
func (r *RunTrace) TotalAPICalls() int {
	total := 0
	for _, c := range r.Collectors {
		total += len(c.APICalls)
	}
	return total
}

// SuccessfulCollectors counts collectors that completed cleanly.
func (r *RunTrace) SuccessfulCollectors() int {
	n := 0
	for _, c := range r.Collectors {
		if c.Success {
			n++
		}
	}
	return n
}

// FailedCollectors counts collectors that reported an error.
func (r *RunTrace) FailedCollectors() int {
	return len(r.Collectors) - r.SuccessfulCollectors()
}

// ToJSON exports the trace as indented JSON. Absent optional fields are
// omitted, not emitted as null.
func (r *RunTrace) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Summary renders a deterministic human-readable tree for terminal
// display.
func (r *RunTrace) Summary() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run: %s\n", r.RunID)
	fmt.Fprintf(&b, "Domain: %s | Profile: %s | Report: %s\n\n", r.Domain, r.Profile, r.ReportType)
	b.WriteString("Collectors:\n")

	for i, c := range r.Collectors {
		prefix := "├──"
		if i == len(r.Collectors)-1 {
			prefix = "└──"
		}
		status := "✓"
		if !c.Success {
			status = "✗"
		}

		fmt.Fprintf(&b, "%s %s %s\n", prefix, status, c.Name)
		fmt.Fprintf(&b, "│   ├── Duration: %dms\n", c.DurationMS)
		fmt.Fprintf(&b, "│   ├── Items: %d\n", c.ItemsCollected)

		if len(c.APICalls) > 0 {
			fmt.Fprintf(&b, "│   └── API Calls: %d\n", len(c.APICalls))
			for j, call := range c.APICalls {
				callPrefix := "│       ├──"
				if j == len(c.APICalls)-1 {
					callPrefix = "│       └──"
				}
				endpoint := call.Endpoint
				if len(endpoint) > 50 {
					endpoint = endpoint[:50] + "..."
				}
				fmt.Fprintf(&b, "%s %s %s (%d, %dms)\n", callPrefix, call.Method, endpoint, call.Status, call.LatencyMS)
			}
		} else {
			b.WriteString("│   └── API Calls: 0\n")
		}

		if c.Error != "" {
			fmt.Fprintf(&b, "│   └── Error: %s\n", c.Error)
		}
	}

	fmt.Fprintf(&b, "\nTotal Duration: %dms\n", r.DurationMS)
	fmt.Fprintf(&b, "Total Items: %d\n", r.TotalItemsCollected())
	fmt.Fprintf(&b, "Total API Calls: %d\n", r.TotalAPICalls())

	if r.Delivery != nil {
		status := "✓"
		if !r.Delivery.Success {
			status = "✗"
		}
		fmt.Fprintf(&b, "\nDelivery: %s %s (%dms)\n", status, r.Delivery.Channel, r.Delivery.DurationMS)
	}

	return b.String()
}
