// Package orchestrator runs the full pipeline: discover collectors,
// fan out collection, process items, and generate the report.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/moltpulse/moltpulse/internal/collector"
	"github.com/moltpulse/moltpulse/internal/dedupe"
	"github.com/moltpulse/moltpulse/internal/domain"
	"github.com/moltpulse/moltpulse/internal/httpx"
	"github.com/moltpulse/moltpulse/internal/model"
	"github.com/moltpulse/moltpulse/internal/report"
	"github.com/moltpulse/moltpulse/internal/score"
	"github.com/moltpulse/moltpulse/internal/trace"
	"github.com/moltpulse/moltpulse/internal/worker"
)

// Orchestrator drives one collection run for a domain and profile.
type Orchestrator struct {
	cfg      *model.Config
	log      *zap.Logger
	domain   *domain.Domain
	profile  *domain.Profile
	registry *collector.Registry
	reports  *report.Registry
	client   *httpx.Client

	fromDate string
	toDate   string
	depth    collector.Depth

	// Per-category traces from the last RunCollectors call, kept so
	// processing can record post-filter counts.
	traces map[model.Category]*trace.CollectorTrace
}

// Options configures an orchestrator.
type Options struct {
	Config   *model.Config
	Logger   *zap.Logger
	Domain   *domain.Domain
	Profile  *domain.Profile
	Registry *collector.Registry
	Reports  *report.Registry
	Client   *httpx.Client
	FromDate string
	ToDate   string
	Depth    collector.Depth
}

// New creates an orchestrator. Nil registries get the defaults; a nil
// client gets one built from the config.
func New(opts Options) *Orchestrator {
	if opts.Registry == nil {
		opts.Registry = collector.DefaultRegistry()
	}
	if opts.Reports == nil {
		opts.Reports = report.DefaultRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Client == nil {
		opts.Client = httpx.New(httpx.Options{
			Timeout:     opts.Config.HTTP.Timeout,
			UserAgent:   opts.Config.HTTP.UserAgent,
			MaxBytes:    opts.Config.HTTP.MaxBodyBytes,
			Retries:     opts.Config.HTTP.Retries,
			RatePerHost: opts.Config.HTTP.RatePerHost,
			RateBurst:   opts.Config.HTTP.RateBurst,
		})
	}

	return &Orchestrator{
		cfg:      opts.Config,
		log:      opts.Logger,
		domain:   opts.Domain,
		profile:  opts.Profile,
		registry: opts.Registry,
		reports:  opts.Reports,
		client:   opts.Client,
		fromDate: opts.FromDate,
		toDate:   opts.ToDate,
		depth:    opts.Depth,
	}
}

// DiscoverCollectors resolves the domain's declared collectors to
// available instances. Unknown categories and unavailable collectors
// are skipped with a warning, never a failure.
func (o *Orchestrator) DiscoverCollectors() []collector.Collector {
	var collectors []collector.Collector
	for _, decl := range o.domain.Collectors {
		cat := model.Category(decl.Type)

		factory, ok := o.registry.Resolve(cat)
		if !ok {
			o.log.Warn("no collector registered for category", zap.String("category", decl.Type))
			continue
		}

		c := factory(o.cfg, o.client)
		if !c.IsAvailable(o.cfg) {
			o.log.Warn("collector unavailable",
				zap.String("collector", c.Name()),
				zap.Strings("required_keys", c.RequiredKeys()))
			continue
		}
		collectors = append(collectors, c)
	}
	return collectors
}

// CollectorStatus is one preflight line.
type CollectorStatus struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	MissingKeys []string `json:"missing_keys,omitempty"`
	RequiresAny bool     `json:"requires_any,omitempty"`
	Reason      string   `json:"reason,omitempty"`
}

// PreflightResult reports collector readiness without collecting
// anything.
type PreflightResult struct {
	Available   []CollectorStatus `json:"available"`
	Unavailable []CollectorStatus `json:"unavailable"`
	Warnings    []string          `json:"warnings"`
}

// Preflight classifies every declared collector as available or
// unavailable with the keys it is missing. It never calls Collect.
func (o *Orchestrator) Preflight() *PreflightResult {
	result := &PreflightResult{}

	for _, decl := range o.domain.Collectors {
		cat := model.Category(decl.Type)

		factory, ok := o.registry.Resolve(cat)
		if !ok {
			result.Unavailable = append(result.Unavailable, CollectorStatus{
				Name:   decl.Type,
				Type:   decl.Type,
				Reason: "no collector registered",
			})
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s unavailable: no collector registered", decl.Type))
			continue
		}

		c := factory(o.cfg, o.client)
		missing := collector.MissingKeys(o.cfg, c.RequiredKeys())

		switch {
		case c.IsAvailable(o.cfg):
			result.Available = append(result.Available, CollectorStatus{
				Name: c.Name(),
				Type: decl.Type,
			})
		case c.RequiresAnyKey():
			result.Unavailable = append(result.Unavailable, CollectorStatus{
				Name:        c.Name(),
				Type:        decl.Type,
				MissingKeys: c.RequiredKeys(),
				RequiresAny: true,
			})
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s unavailable: needs one of %v", c.Name(), c.RequiredKeys()))
		case len(missing) > 0:
			result.Unavailable = append(result.Unavailable, CollectorStatus{
				Name:        c.Name(),
				Type:        decl.Type,
				MissingKeys: missing,
			})
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s unavailable: missing %v", c.Name(), missing))
		default:
			result.Unavailable = append(result.Unavailable, CollectorStatus{
				Name:   c.Name(),
				Type:   decl.Type,
				Reason: "disabled by configuration",
			})
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s unavailable: disabled by configuration", c.Name()))
		}
	}

	return result
}

// collectJob is one collector execution on the pool.
type collectJob struct {
	collector collector.Collector
	orch      *Orchestrator
}

// collectResult pairs a collector's output with its trace.
type collectResult struct {
	category model.Category
	result   *collector.Result
	trace    *trace.CollectorTrace
}

func (r *collectResult) GetError() error {
	if r.result.Err != "" {
		return fmt.Errorf("%s: %s", r.category, r.result.Err)
	}
	return nil
}

// Execute runs one collector inside its own trace window and deadline.
// Panics are contained here so one broken adapter cannot take down the
// run.
func (j *collectJob) Execute(ctx context.Context) worker.Result {
	c := j.collector
	o := j.orch

	ct := trace.NewCollectorTrace(c.Name(), string(c.Type()))
	ct.Start()

	timeout := collector.ConfigForDepth(o.depth).Timeout
	runCtx, cancel := context.WithTimeout(trace.NewContext(ctx, ct), timeout)
	defer cancel()

	res := func() (res *collector.Result) {
		defer func() {
			if r := recover(); r != nil {
				o.log.Error("collector panic",
					zap.String("collector", c.Name()), zap.Any("panic", r))
				res = collector.Fail("panic: %v", r)
			}
		}()
		return c.Collect(runCtx, o.profile, o.fromDate, o.toDate, o.depth)
	}()

	ct.Complete(res.Count(), res.Count(), res.Success(), res.Err)

	return &collectResult{category: c.Type(), result: res, trace: ct}
}

// RunCollectors fans the available collectors out on the worker pool
// and returns their results keyed by category, recording each trace on
// rt.
func (o *Orchestrator) RunCollectors(rt *trace.RunTrace, collectors []collector.Collector) map[model.Category]*collector.Result {
	pool := worker.NewPool(o.cfg.Concurrency.Collectors)
	pool.Start()

	for _, c := range collectors {
		pool.Submit(&collectJob{collector: c, orch: o})
	}

	results := make(map[model.Category]*collector.Result, len(collectors))
	traces := make(map[model.Category]*trace.CollectorTrace, len(collectors))
	for _, r := range pool.Wait() {
		cr := r.(*collectResult)
		results[cr.category] = cr.result
		traces[cr.category] = cr.trace
		rt.AddCollector(cr.trace)

		o.log.Info("collector finished",
			zap.String("category", string(cr.category)),
			zap.Int("items", cr.result.Count()),
			zap.Bool("success", cr.result.Success()))
	}

	o.traces = traces
	return results
}

// ProcessItems runs each category's items through the ranking
// pipeline: date filter, scoring, sort, dedupe. Failed or empty
// collectors yield an empty list, never a missing key.
func (o *Orchestrator) ProcessItems(results map[model.Category]*collector.Result) map[model.Category][]model.Item {
	processed := make(map[model.Category][]model.Item, len(results))

	for cat, res := range results {
		if !res.Success() || res.Count() == 0 {
			processed[cat] = []model.Item{}
			continue
		}

		items := score.FilterByDateRange(res.Items, o.fromDate, o.toDate, o.cfg.Scoring.RequireDate)
		score.Items(cat, items, o.cfg.Scoring.RecencyHorizonDays)
		score.Sort(items)
		items = dedupe.ForCategory(cat, items, o.cfg.Scoring.DedupeThreshold)

		if items == nil {
			items = []model.Item{}
		}
		processed[cat] = items

		if ct := o.traces[cat]; ct != nil {
			ct.ItemsAfterFilter = len(items)
		}
	}

	return processed
}

// GenerateReport builds the requested report, falling back to the
// generic layout for report types with no dedicated generator.
func (o *Orchestrator) GenerateReport(reportType string, processed map[model.Category][]model.Item) *model.Report {
	if factory, ok := o.reports.Resolve(reportType); ok {
		return factory(o.profile).Generate(processed, o.fromDate, o.toDate)
	}
	o.log.Warn("no generator for report type, using generic layout",
		zap.String("report_type", reportType))
	return report.NewGeneric(o.profile, reportType).Generate(processed, o.fromDate, o.toDate)
}

// RunResult is everything one run produced.
type RunResult struct {
	Report           *model.Report
	CollectorResults map[model.Category]*collector.Result
	Errors           []string
	Trace            *trace.RunTrace
}

// Run executes the full pipeline. Individual collector failures become
// report warnings; only having no collectors at all fails the run.
func (o *Orchestrator) Run(ctx context.Context, reportType string) (*RunResult, error) {
	rt := trace.NewRunTrace(o.domain.Name, o.profile.Name, reportType, string(o.depth))
	rt.Start()

	var errors []string

	collectors := o.DiscoverCollectors()
	if len(collectors) == 0 {
		rt.Complete()
		return &RunResult{Errors: []string{"no collectors available"}, Trace: rt},
			fmt.Errorf("no collectors available")
	}

	results := o.RunCollectors(rt, collectors)
	for cat, res := range results {
		if res.Err != "" {
			errors = append(errors, fmt.Sprintf("%s: %s", cat, res.Err))
		}
	}

	processed := o.ProcessItems(results)

	rep := o.GenerateReport(reportType, processed)
	rep.Errors = append(rep.Errors, errors...)

	rt.Complete()

	o.log.Info("run complete",
		zap.String("run_id", rt.RunID),
		zap.Int("items_collected", rt.TotalItemsCollected()),
		zap.Int("items_after_filter", rt.TotalItemsAfterFilter()),
		zap.Int("failed_collectors", rt.FailedCollectors()),
		zap.Duration("duration", time.Duration(rt.DurationMS)*time.Millisecond))

	return &RunResult{
		Report:           rep,
		CollectorResults: results,
		Errors:           errors,
		Trace:            rt,
	}, nil
}
