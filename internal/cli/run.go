package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/moltpulse/moltpulse/internal/cache"
	"github.com/moltpulse/moltpulse/internal/collector"
	"github.com/moltpulse/moltpulse/internal/delivery"
	"github.com/moltpulse/moltpulse/internal/domain"
	"github.com/moltpulse/moltpulse/internal/llm"
	"github.com/moltpulse/moltpulse/internal/model"
	"github.com/moltpulse/moltpulse/internal/orchestrator"
	"github.com/moltpulse/moltpulse/internal/trace"
)

var (
	runDomain    string
	runProfile   string
	runReport    string
	runDepth     string
	runDays      int
	runFrom      string
	runTo        string
	runFormat    string
	runOutput    string
	runNoCache   bool
	runNoLLM     bool
	runShowTrace bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run collection and generate a report",
	Long: `Collect intelligence for a domain, rank and dedupe the results, and
generate the requested report. Collector failures degrade to report
warnings; the run fails only when no collector is available at all.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runDomain, "domain", "advertising", "domain to collect for")
	runCmd.Flags().StringVar(&runProfile, "profile", "default", "profile within the domain")
	runCmd.Flags().StringVar(&runReport, "report", "daily_brief", "report type to generate")
	runCmd.Flags().StringVar(&runDepth, "depth", "default", "collection depth (quick, default, deep)")
	runCmd.Flags().IntVar(&runDays, "days", 1, "days back to collect when --from is not set")
	runCmd.Flags().StringVar(&runFrom, "from", "", "start date (YYYY-MM-DD)")
	runCmd.Flags().StringVar(&runTo, "to", "", "end date (YYYY-MM-DD, default today)")
	runCmd.Flags().StringVar(&runFormat, "format", "markdown", "output format (markdown, json)")
	runCmd.Flags().StringVar(&runOutput, "output", "", "delivery channel override (file, console)")
	runCmd.Flags().BoolVar(&runNoCache, "no-cache", false, "bypass the report cache")
	runCmd.Flags().BoolVar(&runNoLLM, "no-llm", false, "skip LLM report enhancement")
	runCmd.Flags().BoolVar(&runShowTrace, "trace", false, "print the run trace summary")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	log := newLogger()
	defer func() { _ = log.Sync() }()

	d, err := domain.Load(cfg.DomainsDir, runDomain)
	if err != nil {
		return err
	}
	profile, err := domain.LoadProfile(d, runProfile)
	if err != nil {
		return err
	}

	fromDate, toDate := resolveDates(runFrom, runTo, runDays)

	reportCache := cache.NewReportCache(cfg.Cache.Dir, time.Duration(cfg.Cache.TTLHours)*time.Hour)
	cacheKey := cache.Key(runDomain, runProfile, runReport, fromDate, toDate, runDepth)

	if cfg.Cache.Enabled && !runNoCache {
		if hit, found := reportCache.Load(cacheKey); found {
			log.Info("serving cached report", zap.Float64("age_hours", hit.AgeHours))
			return deliverCached(profile, hit)
		}
	}

	orch := orchestrator.New(orchestrator.Options{
		Config:   cfg,
		Logger:   log,
		Domain:   d,
		Profile:  profile,
		FromDate: fromDate,
		ToDate:   toDate,
		Depth:    collector.Depth(runDepth),
	})

	result, err := orch.Run(context.Background(), runReport)
	if err != nil {
		return err
	}
	rep := result.Report

	if !runNoLLM && cfg.LLM.APIKey != "" {
		enhancer, err := llm.NewEnhancer(cfg.LLM)
		if err != nil {
			log.Warn("llm enhancement unavailable", zap.Error(err))
		} else {
			enhancer.Enhance(context.Background(), rep)
		}
	}

	rendered, err := renderReport(rep, runFormat)
	if err != nil {
		return err
	}

	if cfg.Cache.Enabled && !runNoCache {
		repJSON, err := delivery.RenderJSON(rep)
		if err == nil {
			if err := reportCache.Store(cacheKey, repJSON, delivery.RenderMarkdown(rep)); err != nil {
				log.Warn("report cache write failed", zap.Error(err))
			}
		}
	}

	if err := deliver(profile, rep, rendered, result.Trace); err != nil {
		return err
	}

	if runShowTrace {
		fmt.Fprintln(os.Stderr, result.Trace.Summary())
	}
	return nil
}

// resolveDates fills the collection window: explicit flags win, then
// days-back from today.
func resolveDates(from, to string, days int) (string, string) {
	today := time.Now().Format("2006-01-02")
	if to == "" {
		to = today
	}
	if from == "" {
		if days < 1 {
			days = 1
		}
		from = time.Now().AddDate(0, 0, -days).Format("2006-01-02")
	}
	return from, to
}

func renderReport(rep *model.Report, format string) (string, error) {
	if format == "json" {
		data, err := delivery.RenderJSON(rep)
		if err != nil {
			return "", fmt.Errorf("render json: %w", err)
		}
		return string(data), nil
	}
	return delivery.RenderMarkdown(rep), nil
}

// deliver sends the rendering to the chosen channel and records the
// delivery on the trace.
func deliver(profile *domain.Profile, rep *model.Report, rendered string, rt *trace.RunTrace) error {
	channel := profile.DeliveryChannel()
	if runOutput != "" {
		channel = runOutput
	}

	dt := trace.NewDeliveryTrace(channel)
	dt.Start()

	deliverer := delivery.ForChannel(channel, profile.Delivery.File.Dir)
	dest, err := deliverer.Deliver(rep, rendered, runFormat)
	if err != nil {
		dt.Complete(false, err.Error())
		rt.SetDelivery(dt)
		return fmt.Errorf("deliver report: %w", err)
	}

	dt.Complete(true, "")
	rt.SetDelivery(dt)

	if deliverer.Channel() == "file" {
		fmt.Fprintf(os.Stderr, "Report saved to %s\n", dest)
	}
	return nil
}

// deliverCached prints or writes a cache hit without re-running
// anything.
func deliverCached(profile *domain.Profile, hit *cache.CachedReport) error {
	if runFormat == "json" {
		fmt.Println(string(hit.ReportJSON))
		return nil
	}

	fmt.Print(delivery.CacheNote(hit.AgeHours))
	fmt.Println(hit.Markdown)
	return nil
}
