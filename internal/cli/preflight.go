package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/moltpulse/moltpulse/internal/domain"
	"github.com/moltpulse/moltpulse/internal/model"
	"github.com/moltpulse/moltpulse/internal/orchestrator"
)

var (
	preflightDomain  string
	preflightProfile string
)

var preflightCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Check collector readiness without collecting",
	Long: `Check which of a domain's collectors can run with the current API key
configuration. Nothing is collected; no credentials are validated
against their services.`,
	RunE: runPreflight,
}

func init() {
	preflightCmd.Flags().StringVar(&preflightDomain, "domain", "advertising", "domain to check")
	preflightCmd.Flags().StringVar(&preflightProfile, "profile", "default", "profile within the domain")

	rootCmd.AddCommand(preflightCmd)
}

func runPreflight(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	d, err := domain.Load(cfg.DomainsDir, preflightDomain)
	if err != nil {
		return err
	}
	profile, err := domain.LoadProfile(d, preflightProfile)
	if err != nil {
		return err
	}

	orch := orchestrator.New(orchestrator.Options{
		Config:  cfg,
		Domain:  d,
		Profile: profile,
	})
	result := orch.Preflight()

	fmt.Printf("Preflight for domain %q\n\n", d.Name)

	if len(result.Available) > 0 {
		fmt.Println("Available:")
		for _, c := range result.Available {
			fmt.Printf("  ✓ %s (%s)\n", c.Name, c.Type)
		}
		fmt.Println()
	}

	if len(result.Unavailable) > 0 {
		fmt.Println("Unavailable:")
		for _, c := range result.Unavailable {
			switch {
			case c.RequiresAny:
				fmt.Printf("  ✗ %s (%s): needs one of %s\n", c.Name, c.Type, strings.Join(c.MissingKeys, ", "))
			case len(c.MissingKeys) > 0:
				fmt.Printf("  ✗ %s (%s): missing %s\n", c.Name, c.Type, strings.Join(c.MissingKeys, ", "))
			default:
				fmt.Printf("  ✗ %s (%s): %s\n", c.Name, c.Type, c.Reason)
			}
		}
		fmt.Println()
	}

	fmt.Println("API keys:")
	for _, key := range model.KnownAPIKeys {
		status := "not set"
		if cfg.Key(key) != "" {
			status = "configured"
		}
		fmt.Printf("  %-25s %s\n", key, status)
	}
	fmt.Printf("\nKey file: %s\n", model.KeyFilePath())

	return nil
}
