package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/moltpulse/moltpulse/internal/domain"
)

var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "Inspect domain configurations",
}

var domainsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available domains",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		names, err := domain.List(cfg.DomainsDir)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Printf("No domains found in %s\n", cfg.DomainsDir)
			return nil
		}

		for _, name := range names {
			d, err := domain.Load(cfg.DomainsDir, name)
			if err != nil {
				fmt.Printf("  %s (broken: %v)\n", name, err)
				continue
			}
			fmt.Printf("  %s - %s (%d collectors, reports: %s)\n",
				name, d.DisplayName, len(d.Collectors), strings.Join(d.ReportTypes(), ", "))
		}
		return nil
	},
}

var domainsValidateCmd = &cobra.Command{
	Use:   "validate <domain>",
	Short: "Validate a domain configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		d, err := domain.Load(cfg.DomainsDir, args[0])
		if err != nil {
			return err
		}

		problems := d.Validate()
		if len(problems) == 0 {
			fmt.Printf("Domain %q is valid: %d collectors, %d entity types\n",
				d.Name, len(d.Collectors), len(d.EntityTypes))
			return nil
		}

		for _, p := range problems {
			fmt.Printf("  ✗ %s\n", p)
		}
		return fmt.Errorf("domain %q has %d problem(s)", args[0], len(problems))
	},
}

func init() {
	domainsCmd.AddCommand(domainsListCmd)
	domainsCmd.AddCommand(domainsValidateCmd)
	rootCmd.AddCommand(domainsCmd)
}
