package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/moltpulse/moltpulse/internal/model"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage MoltPulse configuration",
	Long: `Manage MoltPulse configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (MOLTPULSE_*)
3. Config file (~/.moltpulse/config.yaml)
4. Defaults

API keys are kept separately, in ~/.moltpulse/.env or process
environment variables; they never live in the config file.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		if path := viper.ConfigFileUsed(); path != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", path)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		fmt.Println(string(data))

		fmt.Println("API keys (from key file and environment):")
		for _, key := range model.KnownAPIKeys {
			status := "not set"
			if cfg.Key(key) != "" {
				status = "configured"
			}
			fmt.Printf("  %-25s %s\n", key, status)
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the configuration directory",
	Long:  `Create ~/.moltpulse with a default config.yaml and an empty API key file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("find home directory: %w", err)
		}

		configDir := filepath.Join(home, ".moltpulse")
		configPath := filepath.Join(configDir, "config.yaml")

		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists: %s", configPath)
		}
		if err := os.MkdirAll(configDir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}

		data, err := yaml.Marshal(model.DefaultConfig())
		if err != nil {
			return fmt.Errorf("marshal defaults: %w", err)
		}
		if err := os.WriteFile(configPath, data, 0o644); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}
		fmt.Printf("Created %s\n", configPath)

		keyPath := model.KeyFilePath()
		if _, err := os.Stat(keyPath); os.IsNotExist(err) {
			var b []byte
			for _, key := range model.KnownAPIKeys {
				b = append(b, []byte("# "+key+"=\n")...)
			}
			if err := os.WriteFile(keyPath, b, 0o600); err != nil {
				return fmt.Errorf("write key file: %w", err)
			}
			fmt.Printf("Created %s (add your API keys there)\n", keyPath)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
