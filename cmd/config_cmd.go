package cmd

import (
	"fmt"

	"github.com/davrell/chemviz/internal/api"
	"github.com/davrell/chemviz/internal/config"
	"github.com/davrell/chemviz/internal/store"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [API]")
	base := config.BaseURL(cfg)
	if base == "" {
		base = api.DefaultBase()
	}
	fmt.Printf("    Base URL: %s\n", base)
	if user := config.Username(cfg); user != "" {
		fmt.Printf("    Username: %s\n", user)
	} else {
		fmt.Println("    Username: not configured")
	}
	if config.Password() != "" {
		fmt.Println("    Password: set via CHEMVIZ_PASS")
	} else {
		fmt.Println("    Password: not set (use --password or CHEMVIZ_PASS)")
	}
	fmt.Println()

	fmt.Println("  [Downloads]")
	fmt.Printf("    Directory: %s\n", config.DownloadDir(cfg))
	fmt.Println()

	fmt.Println("  [TUI]")
	fmt.Printf("    Theme:            %s\n", cfg.TUI.Theme)
	fmt.Printf("    Auto-refresh:     %v\n", cfg.TUI.AutoRefresh)
	fmt.Printf("    Refresh interval: %ds\n", cfg.TUI.RefreshIntervalSec)
	fmt.Println()

	fmt.Printf("  Cache: %s\n", store.CachePath())
	return nil
}
