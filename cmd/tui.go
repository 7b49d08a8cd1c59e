package cmd

import (
	"fmt"
	"time"

	"github.com/davrell/chemviz/internal/config"
	"github.com/davrell/chemviz/internal/tui"
	"github.com/davrell/chemviz/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	cfg, _ := config.Load()
	theme.SetActive(cfg.TUI.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	s, cleanup := newSession(cfg)
	defer cleanup()

	interval := time.Duration(cfg.TUI.RefreshIntervalSec) * time.Second
	app := tui.NewApp(s, config.Username(cfg), config.DownloadDir(cfg), cfg.TUI.AutoRefresh, interval)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
