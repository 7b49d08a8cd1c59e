package cmd

import (
	"fmt"
	"strconv"

	"github.com/davrell/chemviz/internal/config"

	"github.com/spf13/cobra"
)

var flagReportDir string

var reportCmd = &cobra.Command{
	Use:   "report [id]",
	Short: "Download the PDF report for an upload",
	Long:  "Download the generated PDF report for an upload. Without an id the most recent upload is used.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&flagReportDir, "out", "o", "", "Download directory (default from config, else current dir)")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	s, cleanup := newSession(cfg)
	defer cleanup()

	if _, err := signIn(cmd.Context(), s, cfg); err != nil {
		return err
	}

	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid upload id %q", args[0])
		}
		// The detail fetch also validates the id before the download.
		if err := s.SelectItem(cmd.Context(), findUpload(s.Snapshot().History, id)); err != nil {
			return err
		}
	}

	dir := flagReportDir
	if dir == "" {
		dir = config.DownloadDir(cfg)
	}

	path, err := s.DownloadReport(cmd.Context(), dir)
	if err != nil {
		return err
	}

	fmt.Printf("  Saved %s\n", path)
	return nil
}
