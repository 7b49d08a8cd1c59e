package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/davrell/chemviz/internal/config"
	"github.com/davrell/chemviz/internal/convert"

	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a CSV (or XLSX) of equipment readings",
	Long:  "Upload a CSV of equipment readings. Excel workbooks are flattened to CSV client-side before upload.",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	filename := filepath.Base(path)
	if convert.IsWorkbook(path) {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Converting %s to CSV...\n", filename)
		}
		data, err = convert.WorkbookToCSV(bytes.NewReader(data))
		if err != nil {
			return err
		}
		filename = convert.CSVName(path)
	}

	s, cleanup := newSession(cfg)
	defer cleanup()

	if _, err := signIn(cmd.Context(), s, cfg); err != nil {
		return err
	}

	rec, err := s.UploadFile(cmd.Context(), filename, bytes.NewReader(data))
	if err != nil {
		return err
	}

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Uploaded %s (id %d, %d rows)\n", rec.Filename, rec.ID, rec.Summary.TotalCount)
	}

	printDetail(s.Snapshot())
	return nil
}
