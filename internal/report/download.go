// Package report saves generated PDF reports to local files.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/davrell/chemviz/internal/api"
)

// FileName returns the local name for a report download: report_<filename>,
// or report_<id>.pdf when the upload's filename is unknown.
func FileName(id int64, filename string) string {
	if filename != "" {
		return "report_" + filename
	}
	return fmt.Sprintf("report_%d.pdf", id)
}

// Save streams the PDF report for the given upload into destDir and returns
// the final path. The download goes through a temp file that is closed and
// removed on every failure path, including errors during the fetch itself,
// so repeated downloads never accumulate stray handles or partial files.
func Save(ctx context.Context, client *api.Client, creds *api.Credentials, id int64, filename, destDir string) (string, error) {
	if destDir == "" {
		destDir = "."
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("creating download dir: %w", err)
	}

	tmp, err := os.CreateTemp(destDir, ".report-*.part")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	discard := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if err := client.Report(ctx, creds, id, tmp); err != nil {
		discard()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("flushing report: %w", err)
	}

	path := filepath.Join(destDir, FileName(id, filename))
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("saving report: %w", err)
	}
	return path, nil
}
