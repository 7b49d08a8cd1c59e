package cmd

import (
	"fmt"
	"strconv"

	"github.com/davrell/chemviz/internal/api"
	"github.com/davrell/chemviz/internal/cli"
	"github.com/davrell/chemviz/internal/config"
	"github.com/davrell/chemviz/internal/session"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show the summary and data table for an upload",
	Long:  "Show the derived summary and the data table for an upload. Without an id the most recent upload is shown.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	s, cleanup := newSession(cfg)
	defer cleanup()

	if _, err := signIn(cmd.Context(), s, cfg); err != nil {
		return err
	}

	// Login auto-selects the newest upload; an explicit id overrides it.
	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid upload id %q", args[0])
		}
		if err := s.SelectItem(cmd.Context(), findUpload(s.Snapshot().History, id)); err != nil {
			return err
		}
	}

	snap := s.Snapshot()
	if snap.Selected == nil {
		fmt.Println("\n  No uploads yet. Use `chemviz upload <file.csv>` to add one.")
		return nil
	}

	printDetail(snap)
	return nil
}

// findUpload returns the history record with the given id, or a bare record
// so uploads older than the retention window can still be fetched by id.
func findUpload(history []api.Upload, id int64) api.Upload {
	for _, u := range history {
		if u.ID == id {
			return u
		}
	}
	return api.Upload{ID: id}
}

func printDetail(snap session.Snapshot) {
	if snap.Detail.State != session.DetailReady {
		if snap.LastError != "" {
			fmt.Println(cli.RenderError(snap.LastError))
		}
		return
	}

	d := snap.Detail
	fmt.Println()
	fmt.Println(cli.RenderTitle(d.Filename))
	fmt.Println()

	avg := d.Summary.Averages
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Summary",
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total readings", cli.FormatNumber(int64(d.Summary.TotalCount))},
			{"---"},
			{"Avg flowrate", cli.FormatReading(avg.Flowrate)},
			{"Avg pressure", cli.FormatReading(avg.Pressure)},
			{"Avg temperature", cli.FormatReading(avg.Temperature)},
		},
	}))

	if len(d.Summary.TypeDistribution) > 0 {
		fmt.Println()
		fmt.Println("  Equipment type distribution")
		maxCount := 0
		for _, n := range d.Summary.TypeDistribution {
			if n > maxCount {
				maxCount = n
			}
		}
		for _, name := range cli.SortedKeys(d.Summary.TypeDistribution) {
			n := d.Summary.TypeDistribution[name]
			fmt.Printf("  %-16s %s %d\n", name, cli.RenderHorizontalBar(float64(n), float64(maxCount), 30), n)
		}
	}

	if len(d.Rows) > 0 {
		cols := rowColumns(d.Rows)
		rows := make([][]string, 0, len(d.Rows))
		for _, r := range d.Rows {
			cells := make([]string, len(cols))
			for i, c := range cols {
				cells[i] = cli.FormatCell(r[c])
			}
			rows = append(rows, cells)
		}
		headers := make([]string, len(cols))
		for i, c := range cols {
			headers[i] = cli.ColumnTitle(c)
		}

		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Data",
			Headers: headers,
			Rows:    rows,
		}))
	}
}

// rowColumns derives a stable column order from the first row. Row shape is
// backend-defined, so nothing beyond map keys can be assumed.
func rowColumns(rows []api.Row) []string {
	if len(rows) == 0 {
		return nil
	}
	return cli.SortedKeys(rows[0])
}
