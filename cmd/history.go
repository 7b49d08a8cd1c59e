package cmd

import (
	"fmt"
	"os"

	"github.com/davrell/chemviz/internal/api"
	"github.com/davrell/chemviz/internal/cli"
	"github.com/davrell/chemviz/internal/config"
	"github.com/davrell/chemviz/internal/store"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the most recent uploads",
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	s, cleanup := newSession(cfg)
	defer cleanup()

	creds, err := signIn(cmd.Context(), s, cfg)
	if err != nil {
		// When the backend never answered, the cached list can stand in.
		if transportFailure(err) && !flagNoCache && creds.Username != "" {
			if cached := loadCachedHistory(creds.Username); len(cached) > 0 {
				fmt.Fprintf(os.Stderr, "  Backend unreachable (%v), showing cached history\n", err)
				printHistory(cached)
				return nil
			}
		}
		return err
	}

	snap := s.Snapshot()
	if len(snap.History) == 0 {
		fmt.Println("\n  No uploads yet. Use `chemviz upload <file.csv>` to add one.")
		return nil
	}

	printHistory(snap.History)
	return nil
}

func loadCachedHistory(identity string) []api.Upload {
	cache, err := store.Open(store.CachePath())
	if err != nil {
		return nil
	}
	defer func() { _ = cache.Close() }()

	cached, err := cache.LoadHistory(identity)
	if err != nil {
		return nil
	}
	return cached
}

func printHistory(uploads []api.Upload) {
	rows := make([][]string, 0, len(uploads))
	for _, u := range uploads {
		rows = append(rows, []string{
			fmt.Sprintf("%d", u.ID),
			u.Filename,
			cli.FormatNumber(int64(u.Summary.TotalCount)),
			u.CreatedAt,
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("History (last %d)", len(uploads)),
		Headers: []string{"ID", "Filename", "Rows", "Created"},
		Rows:    rows,
	}))
}
