package store

import (
	"path/filepath"
	"testing"

	"github.com/davrell/chemviz/internal/api"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestHistoryRoundTrip(t *testing.T) {
	c := openTestCache(t)

	uploads := []api.Upload{
		{ID: 3, Filename: "b.csv", CreatedAt: "2026-08-29T08:00:00Z",
			Summary: api.Summary{TotalCount: 4, TypeDistribution: map[string]int{"Pump": 4}}},
		{ID: 1, Filename: "a.csv", CreatedAt: "2026-08-28T10:00:00Z"},
	}
	if err := c.SaveHistory("alice", uploads); err != nil {
		t.Fatalf("SaveHistory() error = %v", err)
	}

	got, err := c.LoadHistory("alice")
	if err != nil {
		t.Fatalf("LoadHistory() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("loaded %d records, want 2", len(got))
	}
	if got[0].ID != 3 || got[0].Filename != "b.csv" {
		t.Fatalf("first record = %+v, want id=3 b.csv", got[0])
	}
	if got[0].Summary.TotalCount != 4 || got[0].Summary.TypeDistribution["Pump"] != 4 {
		t.Fatalf("summary = %+v, want count 4 Pump:4", got[0].Summary)
	}
	if got[1].CreatedAt != "2026-08-28T10:00:00Z" {
		t.Fatalf("created_at = %q", got[1].CreatedAt)
	}
}

func TestSaveHistoryReplacesPrevious(t *testing.T) {
	c := openTestCache(t)

	if err := c.SaveHistory("alice", []api.Upload{{ID: 1, Filename: "old.csv"}}); err != nil {
		t.Fatalf("SaveHistory() error = %v", err)
	}
	if err := c.SaveHistory("alice", []api.Upload{{ID: 2, Filename: "new.csv"}}); err != nil {
		t.Fatalf("SaveHistory() error = %v", err)
	}

	got, err := c.LoadHistory("alice")
	if err != nil {
		t.Fatalf("LoadHistory() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("history = %+v, want only the replacement", got)
	}
}

func TestHistoryIsolatedByIdentity(t *testing.T) {
	c := openTestCache(t)

	if err := c.SaveHistory("alice", []api.Upload{{ID: 1, Filename: "a.csv"}}); err != nil {
		t.Fatalf("SaveHistory() error = %v", err)
	}

	got, err := c.LoadHistory("bob")
	if err != nil {
		t.Fatalf("LoadHistory() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("bob sees alice's history: %+v", got)
	}
}

func TestDetailRoundTrip(t *testing.T) {
	c := openTestCache(t)

	summary := api.Summary{
		TotalCount:       2,
		TypeDistribution: map[string]int{"Valve": 2},
		Averages:         api.Averages{Flowrate: 1.5, Pressure: 2.5, Temperature: 70},
	}
	rows := []api.Row{{"equipment name": "Valve A", "type": "Valve"}}

	if err := c.SaveDetail("alice", 7, "plant.csv", summary, rows); err != nil {
		t.Fatalf("SaveDetail() error = %v", err)
	}

	filename, gotSummary, gotRows, ok, err := c.LoadDetail("alice", 7)
	if err != nil {
		t.Fatalf("LoadDetail() error = %v", err)
	}
	if !ok {
		t.Fatal("LoadDetail() found nothing")
	}
	if filename != "plant.csv" {
		t.Fatalf("filename = %q, want plant.csv", filename)
	}
	if gotSummary.TotalCount != 2 || gotSummary.Averages.Temperature != 70 {
		t.Fatalf("summary = %+v", gotSummary)
	}
	if len(gotRows) != 1 || gotRows[0]["equipment name"] != "Valve A" {
		t.Fatalf("rows = %+v", gotRows)
	}
}

func TestLoadDetailMissing(t *testing.T) {
	c := openTestCache(t)

	_, _, _, ok, err := c.LoadDetail("alice", 99)
	if err != nil {
		t.Fatalf("LoadDetail() error = %v", err)
	}
	if ok {
		t.Fatal("LoadDetail() reported a hit for a missing record")
	}
}

func TestSaveDetailOverwrites(t *testing.T) {
	c := openTestCache(t)

	if err := c.SaveDetail("alice", 7, "v1.csv", api.Summary{TotalCount: 1}, nil); err != nil {
		t.Fatalf("SaveDetail() error = %v", err)
	}
	if err := c.SaveDetail("alice", 7, "v2.csv", api.Summary{TotalCount: 9}, nil); err != nil {
		t.Fatalf("SaveDetail() error = %v", err)
	}

	filename, summary, _, ok, err := c.LoadDetail("alice", 7)
	if err != nil || !ok {
		t.Fatalf("LoadDetail() = ok=%v err=%v", ok, err)
	}
	if filename != "v2.csv" || summary.TotalCount != 9 {
		t.Fatalf("detail = %q count=%d, want v2.csv count=9", filename, summary.TotalCount)
	}
}
